package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/wifipilot/internal/decision"
	"github.com/user/wifipilot/internal/monitor"
	"github.com/user/wifipilot/internal/probes"
	"github.com/user/wifipilot/internal/storage"
	"github.com/user/wifipilot/internal/suggest"
)

var (
	evalSnapshot      string
	evalJSON          bool
	evalWithProbation bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run one decision cycle against a snapshot",
	Long: `Run a single decision cycle against a YAML radio snapshot and print the result.
Nothing is persisted and no notification is sent.

Snapshot format:
  current:
    bssid: "aa:aa:aa:aa:aa:aa"
    ssid: Home
    rssi: -78
    frequency: 2412
  networks:
    - {ssid: Home-5G, bssid: "bb:bb:bb:bb:bb:bb", level: -60, frequency: 5180}
  settings:          # optional, overrides the configured settings
    sensitivity: 50

Examples:
  wifipilot evaluate --snapshot scan.yaml
  wifipilot evaluate --snapshot scan.yaml --with-probation --json`,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVarP(&evalSnapshot, "snapshot", "s", "", "YAML snapshot file")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "Print the result as JSON")
	evaluateCmd.Flags().BoolVar(&evalWithProbation, "with-probation", false,
		"Exclude access points on the persisted probation list")
	evaluateCmd.MarkFlagRequired("snapshot")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	snap, err := probes.LoadSnapshot(evalSnapshot)
	if err != nil {
		return err
	}

	settings := cfg.Settings
	if snap.Settings != nil {
		settings = *snap.Settings
	}

	store := decision.NewProbationStore(nil, cfg.ProbationDuration)
	if evalWithProbation {
		db, err := storage.Open(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		entries, err := storage.NewProbationStorage(db).GetActive(time.Now())
		db.Close()
		if err != nil {
			return fmt.Errorf("failed to load probation list: %w", err)
		}
		store.Restore(entries)
	}

	res := decision.NewSelector(store, nil).Evaluate(snap.Current, snap.Networks, settings)

	if evalJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Println(titleStyle.Render("Connection"))
	printConnection(snap.Current)
	if snap.Current != nil && monitor.ShouldProbate(snap.Current) {
		fmt.Println(warnStyle.Render("  Strong signal without internet: the daemon would put this access point on probation"))
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("Decision"))
	if res.Skipped {
		printField("  Skipped: ", res.Reason)
		return nil
	}
	printDecision(&res)
	printField("  Poor signal: ", fmt.Sprintf("%v (threshold %d dBm)", res.PoorSignal, settings.SwitchThresholdDbm()))

	if len(res.BatchSuggestions) > 0 {
		fmt.Println()
		fmt.Println(titleStyle.Render("Suggestion batch"))
		for _, obs := range res.BatchSuggestions {
			hotspot := ""
			if obs.IsMetered || probes.LooksLikeHotspot(obs.SSID) {
				hotspot = warnStyle.Render(" hotspot")
			}
			fmt.Printf("  %3d  %-24s %4d dBm  %-6s score %d%s\n",
				suggest.Priority(obs), obs.SSID, obs.SignalLevel, obs.Band(),
				decision.Score(obs.SignalLevel, obs.IsMetered, obs.Is5GHz()), hotspot)
		}
	}

	return nil
}
