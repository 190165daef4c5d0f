package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/user/wifipilot/internal/daemon"
	"github.com/user/wifipilot/internal/model"
	"github.com/user/wifipilot/internal/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long:  "Show the current status of the wifipilot daemon and its latest decision.",
	RunE:  runStatus,
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	goodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	badStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

func runStatus(cmd *cobra.Command, args []string) error {
	running, pid := daemon.CheckRunning(cfg.DataDir)

	fmt.Println(titleStyle.Render("WiFi Pilot Status"))

	fmt.Print(labelStyle.Render("Daemon: "))
	if running {
		fmt.Println(goodStyle.Render(fmt.Sprintf("Running (PID %d)", pid)))
	} else {
		fmt.Println(badStyle.Render("Stopped"))
	}

	if sf, err := daemon.ReadStatusFile(cfg.DataDir); err == nil {
		printField("Started: ", sf.StartTime)
		printField("Uptime: ", sf.Uptime)
		printField("Updated: ", sf.UpdatedAt.Format("2006-01-02 15:04:05"))

		fmt.Println()
		fmt.Println(titleStyle.Render("Connection"))
		printConnection(sf.Current)
		if sf.Liveness != nil {
			fmt.Print(labelStyle.Render("  Internet: "))
			if sf.Liveness.Online {
				fmt.Println(goodStyle.Render(fmt.Sprintf("online via %s (%s)", sf.Liveness.Method, sf.Liveness.Latency.Round(time.Millisecond))))
			} else {
				fmt.Println(badStyle.Render("offline: " + sf.Liveness.Err))
			}
		}

		if res := sf.LastDecision; res != nil {
			fmt.Println()
			fmt.Println(titleStyle.Render("Last Decision"))
			printDecision(res)
		}

		if len(sf.Jobs) > 0 {
			fmt.Println()
			fmt.Println(titleStyle.Render("Jobs"))

			for _, job := range sf.Jobs {
				statusStr := "idle"
				if job.Running {
					statusStr = "running"
				}
				fmt.Printf("  %s: %s (last: %s in %s, runs: %d, errors: %d)\n",
					labelStyle.Render(job.Name),
					valueStyle.Render(statusStr),
					job.LastRun.Format("15:04:05"),
					job.LastDuration.Round(time.Millisecond),
					job.RunCount,
					job.ErrorCount)
				if job.LastError != "" {
					fmt.Println(badStyle.Render("    " + job.LastError))
				}
			}
		}
	}

	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	now := time.Now()
	if active, err := storage.NewProbationStorage(db).GetActive(now); err == nil {
		fmt.Println()
		fmt.Println(titleStyle.Render("Probation"))
		if len(active) == 0 {
			fmt.Println(labelStyle.Render("  none"))
		}
		for _, p := range active {
			fmt.Printf("  %s %s\n", valueStyle.Render(p.BSSID),
				warnStyle.Render(p.Remaining(now).Round(time.Second).String()+" left"))
		}
	}

	if batch, err := storage.NewSuggestionStorage(db).GetCurrent(); err == nil && len(batch) > 0 {
		fmt.Println()
		fmt.Println(titleStyle.Render("Suggestions"))
		for _, s := range batch {
			fmt.Printf("  %3d  %-24s %4d dBm  %s\n", s.Priority, s.SSID, s.SignalLevel, model.BandLabel(s.Frequency))
		}
	}

	return nil
}

func printField(label, value string) {
	fmt.Print(labelStyle.Render(label))
	fmt.Println(valueStyle.Render(value))
}

func printConnection(c *model.ConnectionState) {
	if c == nil {
		fmt.Println(labelStyle.Render("  Not connected"))
		return
	}
	printField("  SSID: ", c.SSID)
	printField("  BSSID: ", c.BSSID)
	printField("  Signal: ", fmt.Sprintf("%d dBm (%s)", c.RSSI, model.BandLabel(c.FrequencyMHz)))
	if c.IsMetered {
		printField("  Metered: ", "yes")
	}
}

func printDecision(res *model.DecisionResult) {
	reason := valueStyle
	if res.BadgeWarning {
		reason = warnStyle
	}
	fmt.Print(labelStyle.Render("  Reason: "))
	fmt.Println(reason.Render(res.Reason))
	if c := res.BestCandidate; c != nil {
		printField("  Candidate: ", fmt.Sprintf("%s %s (%d dBm, %s)", c.SSID, c.BSSID, c.SignalLevel, c.Band()))
	}
	if len(res.BatchSuggestions) > 0 {
		printField("  Batch: ", fmt.Sprintf("%d networks", len(res.BatchSuggestions)))
	}
	if !res.EvaluatedAt.IsZero() {
		printField("  Evaluated: ", res.EvaluatedAt.Format("15:04:05"))
	}
}
