package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/wifipilot/internal/daemon"
	"github.com/user/wifipilot/internal/decision"
	"github.com/user/wifipilot/internal/storage"
	"github.com/user/wifipilot/internal/util"
)

var probationDuration time.Duration

var probationCmd = &cobra.Command{
	Use:   "probation",
	Short: "Inspect and edit the probation list",
	Long: `Access points on probation are never suggested until their probation expires.
The daemon adds an access point automatically when it has a strong signal but no internet.

Examples:
  wifipilot probation list
  wifipilot probation add aa:bb:cc:dd:ee:ff --duration 10m
  wifipilot probation retry aa:bb:cc:dd:ee:ff`,
}

var probationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List access points on probation",
	Args:  cobra.NoArgs,
	RunE:  runProbationList,
}

var probationAddCmd = &cobra.Command{
	Use:   "add <bssid>",
	Short: "Put an access point on probation",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbationAdd,
}

var probationRetryCmd = &cobra.Command{
	Use:     "retry <bssid>",
	Aliases: []string{"remove"},
	Short:   "Lift probation so the access point can be suggested again",
	Args:    cobra.ExactArgs(1),
	RunE:    runProbationRetry,
}

func init() {
	probationAddCmd.Flags().DurationVarP(&probationDuration, "duration", "d", 0,
		"Probation length (default from config)")

	probationCmd.AddCommand(probationListCmd)
	probationCmd.AddCommand(probationAddCmd)
	probationCmd.AddCommand(probationRetryCmd)
}

func runProbationList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	now := time.Now()
	active, err := storage.NewProbationStorage(db).GetActive(now)
	if err != nil {
		return fmt.Errorf("failed to load probation list: %w", err)
	}

	if len(active) == 0 {
		fmt.Println(labelStyle.Render("No access points on probation"))
		return nil
	}
	for _, p := range active {
		fmt.Printf("%s  until %s (%s left)\n",
			valueStyle.Render(p.BSSID),
			p.Expiry.Format("15:04:05"),
			warnStyle.Render(p.Remaining(now).Round(time.Second).String()))
	}
	return nil
}

func runProbationAdd(cmd *cobra.Command, args []string) error {
	bssid := strings.TrimSpace(args[0])
	if decision.NormalizeBSSID(bssid) == "" {
		return fmt.Errorf("empty bssid")
	}

	d := probationDuration
	if d <= 0 {
		d = cfg.ProbationDuration
	}

	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	expiry := time.Now().Add(d)
	if err := storage.NewProbationStorage(db).Upsert(bssid, expiry, "manual"); err != nil {
		return fmt.Errorf("failed to save probation: %w", err)
	}

	fmt.Printf("%s on probation until %s\n", bssid, expiry.Format("15:04:05"))
	reloadDaemon()
	return nil
}

func runProbationRetry(cmd *cobra.Command, args []string) error {
	bssid := strings.TrimSpace(args[0])

	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	removed, err := storage.NewProbationStorage(db).Delete(bssid)
	if err != nil {
		return fmt.Errorf("failed to lift probation: %w", err)
	}
	if !removed {
		return fmt.Errorf("%s is not on probation", bssid)
	}

	fmt.Printf("%s can be suggested again\n", bssid)
	reloadDaemon()
	return nil
}

// reloadDaemon tells a running daemon to re-read the probation list.
func reloadDaemon() {
	err := daemon.SendReload(cfg.DataDir)
	switch {
	case err == nil:
		fmt.Println(labelStyle.Render("Daemon reloaded"))
	case errors.Is(err, daemon.ErrNotRunning):
		// picked up on next start
	default:
		util.Warn("Failed to notify daemon: %v", err)
	}
}
