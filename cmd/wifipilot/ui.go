package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/wifipilot/internal/storage"
	"github.com/user/wifipilot/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the terminal dashboard",
	Long: `Launch an interactive terminal dashboard showing the daemon's view of the radio.

The dashboard shows:
- The current connection and internet liveness
- The latest decision and best candidate
- The suggestion batch and probation list
- Recent decisions

Keys: 'r' refresh, 'p' pause switching, 'g' gaming mode, 'q' quit.`,
	RunE: runUI,
}

func runUI(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	app := tui.NewApp(db, cfg)
	return app.Run()
}
