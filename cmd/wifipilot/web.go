package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/wifipilot/internal/storage"
	"github.com/user/wifipilot/internal/web"
)

var webPort int

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the web dashboard",
	Long: `Start a lightweight web dashboard for the decision journal.

The web server provides:
- The latest decision and live updates over a websocket
- The probation list, with manual add and retry
- The current suggestion batch and switching settings
- Downloadable Markdown reports and Prometheus metrics

Examples:
  wifipilot web
  wifipilot web --port 9090`,
	RunE: runWeb,
}

func init() {
	webCmd.Flags().IntVarP(&webPort, "port", "p", 0, "Web server port (default from config)")
}

func runWeb(cmd *cobra.Command, args []string) error {
	if webPort == 0 {
		webPort = cfg.WebPort
	}

	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	fmt.Printf("Starting web server on http://localhost:%d\n", webPort)
	fmt.Println("Press Ctrl+C to stop")

	srv := web.NewServer(db, cfg, webPort)
	return srv.Start()
}
