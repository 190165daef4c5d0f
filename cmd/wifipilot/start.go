package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/user/wifipilot/internal/daemon"
	"github.com/user/wifipilot/internal/util"
	"github.com/user/wifipilot/internal/web"
)

var (
	foreground   bool
	withWeb      bool
	startWebPort int
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the wifipilot daemon",
	Long:  "Start the wifipilot daemon in the background to evaluate nearby networks.",
	RunE:  runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false,
		"Run in foreground instead of daemonizing")
	startCmd.Flags().BoolVar(&withWeb, "with-web", false,
		"Also start the web dashboard server")
	startCmd.Flags().IntVar(&startWebPort, "web-port", 0,
		"Port for web server (when using --with-web, default from config)")
}

func runStart(cmd *cobra.Command, args []string) error {
	running, pid := daemon.CheckRunning(cfg.DataDir)
	if running {
		fmt.Printf("Daemon is already running (PID %d)\n", pid)
		return nil
	}

	if startWebPort == 0 {
		startWebPort = cfg.WebPort
	}

	if foreground {
		return runForeground()
	}

	return runDaemon()
}

func runForeground() error {
	fmt.Println("Starting wifipilot in foreground mode...")

	d, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	if err := d.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	watchSettings(d)

	var srv *web.Server
	if withWeb {
		srv = web.NewServer(d.GetDB(), cfg, startWebPort)
		srv.SetMetricsHandler(d.Metrics().Handler())
		srv.SetSettingsSource(d.Settings)
		go func() {
			fmt.Printf("Web dashboard: http://localhost:%d\n", startWebPort)
			if err := srv.Start(); err != nil {
				util.Error("Web server error: %v", err)
			}
		}()
	}

	fmt.Println("WiFi Pilot daemon started. Press Ctrl+C to stop.")

	d.Wait()

	if srv != nil {
		srv.Stop()
	}
	return d.Stop()
}

// watchSettings pushes edits of the settings block, e.g. from
// "wifipilot settings set", into the running daemon.
func watchSettings(d *daemon.Daemon) {
	if viper.ConfigFileUsed() == "" {
		util.Debug("No config file in use; settings changes need a restart")
		return
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		s, err := util.ReloadSettings()
		if err != nil {
			util.Warn("Ignoring config change: %v", err)
			return
		}
		// cfg is shared with the web handlers; the daemon owns the live copy
		d.UpdateSettings(s)
	})
	viper.WatchConfig()
}

func runDaemon() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"start", "--foreground"}
	if cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}
	if withWeb {
		args = append(args, "--with-web", "--web-port", fmt.Sprintf("%d", startWebPort))
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	procAttr := &os.ProcAttr{
		Dir:   "/",
		Env:   os.Environ(),
		Files: []*os.File{nil, logFile, logFile},
		Sys: &syscall.SysProcAttr{
			Setsid: true,
		},
	}

	proc, err := os.StartProcess(executable, append([]string{executable}, args...), procAttr)
	if err != nil {
		return fmt.Errorf("failed to start daemon process: %w", err)
	}

	if err := proc.Release(); err != nil {
		util.Warn("Failed to release process: %v", err)
	}

	fmt.Printf("WiFi Pilot daemon started (PID %d)\n", proc.Pid)
	fmt.Printf("Logs: %s\n", cfg.LogFile)
	if withWeb {
		fmt.Printf("Web dashboard: http://localhost:%d\n", startWebPort)
	}

	return nil
}
