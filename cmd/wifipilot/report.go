package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/wifipilot/internal/model"
	"github.com/user/wifipilot/internal/report"
	"github.com/user/wifipilot/internal/storage"
)

var (
	reportLast   string
	reportFormat string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a decision report",
	Long: `Generate a Markdown report of the daemon's decisions.

Examples:
  wifipilot report --last 24h
  wifipilot report --last 7d --format markdown
  wifipilot report --last 1h --output ./report.md
  wifipilot report --last 1w --output -`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportLast, "last", "24h",
		"Time range (e.g., 1h, 24h, 7d, 2w)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "markdown",
		"Output format (markdown)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "",
		"Output file path, - for stdout (default: auto-generated)")
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportFormat != "markdown" {
		return fmt.Errorf("unsupported format %q", reportFormat)
	}

	duration, err := parseDuration(reportLast)
	if err != nil {
		return fmt.Errorf("invalid time range: %w", err)
	}

	until := time.Now()
	since := until.Add(-duration)

	if reportOutput != "-" {
		fmt.Printf("Generating report for %s to %s...\n",
			since.Format("2006-01-02 15:04"),
			until.Format("2006-01-02 15:04"))
	}

	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	gen := report.NewGenerator(db, cfg)
	data, err := gen.Generate(model.ReportOptions{
		Since:  since,
		Until:  until,
		Format: reportFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	switch reportOutput {
	case "":
		outputPath, err := report.WriteMarkdownFile(data, cfg.ReportOutputDir)
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("Report saved to: %s\n", outputPath)
	case "-":
		fmt.Println(report.FormatMarkdown(data))
		return nil
	default:
		if err := os.WriteFile(reportOutput, []byte(report.FormatMarkdown(data)), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("Report saved to: %s\n", reportOutput)
	}

	fmt.Println()
	fmt.Println("Report Summary:")
	fmt.Printf("  Decisions: %d\n", len(data.Decisions))
	for _, o := range report.Outcomes {
		fmt.Printf("  %s: %d\n", o, data.Outcomes[o])
	}
	fmt.Printf("  Roaming transitions: %d\n", len(data.Transitions))
	fmt.Printf("  On probation: %d\n", len(data.Probation))

	return nil
}

// parseDuration accepts time.ParseDuration strings plus whole days (7d) and weeks (2w).
func parseDuration(s string) (time.Duration, error) {
	if len(s) > 0 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}

	if len(s) > 0 && s[len(s)-1] == 'w' {
		var weeks int
		if _, err := fmt.Sscanf(s, "%dw", &weeks); err == nil {
			return time.Duration(weeks) * 7 * 24 * time.Hour, nil
		}
	}

	return time.ParseDuration(s)
}
