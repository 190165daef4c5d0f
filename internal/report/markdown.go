package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/wifipilot/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// FormatMarkdown renders a report as Markdown.
func FormatMarkdown(data *ReportData) string {
	var sb strings.Builder

	sb.WriteString("# WiFi Pilot Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", data.GeneratedAt.Format(timeLayout)))
	sb.WriteString(fmt.Sprintf("Period: %s to %s\n\n", data.Since.Format(timeLayout), data.Until.Format(timeLayout)))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Outcome | Count |\n|---|---|\n")
	for _, o := range Outcomes {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", o, data.Outcomes[o]))
	}
	sb.WriteString(fmt.Sprintf("| **Total** | %d |\n\n", len(data.Decisions)))

	if pie := GenerateOutcomePie(data.Outcomes); pie != "" {
		sb.WriteString(pie)
		sb.WriteString("\n")
	}

	sb.WriteString("## Candidates\n\n")
	if len(data.Candidates) == 0 {
		sb.WriteString("No better network was suggested in this period.\n\n")
	} else {
		sb.WriteString("| SSID | BSSID | Times suggested | Best signal |\n|---|---|---|---|\n")
		for _, c := range data.Candidates {
			sb.WriteString(fmt.Sprintf("| %s | `%s` | %d | %d dBm |\n", orDash(c.SSID), c.BSSID, c.Count, c.BestSignal))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Roaming\n\n")
	if len(data.Transitions) == 0 {
		sb.WriteString("The connected access point did not change.\n\n")
	} else {
		sb.WriteString(GenerateRoamingFlow(data.Transitions))
		sb.WriteString("\n")
		for _, t := range data.Transitions {
			sb.WriteString(fmt.Sprintf("- %s: %s (`%s`) -> %s (`%s`)\n",
				t.Timestamp.Format(timeLayout), orDash(t.FromSSID), t.FromBSSID, orDash(t.ToSSID), t.ToBSSID))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Probation\n\n")
	if len(data.Probation) == 0 {
		sb.WriteString("No access points on probation.\n\n")
	} else {
		sb.WriteString("| BSSID | Expires | Remaining |\n|---|---|---|\n")
		for _, p := range data.Probation {
			sb.WriteString(fmt.Sprintf("| `%s` | %s | %s |\n",
				p.BSSID, p.Expiry.Format(timeLayout), p.Remaining(data.GeneratedAt).Round(time.Second)))
		}
		sb.WriteString("\n")
	}

	if len(data.Suggestions) > 0 {
		sb.WriteString("## Current suggestions\n\n")
		sb.WriteString("| Priority | SSID | BSSID | Signal | Band |\n|---|---|---|---|---|\n")
		for _, s := range data.Suggestions {
			sb.WriteString(fmt.Sprintf("| %d | %s | `%s` | %d dBm | %s |\n",
				s.Priority, orDash(s.SSID), s.BSSID, s.SignalLevel, model.BandLabel(s.Frequency)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Recent decisions\n\n")
	if len(data.Decisions) == 0 {
		sb.WriteString("No decisions recorded.\n")
		return sb.String()
	}
	sb.WriteString("| Time | Connected | RSSI | Reason |\n|---|---|---|---|\n")
	start := 0
	if len(data.Decisions) > 50 {
		start = len(data.Decisions) - 50
	}
	for _, d := range data.Decisions[start:] {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s |\n",
			d.Timestamp.Local().Format(timeLayout), orDash(d.CurrentSSID), d.CurrentRSSI, d.Reason))
	}

	return sb.String()
}

// WriteMarkdownFile writes the report into dir with a timestamped name and
// returns the path.
func WriteMarkdownFile(data *ReportData, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}
	name := fmt.Sprintf("wifipilot_report_%s.md", data.GeneratedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(FormatMarkdown(data)), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
