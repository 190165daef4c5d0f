package tui

import (
	"fmt"
	"strings"
	"time"

	wmodel "github.com/user/wifipilot/internal/model"
)

// DashboardData holds data for the dashboard view.
type DashboardData struct {
	DaemonRunning bool
	UpdatedAt     time.Time
	Now           time.Time
	Current       *wmodel.ConnectionState
	Online        bool
	LastDecision  *wmodel.DecisionResult
	Recent        []wmodel.DecisionRecord
	Probation     []wmodel.ProbationEntry
	Suggestions   []wmodel.Suggestion
	Settings      wmodel.UserSettings
	Flash         string
}

// Dashboard is the main dashboard view.
type Dashboard struct {
	data   *DashboardData
	width  int
	height int
}

// NewDashboard creates a new dashboard.
func NewDashboard(msg dataMsg, width, height int) *Dashboard {
	return &Dashboard{
		data:   msg.Data,
		width:  width,
		height: height,
	}
}

// SetSize updates the dashboard size.
func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// View renders the dashboard.
func (d *Dashboard) View() string {
	var sb strings.Builder

	header := HeaderStyle.Width(d.width).Render("📶 WiFi Pilot Dashboard")
	sb.WriteString(header)
	sb.WriteString("\n\n")

	sb.WriteString(d.renderConnectionSection())
	sb.WriteString("\n")
	sb.WriteString(d.renderDecisionSection())
	sb.WriteString("\n")
	sb.WriteString(d.renderSuggestionsSection())
	sb.WriteString("\n")
	sb.WriteString(d.renderProbationSection())
	sb.WriteString("\n")
	sb.WriteString(d.renderRecentSection())
	sb.WriteString("\n")

	if d.data.Flash != "" {
		sb.WriteString(WarningStyle.Render(d.data.Flash))
		sb.WriteString("\n")
	}

	help := HelpStyle.Render("'r' refresh • 'p' pause • 'g' gaming mode • 'q' quit")
	sb.WriteString(help)

	return sb.String()
}

func (d *Dashboard) sectionWidth() int {
	w := d.width - 4
	if w < 40 {
		w = 40
	}
	return w
}

func (d *Dashboard) renderConnectionSection() string {
	var content string
	if c := d.data.Current; c != nil {
		content = fmt.Sprintf(
			"%s %s\n%s %s\n%s %s\n%s %s",
			LabelStyle.Render("SSID:"),
			ValueStyle.Render(orDash(c.SSID)),
			LabelStyle.Render("BSSID:"),
			ValueStyle.Render(c.BSSID),
			LabelStyle.Render("Signal:"),
			SignalStyle(c.RSSI, d.data.Settings.SwitchThresholdDbm()).Render(fmt.Sprintf("%d dBm", c.RSSI))+" "+RenderBar(c.RSSI+100, 70, 20),
			LabelStyle.Render("Band:"),
			ValueStyle.Render(wmodel.BandLabel(c.FrequencyMHz)),
		)
	} else {
		content = DimStyle.Render("Not connected")
	}

	content += fmt.Sprintf("\n%s %s\n%s %s",
		LabelStyle.Render("Internet:"),
		RenderStatus(d.data.Online, "online", "no internet"),
		LabelStyle.Render("Daemon:"),
		RenderStatus(d.data.DaemonRunning, "running", "stopped"),
	)

	return SectionStyle.Width(d.sectionWidth()).Render(
		SectionTitleStyle.Render("📡 Connection") + "\n" + content)
}

func (d *Dashboard) renderDecisionSection() string {
	s := d.data.Settings
	mode := "active"
	switch {
	case s.IsPaused:
		mode = "paused"
	case s.IsGamingMode:
		mode = "gaming"
	}

	var content string
	if res := d.data.LastDecision; res != nil {
		style := ValueStyle
		if res.BadgeWarning {
			style = WarningStyle
		}
		content = style.Render(res.Reason)
		if c := res.BestCandidate; c != nil {
			content += fmt.Sprintf("\n%s %s",
				LabelStyle.Render("Candidate:"),
				ValueStyle.Render(fmt.Sprintf("%s (%d dBm, %s)", orDash(c.SSID), c.SignalLevel, c.Band())))
		}
		content += fmt.Sprintf("\n%s %s",
			LabelStyle.Render("Evaluated:"),
			ValueStyle.Render(res.EvaluatedAt.Format("15:04:05")))
	} else {
		content = DimStyle.Render("No decision yet")
	}

	content += fmt.Sprintf("\n%s %s\n%s %s",
		LabelStyle.Render("Threshold:"),
		ValueStyle.Render(fmt.Sprintf("%d dBm", s.SwitchThresholdDbm())),
		LabelStyle.Render("Mode:"),
		ValueStyle.Render(mode),
	)

	return SectionStyle.Width(d.sectionWidth()).Render(
		SectionTitleStyle.Render("🧭 Decision") + "\n" + content)
}

func (d *Dashboard) renderSuggestionsSection() string {
	if len(d.data.Suggestions) == 0 {
		return SectionStyle.Width(d.sectionWidth()).Render(
			SectionTitleStyle.Render("💡 Suggestions") + "\n" + DimStyle.Render("No suggestions"))
	}

	var rows []string
	rows = append(rows, fmt.Sprintf("%-4s %-22s %-8s %s", "Pri", "SSID", "Signal", "Band"))
	rows = append(rows, strings.Repeat("─", 44))
	for _, s := range d.data.Suggestions {
		rows = append(rows, fmt.Sprintf("%-4d %-22s %-8s %s",
			s.Priority, truncate(orDash(s.SSID), 20), fmt.Sprintf("%d", s.SignalLevel), wmodel.BandLabel(s.Frequency)))
	}

	return SectionStyle.Width(d.sectionWidth()).Render(
		SectionTitleStyle.Render("💡 Suggestions") + "\n" + strings.Join(rows, "\n"))
}

func (d *Dashboard) renderProbationSection() string {
	if len(d.data.Probation) == 0 {
		return SectionStyle.Width(d.sectionWidth()).Render(
			SectionTitleStyle.Render("⛔ Probation") + "\n" + DimStyle.Render("Nothing on probation"))
	}

	var rows []string
	for _, p := range d.data.Probation {
		rows = append(rows, fmt.Sprintf("%-20s %s",
			p.BSSID, WarningStyle.Render(p.Remaining(d.data.Now).Round(time.Second).String())))
	}

	return SectionStyle.Width(d.sectionWidth()).Render(
		SectionTitleStyle.Render("⛔ Probation") + "\n" + strings.Join(rows, "\n"))
}

func (d *Dashboard) renderRecentSection() string {
	if len(d.data.Recent) == 0 {
		return SectionStyle.Width(d.sectionWidth()).Render(
			SectionTitleStyle.Render("📜 Recent Decisions") + "\n" + DimStyle.Render("No decisions recorded yet"))
	}

	var rows []string
	for _, r := range d.data.Recent {
		rows = append(rows, fmt.Sprintf("%s  %s",
			DimStyle.Render(r.Timestamp.Local().Format("15:04:05")), truncate(r.Reason, d.sectionWidth()-14)))
	}

	return SectionStyle.Width(d.sectionWidth()).Render(
		SectionTitleStyle.Render("📜 Recent Decisions") + "\n" + strings.Join(rows, "\n"))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	if n < 4 || len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
