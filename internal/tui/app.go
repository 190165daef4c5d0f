// Package tui provides a terminal user interface.
package tui

import (
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/wifipilot/internal/daemon"
	"github.com/user/wifipilot/internal/storage"
	"github.com/user/wifipilot/internal/util"
)

// App is the main TUI application.
type App struct {
	db     *storage.DB
	config *util.Config
}

// NewApp creates a new TUI application.
func NewApp(db *storage.DB, cfg *util.Config) *App {
	return &App{
		db:     db,
		config: cfg,
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(newModel(a.db, a.config), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// model is the main bubbletea model.
type model struct {
	db        *storage.DB
	config    *util.Config
	dashboard *Dashboard
	spinner   spinner.Model
	refresh   time.Duration
	ready     bool
	width     int
	height    int
	err       error
	flash     string
}

func newModel(db *storage.DB, cfg *util.Config) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	refresh := cfg.HeartbeatInterval
	if refresh < time.Second {
		refresh = time.Second
	}

	return model{
		db:      db,
		config:  cfg,
		spinner: s,
		refresh: refresh,
	}
}

// Init initializes the model.
func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadData(m.db, m.config),
		tick(m.refresh),
	)
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, loadData(m.db, m.config)
		case "p":
			return m.toggle("paused", &m.config.Settings.IsPaused)
		case "g":
			return m.toggle("gaming_mode", &m.config.Settings.IsGamingMode)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.dashboard != nil {
			m.dashboard.SetSize(msg.Width, msg.Height)
		}

	case tickMsg:
		return m, tea.Batch(loadData(m.db, m.config), tick(m.refresh))

	case dataMsg:
		m.ready = true
		m.err = nil
		msg.Data.Flash = m.flash
		m.dashboard = NewDashboard(msg, m.width, m.height)

	case errMsg:
		m.err = msg.err

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// toggle flips a boolean setting in the config file. A running daemon picks
// the change up through its config watcher.
func (m model) toggle(key string, field *bool) (tea.Model, tea.Cmd) {
	next := !*field
	if err := util.SaveSetting(m.config.DataDir, key, strconv.FormatBool(next)); err != nil {
		m.flash = "Failed to save " + key + ": " + err.Error()
		return m, nil
	}
	*field = next
	m.flash = key + " = " + strconv.FormatBool(next)
	return m, loadData(m.db, m.config)
}

// View renders the UI.
func (m model) View() string {
	if m.err != nil {
		return ErrorStyle.Render("Error: " + m.err.Error())
	}

	if !m.ready {
		return LoadingStyle.Render(m.spinner.View() + " Loading...")
	}

	return m.dashboard.View()
}

// Messages
type dataMsg struct {
	Data *DashboardData
}

type errMsg struct {
	err error
}

type tickMsg time.Time

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func loadData(db *storage.DB, cfg *util.Config) tea.Cmd {
	return func() tea.Msg {
		data, err := fetchDashboardData(db, cfg)
		if err != nil {
			return errMsg{err}
		}
		return dataMsg{Data: data}
	}
}

func fetchDashboardData(db *storage.DB, cfg *util.Config) (*DashboardData, error) {
	now := time.Now()
	data := &DashboardData{
		Settings: cfg.Settings,
		Online:   true,
		Now:      now,
	}

	data.DaemonRunning, _ = daemon.CheckRunning(cfg.DataDir)

	// the status file is only as fresh as the daemon's last cycle
	if sf, err := daemon.ReadStatusFile(cfg.DataDir); err == nil {
		data.Current = sf.Current
		data.LastDecision = sf.LastDecision
		data.UpdatedAt = sf.UpdatedAt
		if sf.Liveness != nil {
			data.Online = sf.Liveness.Online
		}
	}

	recent, err := storage.NewDecisionStorage(db).GetRecent(8)
	if err != nil {
		return nil, err
	}
	data.Recent = recent

	probation, err := storage.NewProbationStorage(db).GetActive(now)
	if err != nil {
		return nil, err
	}
	data.Probation = probation

	if sugg, err := storage.NewSuggestionStorage(db).GetCurrent(); err == nil {
		data.Suggestions = sugg
	}

	return data, nil
}
