package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	wmodel "github.com/user/wifipilot/internal/model"
	"github.com/user/wifipilot/internal/storage"
	"github.com/user/wifipilot/internal/util"
)

func TestFetchDashboardData(t *testing.T) {
	cfg := util.DefaultConfig()
	cfg.DataDir = t.TempDir()
	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	res := wmodel.DecisionResult{CycleID: "c1", EvaluatedAt: time.Now(), Reason: "Signal Optimal (-52 dBm)"}
	cur := &wmodel.ConnectionState{BSSID: "AA", SSID: "Home", RSSI: -52}
	if err := storage.NewDecisionStorage(db).Save(wmodel.NewDecisionRecord(res, cur)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := storage.NewProbationStorage(db).Upsert("BB", time.Now().Add(time.Minute), "zombie"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	data, err := fetchDashboardData(db, cfg)
	if err != nil {
		t.Fatalf("fetchDashboardData: %v", err)
	}
	if len(data.Recent) != 1 || len(data.Probation) != 1 {
		t.Fatalf("data = %+v", data)
	}
	if data.DaemonRunning {
		t.Error("no daemon should be running")
	}

	view := NewDashboard(dataMsg{Data: data}, 100, 40).View()
	for _, want := range []string{"Signal Optimal (-52 dBm)", "BB", "Not connected"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDashboardShowsCandidate(t *testing.T) {
	data := &DashboardData{
		Now:     time.Now(),
		Online:  false,
		Current: &wmodel.ConnectionState{BSSID: "AA", SSID: "Home", RSSI: -80, FrequencyMHz: 2412},
		LastDecision: &wmodel.DecisionResult{
			Reason:        "Better 5G Found: Home-5G",
			BestCandidate: &wmodel.NetworkObservation{SSID: "Home-5G", BSSID: "BB", SignalLevel: -58, FrequencyMHz: 5180},
		},
		Settings: wmodel.DefaultSettings(),
	}
	view := NewDashboard(dataMsg{Data: data}, 100, 40).View()
	for _, want := range []string{"Home-5G (-58 dBm, 5GHz)", "no internet", "-80 dBm", "2.4GHz"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModelQuitAndLoad(t *testing.T) {
	cfg := util.DefaultConfig()
	m := newModel(nil, cfg)

	if !strings.Contains(m.View(), "Loading") {
		t.Error("view before data should show loading")
	}

	next, _ := m.Update(dataMsg{Data: &DashboardData{Settings: cfg.Settings}})
	if !strings.Contains(next.View(), "WiFi Pilot Dashboard") {
		t.Error("view after data should render the dashboard")
	}

	_, cmd := next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestRenderBar(t *testing.T) {
	if got := RenderBar(35, 70, 10); strings.Count(got, "█") != 5 {
		t.Errorf("RenderBar(35,70,10) = %q, want 5 filled", got)
	}
	if got := RenderBar(-10, 70, 4); strings.Count(got, "░") != 4 {
		t.Errorf("negative value should render empty bar, got %q", got)
	}
}
