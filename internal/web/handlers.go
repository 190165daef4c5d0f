package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/user/wifipilot/internal/daemon"
	"github.com/user/wifipilot/internal/decision"
	"github.com/user/wifipilot/internal/model"
	"github.com/user/wifipilot/internal/report"
	"github.com/user/wifipilot/internal/storage"
	"github.com/user/wifipilot/internal/util"
)

// Handlers contains HTTP handlers.
type Handlers struct {
	db          *storage.DB
	config      *util.Config
	decisions   *storage.DecisionStorage
	probation   *storage.ProbationStorage
	suggestions *storage.SuggestionStorage

	// reload tells a running daemon that the probation table changed.
	reload func(dataDir string) error

	// settings returns the live switching preferences. It must be safe to
	// call from any request goroutine.
	settings func() model.UserSettings
}

// NewHandlers creates new handlers.
func NewHandlers(db *storage.DB, cfg *util.Config) *Handlers {
	fixed := cfg.Settings
	return &Handlers{
		db:          db,
		config:      cfg,
		decisions:   storage.NewDecisionStorage(db),
		probation:   storage.NewProbationStorage(db),
		suggestions: storage.NewSuggestionStorage(db),
		reload:      daemon.SendReload,
		settings:    func() model.UserSettings { return fixed },
	}
}

// Dashboard serves the main dashboard page.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := h.getDashboardData()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	tmpl := GetTemplates()
	if err := tmpl.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// APIGetStatus returns daemon status.
func (h *Handlers) APIGetStatus(w http.ResponseWriter, r *http.Request) {
	running, pid := daemon.CheckRunning(h.config.DataDir)

	status := map[string]interface{}{
		"running": running,
		"pid":     pid,
	}

	if sf, err := daemon.ReadStatusFile(h.config.DataDir); err == nil {
		status["updated_at"] = sf.UpdatedAt
		status["current"] = sf.Current
		status["last_decision"] = sf.LastDecision
		status["liveness"] = sf.Liveness
		status["jobs"] = sf.Jobs
	}

	if active, err := h.probation.GetActive(time.Now()); err == nil {
		status["probation_count"] = len(active)
	}

	writeJSON(w, status)
}

// APIGetDecisions returns journaled decisions. With ?since=<duration> it
// returns that window oldest first, otherwise the latest ?limit= records.
func (h *Handlers) APIGetDecisions(w http.ResponseWriter, r *http.Request) {
	var (
		records []model.DecisionRecord
		err     error
	)

	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		d, perr := time.ParseDuration(sinceStr)
		if perr != nil {
			writeError(w, perr, http.StatusBadRequest)
			return
		}
		now := time.Now()
		records, err = h.decisions.GetRange(now.Add(-d), now)
	} else {
		limit := 50
		if l := r.URL.Query().Get("limit"); l != "" {
			if ln, err := strconv.Atoi(l); err == nil && ln > 0 && ln <= 500 {
				limit = ln
			}
		}
		records, err = h.decisions.GetRecent(limit)
	}
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []model.DecisionRecord{}
	}

	writeJSON(w, records)
}

// APIGetLatestDecision returns the newest journaled decision.
func (h *Handlers) APIGetLatestDecision(w http.ResponseWriter, r *http.Request) {
	latest, err := h.decisions.GetLatest()
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if latest == nil {
		writeError(w, errors.New("no decisions recorded"), http.StatusNotFound)
		return
	}

	writeJSON(w, latest)
}

// APIGetProbation returns access points currently on probation.
func (h *Handlers) APIGetProbation(w http.ResponseWriter, r *http.Request) {
	active, err := h.probation.GetActive(time.Now())
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if active == nil {
		active = []model.ProbationEntry{}
	}

	writeJSON(w, active)
}

type probationRequest struct {
	BSSID    string `json:"bssid"`
	Duration string `json:"duration,omitempty"`
}

// APIAddProbation puts an access point on probation.
func (h *Handlers) APIAddProbation(w http.ResponseWriter, r *http.Request) {
	var req probationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err, http.StatusBadRequest)
		return
	}
	if decision.NormalizeBSSID(req.BSSID) == "" {
		writeError(w, errors.New("bssid is required"), http.StatusBadRequest)
		return
	}

	duration := h.config.ProbationDuration
	if req.Duration != "" {
		d, err := time.ParseDuration(req.Duration)
		if err != nil || d <= 0 {
			writeError(w, errors.New("invalid duration"), http.StatusBadRequest)
			return
		}
		duration = d
	}

	entry := model.ProbationEntry{BSSID: strings.TrimSpace(req.BSSID), Expiry: time.Now().Add(duration)}
	if err := h.probation.Upsert(entry.BSSID, entry.Expiry, "manual"); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	h.notifyDaemon()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entry)
}

// APIDeleteProbation lifts probation for /api/probation/{bssid}.
func (h *Handlers) APIDeleteProbation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	bssid := strings.TrimPrefix(r.URL.Path, "/api/probation/")
	if decision.NormalizeBSSID(bssid) == "" {
		writeError(w, errors.New("bssid is required"), http.StatusBadRequest)
		return
	}

	removed, err := h.probation.Delete(bssid)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if !removed {
		writeError(w, errors.New("not on probation"), http.StatusNotFound)
		return
	}
	h.notifyDaemon()

	w.WriteHeader(http.StatusNoContent)
}

// APIGetSuggestions returns the active suggestion batch.
func (h *Handlers) APIGetSuggestions(w http.ResponseWriter, r *http.Request) {
	batch, err := h.suggestions.GetCurrent()
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if batch == nil {
		batch = []model.Suggestion{}
	}

	writeJSON(w, batch)
}

// APIGetSettings returns the switching preferences and derived thresholds.
func (h *Handlers) APIGetSettings(w http.ResponseWriter, r *http.Request) {
	s := h.settings()
	writeJSON(w, map[string]interface{}{
		"settings":             s,
		"switch_threshold_dbm": s.SwitchThresholdDbm(),
		"badge_threshold_dbm":  s.BadgeThresholdDbm(),
		"probation_duration":   h.config.ProbationDuration.String(),
		"notify_interval":      h.config.NotifyInterval.String(),
	})
}

// DownloadReport generates and downloads a report.
func (h *Handlers) DownloadReport(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-24 * time.Hour)

	gen := report.NewGenerator(h.db, h.config)
	opts := model.ReportOptions{
		Since:  since,
		Until:  time.Now(),
		Format: "markdown",
	}

	data, err := gen.Generate(opts)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	content := report.FormatMarkdown(data)

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=wifipilot_report.md")
	w.Write([]byte(content))
}

func (h *Handlers) notifyDaemon() {
	if h.reload == nil {
		return
	}
	if err := h.reload(h.config.DataDir); err != nil {
		// the daemon restores from storage on start
		util.Debug("Probation reload not delivered: %v", err)
	}
}

// dashboardData feeds dashboard.html.
type dashboardData struct {
	DaemonRunning bool
	UpdatedAt     string
	Current       *model.ConnectionState
	Online        bool
	LastDecision  *model.DecisionResult
	Recent        []model.DecisionRecord
	Probation     []model.ProbationEntry
	Suggestions   []model.Suggestion
	Settings      model.UserSettings
	Threshold     int
	Now           time.Time
}

func (h *Handlers) getDashboardData() dashboardData {
	settings := h.settings()
	data := dashboardData{
		Settings:  settings,
		Threshold: settings.SwitchThresholdDbm(),
		Online:    true,
		Now:       time.Now(),
	}

	data.DaemonRunning, _ = daemon.CheckRunning(h.config.DataDir)

	if sf, err := daemon.ReadStatusFile(h.config.DataDir); err == nil {
		data.Current = sf.Current
		data.LastDecision = sf.LastDecision
		data.UpdatedAt = sf.UpdatedAt.Format("2006-01-02 15:04:05")
		if sf.Liveness != nil {
			data.Online = sf.Liveness.Online
		}
	}

	if recent, err := h.decisions.GetRecent(20); err == nil {
		data.Recent = recent
	}
	if active, err := h.probation.GetActive(data.Now); err == nil {
		data.Probation = active
	}
	if batch, err := h.suggestions.GetCurrent(); err == nil {
		data.Suggestions = batch
	}

	return data
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
