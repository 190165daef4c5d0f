package web

import (
	"net/http"
	"sort"
	"time"

	"github.com/user/wifipilot/internal/model"
	"github.com/user/wifipilot/internal/report"
	"github.com/user/wifipilot/internal/storage"
)

// AnalyticsHandlers serves aggregate views of the decision journal.
type AnalyticsHandlers struct {
	decisions *storage.DecisionStorage
}

// NewAnalyticsHandlers creates analytics handlers.
func NewAnalyticsHandlers(db *storage.DB) *AnalyticsHandlers {
	return &AnalyticsHandlers{decisions: storage.NewDecisionStorage(db)}
}

// TopologyData is the roaming graph: access points and the moves between them.
type TopologyData struct {
	Nodes []TopologyNode `json:"nodes"`
	Edges []TopologyEdge `json:"edges"`
}

// TopologyNode is one access point.
type TopologyNode struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Type    string  `json:"type"` // "connected" or "candidate"
	AvgRSSI float64 `json:"avg_rssi"`
	Seen    int     `json:"seen"`
}

// TopologyEdge is a roam from Source to Target.
type TopologyEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// SignalPoint is the connection's signal at one decision.
type SignalPoint struct {
	Timestamp       time.Time `json:"timestamp"`
	BSSID           string    `json:"bssid"`
	RSSI            int       `json:"rssi"`
	CandidateSignal int       `json:"candidate_signal,omitempty"`
	HasInternet     bool      `json:"has_internet"`
}

func (h *AnalyticsHandlers) records(r *http.Request) ([]model.DecisionRecord, error) {
	until := time.Now()
	since := until.Add(-24 * time.Hour)
	if s := r.URL.Query().Get("since"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			since = until.Add(-d)
		}
	}
	return h.decisions.GetRange(since, until)
}

// GetTopology returns the roaming graph for charting.
func (h *AnalyticsHandlers) GetTopology(w http.ResponseWriter, r *http.Request) {
	records, err := h.records(r)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, buildTopology(records))
}

func buildTopology(records []model.DecisionRecord) TopologyData {
	nodeMap := make(map[string]*TopologyNode)

	see := func(bssid, ssid, typ string, rssi int) {
		if bssid == "" {
			return
		}
		node, ok := nodeMap[bssid]
		if !ok {
			node = &TopologyNode{ID: bssid, Label: ssid, Type: typ}
			nodeMap[bssid] = node
		}
		if typ == "connected" {
			node.Type = typ
		}
		node.Seen++
		node.AvgRSSI += (float64(rssi) - node.AvgRSSI) / float64(node.Seen)
	}

	for _, rec := range records {
		see(rec.CurrentBSSID, rec.CurrentSSID, "connected", rec.CurrentRSSI)
		see(rec.CandidateBSSID, rec.CandidateSSID, "candidate", rec.CandidateSignal)
	}

	edgeMap := make(map[string]*TopologyEdge)
	for _, t := range report.DetectTransitions(records) {
		id := t.FromBSSID + "->" + t.ToBSSID
		if edge, ok := edgeMap[id]; ok {
			edge.Weight++
			continue
		}
		edgeMap[id] = &TopologyEdge{Source: t.FromBSSID, Target: t.ToBSSID, Weight: 1}
	}

	data := TopologyData{Nodes: []TopologyNode{}, Edges: []TopologyEdge{}}
	for _, node := range nodeMap {
		data.Nodes = append(data.Nodes, *node)
	}
	for _, edge := range edgeMap {
		data.Edges = append(data.Edges, *edge)
	}

	// connected access points first, then by how often they were seen
	sort.Slice(data.Nodes, func(i, j int) bool {
		a, b := data.Nodes[i], data.Nodes[j]
		if a.Type != b.Type {
			return a.Type == "connected"
		}
		if a.Seen != b.Seen {
			return a.Seen > b.Seen
		}
		return a.ID < b.ID
	})
	sort.Slice(data.Edges, func(i, j int) bool {
		if data.Edges[i].Weight != data.Edges[j].Weight {
			return data.Edges[i].Weight > data.Edges[j].Weight
		}
		return data.Edges[i].Source+data.Edges[i].Target < data.Edges[j].Source+data.Edges[j].Target
	})

	return data
}

// GetSignalTrend returns the connection's signal over time.
func (h *AnalyticsHandlers) GetSignalTrend(w http.ResponseWriter, r *http.Request) {
	records, err := h.records(r)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	points := []SignalPoint{}
	for _, rec := range records {
		if rec.CurrentBSSID == "" {
			continue
		}
		points = append(points, SignalPoint{
			Timestamp:       rec.Timestamp,
			BSSID:           rec.CurrentBSSID,
			RSSI:            rec.CurrentRSSI,
			CandidateSignal: rec.CandidateSignal,
			HasInternet:     rec.HasInternet,
		})
	}
	writeJSON(w, points)
}

// MermaidDiagram returns the roaming flowchart as Mermaid text.
func (h *AnalyticsHandlers) MermaidDiagram(w http.ResponseWriter, r *http.Request) {
	records, err := h.records(r)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(report.GenerateRoamingFlow(report.DetectTransitions(records))))
}
