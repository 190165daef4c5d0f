package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/user/wifipilot/internal/storage"
	"github.com/user/wifipilot/internal/util"
)

const feedWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Feed streams each newly journaled decision to websocket clients.
type Feed struct {
	decisions *storage.DecisionStorage
	interval  time.Duration
}

// NewFeed creates a feed polling decisions every interval.
func NewFeed(decisions *storage.DecisionStorage, interval time.Duration) *Feed {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Feed{decisions: decisions, interval: interval}
}

// ServeHTTP upgrades the connection and pushes decisions until the client
// goes away.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		util.Debug("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// clients only talk to close; anything else is discarded
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	var lastID int64
	for {
		latest, err := f.decisions.GetLatest()
		if err != nil {
			util.Warn("websocket feed: %v", err)
		} else if latest != nil && latest.ID != lastID {
			lastID = latest.ID
			conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(latest); err != nil {
				return
			}
		}

		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
