package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/user/wifipilot/internal/model"
)

func TestCheckerOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	res := NewChecker(srv.URL, "", time.Second).Check(context.Background())
	if !res.Online || res.Method != "http" {
		t.Errorf("Check() = %+v, want online via http", res)
	}
}

func TestCheckerCaptivePortal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://portal.example/login", http.StatusFound)
	}))
	defer srv.Close()

	res := NewChecker(srv.URL, "", time.Second).Check(context.Background())
	if res.Online {
		t.Errorf("Check() = %+v, redirect must not count as online", res)
	}
	if res.Err == "" {
		t.Error("expected error detail")
	}
}

func TestCheckerBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := NewChecker(srv.URL, "", time.Second).Check(context.Background())
	if res.Online {
		t.Errorf("Check() = %+v, want offline", res)
	}
}

func TestCheckerNoProbes(t *testing.T) {
	res := NewChecker("", "", 0).Check(context.Background())
	if res.Online {
		t.Error("checker without probes must report offline")
	}
}

func TestZombie(t *testing.T) {
	tests := []struct {
		name    string
		state   *model.ConnectionState
		zombie  bool
		probate bool
	}{
		{"nil", nil, false, false},
		{"online", &model.ConnectionState{BSSID: "AA", RSSI: -50, HasInternet: true}, false, false},
		{"strong dead", &model.ConnectionState{BSSID: "AA", RSSI: -50}, true, true},
		{"weak dead", &model.ConnectionState{BSSID: "AA", RSSI: -70}, true, false},
		{"boundary", &model.ConnectionState{BSSID: "AA", RSSI: -60}, true, false},
		{"no bssid", &model.ConnectionState{RSSI: -40}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsZombie(tt.state); got != tt.zombie {
				t.Errorf("IsZombie() = %v, want %v", got, tt.zombie)
			}
			if got := ShouldProbate(tt.state); got != tt.probate {
				t.Errorf("ShouldProbate() = %v, want %v", got, tt.probate)
			}
		})
	}
}
