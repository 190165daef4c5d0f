package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/user/wifipilot/internal/decision"
	"github.com/user/wifipilot/internal/metrics"
	"github.com/user/wifipilot/internal/model"
	"github.com/user/wifipilot/internal/util"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeNotifier struct {
	name   string
	err    error
	events []Event
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Notify(ctx context.Context, ev Event) error {
	f.events = append(f.events, ev)
	return f.err
}

func TestEventFromDecision(t *testing.T) {
	current := &model.ConnectionState{BSSID: "AA", SSID: "Home", RSSI: -80}
	best := &model.NetworkObservation{SSID: "Fast", BSSID: "BB", SignalLevel: -60, FrequencyMHz: 5180}

	ev, ok := EventFromDecision(model.DecisionResult{BestCandidate: best, Reason: "Better 5G Found: Fast", CycleID: "c1"}, current)
	if !ok || ev.Title != "Better network available" || !strings.Contains(ev.Message, "-60 dBm, 5GHz") {
		t.Errorf("switch event = %+v, %v", ev, ok)
	}

	ev, ok = EventFromDecision(model.DecisionResult{BadgeWarning: true, Reason: "Signal Weak"}, current)
	if !ok || !ev.Warning {
		t.Errorf("warning event = %+v, %v", ev, ok)
	}

	if _, ok := EventFromDecision(model.DecisionResult{Reason: "Signal Optimal (-50 dBm)"}, current); ok {
		t.Error("optimal signal should not notify")
	}
	if _, ok := EventFromDecision(model.DecisionResult{Skipped: true, BadgeWarning: true}, current); ok {
		t.Error("skipped cycle should not notify")
	}
}

func TestDispatcherThrottles(t *testing.T) {
	clock := &stepClock{now: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	reg := prometheus.NewRegistry()
	m, err := metrics.NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	n := &fakeNotifier{name: "fake"}
	d := NewDispatcher(decision.NewThrottle(clock, 15*time.Second), m, n)

	ev := Event{Title: "t", Message: "m"}
	if !d.Dispatch(context.Background(), ev) {
		t.Fatal("first dispatch should deliver")
	}
	clock.Advance(10 * time.Second)
	if d.Dispatch(context.Background(), ev) {
		t.Fatal("dispatch inside window should be suppressed")
	}
	clock.Advance(5 * time.Second)
	if !d.Dispatch(context.Background(), ev) {
		t.Fatal("dispatch after window should deliver")
	}

	if len(n.events) != 2 {
		t.Errorf("notifier received %d events, want 2", len(n.events))
	}
	if got := testutil.ToFloat64(m.Notifications.WithLabelValues("fake", metrics.NotifySuppressed)); got != 1 {
		t.Errorf("suppressed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Notifications.WithLabelValues("fake", metrics.NotifySent)); got != 2 {
		t.Errorf("sent = %v, want 2", got)
	}
}

func TestDispatcherFailureDoesNotBlockOthers(t *testing.T) {
	failing := &fakeNotifier{name: "bad", err: errors.New("boom")}
	ok := &fakeNotifier{name: "good"}
	d := NewDispatcher(nil, nil, failing, ok)

	if !d.Dispatch(context.Background(), Event{Title: "x"}) {
		t.Fatal("dispatch should report delivery through the healthy notifier")
	}
	if len(ok.events) != 1 || len(failing.events) != 1 {
		t.Error("both notifiers should be attempted")
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(util.NewLoggerWithWriter(util.LevelInfo, &buf))

	if err := n.Notify(context.Background(), Event{Title: "Weak WiFi signal", Message: "Signal Weak", Warning: true}); err != nil {
		t.Fatal(err)
	}
	if err := n.Notify(context.Background(), Event{Title: "Better network available", Message: "Fast"}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "WARN: Weak WiFi signal: Signal Weak") {
		t.Errorf("missing warning line in %q", out)
	}
	if !strings.Contains(out, "INFO: Better network available: Fast") {
		t.Errorf("missing info line in %q", out)
	}
}

type fakeSession struct {
	channel string
	embed   *discordgo.MessageEmbed
	err     error
}

func (f *fakeSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel = channelID
	f.embed = embed
	return &discordgo.Message{}, f.err
}

func TestDiscordNotifierDisabled(t *testing.T) {
	for _, tc := range []struct{ token, channel string }{{"", "123"}, {"tok", ""}} {
		d, err := NewDiscordNotifier(tc.token, tc.channel)
		if err != nil {
			t.Fatalf("NewDiscordNotifier: %v", err)
		}
		if d.Enabled() {
			t.Error("notifier should be disabled")
		}
		if err := d.Notify(context.Background(), Event{}); err == nil {
			t.Error("disabled notifier should return error")
		}
	}
}

func TestDiscordNotifierSendsEmbed(t *testing.T) {
	sess := &fakeSession{}
	d := &DiscordNotifier{session: sess, channelID: "chan", enabled: true}

	ev := Event{
		Title:      "Better network available",
		Message:    "Better 5G Found: Fast",
		Current:    &model.ConnectionState{SSID: "Home", RSSI: -80},
		Candidate:  &model.NetworkObservation{SSID: "Fast", SignalLevel: -60, FrequencyMHz: 5180},
		DecisionID: "abc",
	}
	if err := d.Notify(context.Background(), ev); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if sess.channel != "chan" || sess.embed == nil {
		t.Fatal("embed not sent to channel")
	}
	if len(sess.embed.Fields) != 2 || sess.embed.Color != colorSwitch || sess.embed.Footer.Text != "Decision abc" {
		t.Errorf("unexpected embed: %+v", sess.embed)
	}

	sess.err = errors.New("rate limited")
	if err := d.Notify(context.Background(), ev); err == nil {
		t.Error("expected send error")
	}
}
