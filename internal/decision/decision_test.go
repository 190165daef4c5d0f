package decision

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/user/wifipilot/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		signal  int
		metered bool
		five    bool
		want    int
	}{
		{"strong fixed 2.4", -50, false, false, 190},
		{"strong fixed 5", -50, false, true, 220},
		{"clamped high", -20, false, false, 190},
		{"clamped low", -150, false, false, 100},
		{"metered 2.4", -70, true, false, 120},
		{"metered 5", -70, true, true, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.signal, tt.metered, tt.five); got != tt.want {
				t.Errorf("Score(%d, %v, %v) = %d, want %d", tt.signal, tt.metered, tt.five, got, tt.want)
			}
		})
	}
}

func TestScoreOrdering(t *testing.T) {
	for _, m := range []bool{false, true} {
		for _, b := range []bool{false, true} {
			prev := Score(-140, m, b)
			for x := -139; x <= -30; x++ {
				cur := Score(x, m, b)
				if cur < prev {
					t.Fatalf("Score not monotonic at %d (metered=%v, 5GHz=%v)", x, m, b)
				}
				prev = cur
			}
		}
	}
	for x := -140; x <= -30; x++ {
		for _, b := range []bool{false, true} {
			if Score(x, false, b) <= Score(x, true, b) {
				t.Fatalf("fixed should beat metered at %d", x)
			}
		}
		for _, m := range []bool{false, true} {
			if Score(x, m, true) <= Score(x, m, false) {
				t.Fatalf("5GHz should beat 2.4GHz at %d", x)
			}
		}
	}
}

func TestShouldSwitch(t *testing.T) {
	tests := []struct {
		name        string
		cur         int
		curMetered  bool
		cand        int
		candMetered bool
		trigger     int
		want        bool
	}{
		{"hotspot weaker", -60, false, -70, true, 5, false},
		{"hotspot 20 dB stronger", -60, false, -40, true, 5, true},
		{"hotspot exactly 15 dB", -60, false, -45, true, 5, false},
		{"fixed upgrade usable", -85, true, -75, false, 5, true},
		{"fixed upgrade too weak", -85, true, -82, false, 5, false},
		{"fixed upgrade at floor", -85, true, -80, false, 5, false},
		{"roaming weaker", -70, false, -74, false, 5, false},
		{"roaming 6 dB", -70, false, -64, false, 5, true},
		{"roaming at boundary", -70, false, -65, false, 5, false},
		{"roaming below", -70, false, -75, false, 5, false},
		{"both metered", -70, true, -60, true, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldSwitch(tt.cur, tt.curMetered, tt.cand, tt.candMetered, tt.trigger)
			if got != tt.want {
				t.Errorf("ShouldSwitch(%d, %v, %d, %v, %d) = %v, want %v",
					tt.cur, tt.curMetered, tt.cand, tt.candMetered, tt.trigger, got, tt.want)
			}
		})
	}
}

func TestShouldSwitchIrreflexive(t *testing.T) {
	for r := -100; r <= -30; r++ {
		for _, m := range []bool{false, true} {
			for trig := 0; trig <= 20; trig++ {
				if ShouldSwitch(r, m, r, m, trig) {
					t.Fatalf("ShouldSwitch(%d, %v, %d, %v, %d) = true", r, m, r, m, trig)
				}
			}
		}
	}
}

func TestShouldSwitchMonotonic(t *testing.T) {
	for _, curM := range []bool{false, true} {
		for _, candM := range []bool{false, true} {
			switched := false
			for cand := -100; cand <= -30; cand++ {
				got := ShouldSwitch(-70, curM, cand, candM, 5)
				if switched && !got {
					t.Fatalf("not monotonic at cand=%d (cur metered=%v, cand metered=%v)", cand, curM, candM)
				}
				switched = got
			}
		}
	}
}

func TestRequiredMargin(t *testing.T) {
	settings := model.DefaultSettings()
	cur24 := &model.ConnectionState{BSSID: "A", RSSI: -70, FrequencyMHz: 2412}
	cur5 := &model.ConnectionState{BSSID: "A", RSSI: -70, FrequencyMHz: 5180}

	tests := []struct {
		name     string
		current  *model.ConnectionState
		cand     model.NetworkObservation
		settings model.UserSettings
		want     int
	}{
		{"same band", cur24, model.NetworkObservation{SignalLevel: -60, FrequencyMHz: 2437}, settings, 5},
		{"downgrade penalty", cur5, model.NetworkObservation{SignalLevel: -60, FrequencyMHz: 2437}, settings, 20},
		{"upgrade bonus", cur24, model.NetworkObservation{SignalLevel: -72, FrequencyMHz: 5180}, settings, UpgradeMarginDb},
		{"upgrade below floor", cur24, model.NetworkObservation{SignalLevel: -76, FrequencyMHz: 5180}, settings, 5},
		{"upgrade at floor", cur24, model.NetworkObservation{SignalLevel: -75, FrequencyMHz: 5180}, settings, UpgradeMarginDb},
		{"upgrade disabled", cur24, model.NetworkObservation{SignalLevel: -60, FrequencyMHz: 5180},
			model.UserSettings{MinSignalDiff: 5, FiveGHzThresholdDbm: -75}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequiredMargin(tt.current, tt.cand, tt.settings); got != tt.want {
				t.Errorf("RequiredMargin() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOutranks(t *testing.T) {
	five := model.NetworkObservation{SignalLevel: -70, FrequencyMHz: 5180}
	strong24 := model.NetworkObservation{SignalLevel: -40, FrequencyMHz: 2412}
	weak24 := model.NetworkObservation{SignalLevel: -60, FrequencyMHz: 2412}
	metered24 := model.NetworkObservation{SignalLevel: -40, FrequencyMHz: 2412, IsMetered: true}

	if !Outranks(five, strong24) {
		t.Error("5GHz should outrank stronger 2.4GHz")
	}
	if Outranks(strong24, five) {
		t.Error("2.4GHz should not outrank 5GHz")
	}
	if !Outranks(strong24, weak24) {
		t.Error("higher signal should win within a band")
	}
	if !Outranks(strong24, metered24) || Outranks(metered24, strong24) {
		t.Error("equal signal should fall back to score")
	}
}

func TestNormalizeBSSID(t *testing.T) {
	tests := map[string]string{
		"aa:bb:cc:dd:ee:ff":   "AABBCCDDEEFF",
		" AA-BB-CC-DD-EE-FF ": "AABBCCDDEEFF",
		"AaBbCcDdEeFf":        "AABBCCDDEEFF",
		"":                    "",
	}
	for in, want := range tests {
		if got := NormalizeBSSID(in); got != want {
			t.Errorf("NormalizeBSSID(%q) = %q, want %q", in, got, want)
		}
	}
	if SameBSSID("", "") {
		t.Error("empty BSSIDs must not compare equal")
	}
}

func TestNormalizeSSID(t *testing.T) {
	tests := map[string]string{
		`"HomeNet"`:    "HomeNet",
		"HomeNet-5G":   "HomeNet",
		"HomeNet_5GHz": "HomeNet",
		"HomeNet 2.4G": "HomeNet",
		"HomeNet_EXT":  "HomeNet",
		"Office-lte":   "Office",
		"CoffeeShop":   "CoffeeShop",
	}
	for in, want := range tests {
		if got := NormalizeSSID(in); got != want {
			t.Errorf("NormalizeSSID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProbationRoundTrip(t *testing.T) {
	clock := newFakeClock()
	store := NewProbationStore(clock, 0)

	store.Add("AA:BB")
	if !store.IsUnderProbation("AA:BB") {
		t.Fatal("expected AA:BB under probation right after Add")
	}
	if !store.IsUnderProbation("aabb") {
		t.Error("lookup should normalize BSSID")
	}

	clock.Advance(5*time.Minute + time.Second)

	if store.IsUnderProbation("AA:BB") {
		t.Fatal("expected probation to expire after 5 minutes")
	}
	if _, ok := store.ListActive()["AA:BB"]; ok {
		t.Error("expired entry still listed after lookup purge")
	}
}

func TestProbationExactExpiry(t *testing.T) {
	clock := newFakeClock()
	store := NewProbationStore(clock, time.Minute)
	store.Add("X")
	clock.Advance(time.Minute)
	if store.IsUnderProbation("X") {
		t.Error("entry with expiry == now must be absent")
	}
}

func TestProbationListDoesNotPurge(t *testing.T) {
	clock := newFakeClock()
	store := NewProbationStore(clock, time.Minute)
	expiry := store.Add("aa:bb:cc")
	clock.Advance(2 * time.Minute)

	list := store.ListActive()
	if got, ok := list["aa:bb:cc"]; !ok || !got.Equal(expiry) {
		t.Fatalf("ListActive() = %v, want expired entry keyed by original BSSID", list)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d after listing, want 1", store.Len())
	}
	store.IsUnderProbation("AABBCC")
	if store.Len() != 0 {
		t.Errorf("Len() = %d after lookup, want 0", store.Len())
	}
}

func TestProbationOverwriteAndRemove(t *testing.T) {
	clock := newFakeClock()
	store := NewProbationStore(clock, time.Minute)
	first := store.Add("AA")
	clock.Advance(30 * time.Second)
	second := store.Add("aa")
	if !second.After(first) {
		t.Error("Add should overwrite with a later expiry")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
	if !store.Remove("AA") {
		t.Error("Remove should report existing entry")
	}
	if store.Remove("AA") {
		t.Error("Remove should report missing entry")
	}
}

func TestProbationRestore(t *testing.T) {
	clock := newFakeClock()
	store := NewProbationStore(clock, time.Minute)
	store.Add("OLD")
	store.Restore([]model.ProbationEntry{
		{BSSID: "live", Expiry: clock.Now().Add(time.Minute)},
		{BSSID: "dead", Expiry: clock.Now().Add(-time.Minute)},
	})
	if store.IsUnderProbation("OLD") {
		t.Error("Restore should replace existing entries")
	}
	if !store.IsUnderProbation("LIVE") {
		t.Error("unexpired entry should be restored")
	}
	if _, ok := store.ListActive()["dead"]; ok {
		t.Error("expired entry should be skipped on restore")
	}
}

func TestShouldNotifyNow(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		last time.Time
		now  time.Time
		want bool
	}{
		{"never notified", time.Time{}, base, true},
		{"inside window", base, base.Add(14 * time.Second), false},
		{"exactly at interval", base, base.Add(15 * time.Second), true},
		{"after interval", base, base.Add(time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldNotifyNow(tt.last, tt.now, DefaultNotifyInterval); got != tt.want {
				t.Errorf("ShouldNotifyNow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestThrottleAllow(t *testing.T) {
	clock := newFakeClock()
	th := NewThrottle(clock, 0)

	if !th.Allow() {
		t.Fatal("first Allow should pass")
	}
	clock.Advance(5 * time.Second)
	if th.Allow() {
		t.Fatal("Allow inside window should be suppressed")
	}
	clock.Advance(10 * time.Second)
	if !th.Allow() {
		t.Fatal("Allow after window should pass")
	}
	if !th.Last().Equal(clock.Now()) {
		t.Error("Last should record the allowed time")
	}
}

func TestSelectorEndToEnd(t *testing.T) {
	sel := NewSelector(NewProbationStore(nil, 0), nil)
	current := &model.ConnectionState{BSSID: "AA", RSSI: -78, FrequencyMHz: 2412}
	scans := []model.NetworkObservation{
		{SSID: "Fast", BSSID: "BB", SignalLevel: -60, FrequencyMHz: 5180},
		{SSID: "Phone", BSSID: "CC", SignalLevel: -50, FrequencyMHz: 2437, IsMetered: true},
	}
	settings := model.DefaultSettings()
	settings.MinSignalDiff = 5

	res := sel.Evaluate(current, scans, settings)
	if res.BestCandidate == nil || res.BestCandidate.BSSID != "BB" {
		t.Fatalf("BestCandidate = %+v, want BB", res.BestCandidate)
	}
	if res.Reason != "Better 5G Found: Fast" {
		t.Errorf("Reason = %q", res.Reason)
	}
	if res.CycleID == "" {
		t.Error("CycleID should be set")
	}

	settings.IsHotspotSwitchingEnabled = true
	res = sel.Evaluate(current, scans, settings)
	if res.BestCandidate == nil || res.BestCandidate.BSSID != "BB" {
		t.Fatalf("with hotspots enabled BestCandidate = %+v, want BB", res.BestCandidate)
	}
}

func TestSelectorHotspotSwitching(t *testing.T) {
	sel := NewSelector(NewProbationStore(nil, 0), nil)
	current := &model.ConnectionState{BSSID: "AA", RSSI: -75, FrequencyMHz: 2412}
	strong := model.NetworkObservation{SSID: "Phone", BSSID: "CC", SignalLevel: -55, FrequencyMHz: 2437, IsMetered: true}
	weak := model.NetworkObservation{SSID: "Tablet", BSSID: "DD", SignalLevel: -62, FrequencyMHz: 2437, IsMetered: true}

	tests := []struct {
		name    string
		enabled bool
		scans   []model.NetworkObservation
		want    string
	}{
		{"disabled ignores metered", false, []model.NetworkObservation{strong}, ""},
		{"enabled takes metered", true, []model.NetworkObservation{strong}, "CC"},
		{"enabled still needs the hotspot penalty", true, []model.NetworkObservation{weak}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := model.DefaultSettings()
			settings.IsHotspotSwitchingEnabled = tt.enabled

			res := sel.Evaluate(current, tt.scans, settings)
			got := ""
			if res.BestCandidate != nil {
				got = res.BestCandidate.BSSID
			}
			if got != tt.want {
				t.Errorf("BestCandidate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectorExcludesSelf(t *testing.T) {
	sel := NewSelector(nil, nil)
	current := &model.ConnectionState{BSSID: "aa:bb:cc:dd:ee:ff", RSSI: -85, FrequencyMHz: 2412}
	scans := []model.NetworkObservation{
		{SSID: "Home", BSSID: "AA-BB-CC-DD-EE-FF", SignalLevel: -40, FrequencyMHz: 5180},
		{SSID: "Home", BSSID: "AABBCCDDEEFF", SignalLevel: -40, FrequencyMHz: 2412},
	}
	res := sel.Evaluate(current, scans, model.DefaultSettings())
	if res.BestCandidate != nil {
		t.Fatalf("BestCandidate = %+v, want nil", res.BestCandidate)
	}
	if len(res.BatchSuggestions) != 2 {
		t.Errorf("batch size = %d, want 2 (batch is not gated by self exclusion)", len(res.BatchSuggestions))
	}
}

func TestSelectorSkipsProbated(t *testing.T) {
	store := NewProbationStore(nil, 0)
	store.Add("bb")
	sel := NewSelector(store, nil)
	current := &model.ConnectionState{BSSID: "AA", RSSI: -80, FrequencyMHz: 2412}
	scans := []model.NetworkObservation{
		{SSID: "Zombie", BSSID: "BB", SignalLevel: -40, FrequencyMHz: 5180},
		{SSID: "Ok", BSSID: "CC", SignalLevel: -60, FrequencyMHz: 2437},
	}
	res := sel.Evaluate(current, scans, model.DefaultSettings())
	if res.BestCandidate == nil || res.BestCandidate.BSSID != "CC" {
		t.Fatalf("BestCandidate = %+v, want CC", res.BestCandidate)
	}
	if res.Reason != "Stronger Signal Found: Ok" {
		t.Errorf("Reason = %q", res.Reason)
	}
	found := false
	for _, o := range res.BatchSuggestions {
		if o.BSSID == "BB" {
			found = true
		}
	}
	if !found {
		t.Error("probated AP should still be in the suggestion batch")
	}
}

func TestSelectorShortCircuits(t *testing.T) {
	sel := NewSelector(nil, nil)
	current := &model.ConnectionState{BSSID: "AA", RSSI: -90, FrequencyMHz: 2412}
	scans := []model.NetworkObservation{
		{SSID: "Great", BSSID: "BB", SignalLevel: -30, FrequencyMHz: 5180},
	}

	gaming := model.DefaultSettings()
	gaming.IsGamingMode = true
	paused := model.DefaultSettings()
	paused.IsPaused = true

	tests := []struct {
		name     string
		current  *model.ConnectionState
		settings model.UserSettings
		reason   string
	}{
		{"gaming", current, gaming, ReasonGamingMode},
		{"paused", current, paused, ReasonPaused},
		{"no connection", nil, model.DefaultSettings(), ReasonNoConnection},
		{"empty bssid", &model.ConnectionState{RSSI: -90}, model.DefaultSettings(), ReasonNoConnection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := sel.Evaluate(tt.current, scans, tt.settings)
			if !res.IsEmpty() || !res.Skipped {
				t.Errorf("result = %+v, want empty skipped result", res)
			}
			if res.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", res.Reason, tt.reason)
			}
		})
	}
}

func TestSelectorMalformedAndReasons(t *testing.T) {
	sel := NewSelector(nil, nil)
	settings := model.DefaultSettings() // switch threshold -65

	weak := &model.ConnectionState{BSSID: "AA", RSSI: -70, FrequencyMHz: 2412}
	res := sel.Evaluate(weak, []model.NetworkObservation{
		{SSID: "bad", BSSID: "  ", SignalLevel: -30, FrequencyMHz: 5180},
		{SSID: "meh", BSSID: "DD", SignalLevel: -72, FrequencyMHz: 2437},
	}, settings)
	if res.BestCandidate != nil {
		t.Fatalf("BestCandidate = %+v, want nil", res.BestCandidate)
	}
	if len(res.BatchSuggestions) != 0 {
		t.Errorf("batch = %+v, want empty", res.BatchSuggestions)
	}
	if !res.PoorSignal || !strings.HasPrefix(res.Reason, "Signal Weak (-70 < -65)") {
		t.Errorf("Reason = %q, PoorSignal = %v", res.Reason, res.PoorSignal)
	}
	if !res.BadgeWarning {
		t.Error("BadgeWarning should be set below badge threshold")
	}

	strong := &model.ConnectionState{BSSID: "AA", RSSI: -50, FrequencyMHz: 5180}
	res = sel.Evaluate(strong, nil, settings)
	if res.Reason != "Signal Optimal (-50 dBm)" || res.PoorSignal || res.BadgeWarning {
		t.Errorf("result = %+v", res)
	}
}

func TestSelectorPrefersFiveGHz(t *testing.T) {
	sel := NewSelector(nil, nil)
	current := &model.ConnectionState{BSSID: "AA", RSSI: -85, FrequencyMHz: 2412}
	scans := []model.NetworkObservation{
		{SSID: "Strong24", BSSID: "B1", SignalLevel: -45, FrequencyMHz: 2437},
		{SSID: "Weak5", BSSID: "B2", SignalLevel: -70, FrequencyMHz: 5180},
		{SSID: "Better5", BSSID: "B3", SignalLevel: -65, FrequencyMHz: 5240},
	}
	res := sel.Evaluate(current, scans, model.DefaultSettings())
	if res.BestCandidate == nil || res.BestCandidate.BSSID != "B3" {
		t.Fatalf("BestCandidate = %+v, want B3", res.BestCandidate)
	}
}

func TestSelectorConcurrent(t *testing.T) {
	store := NewProbationStore(nil, 0)
	sel := NewSelector(store, nil)
	current := &model.ConnectionState{BSSID: "AA", RSSI: -80, FrequencyMHz: 2412}
	scans := []model.NetworkObservation{
		{SSID: "x", BSSID: "BB", SignalLevel: -50, FrequencyMHz: 5180},
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sel.Evaluate(current, scans, model.DefaultSettings())
		}()
		go func() {
			defer wg.Done()
			store.Add("CC")
			store.ListActive()
		}()
	}
	wg.Wait()
}
