package probes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleScan = `*:AA\:BB\:CC\:DD\:EE\:01:HomeNet:2412 MHz:64:WPA2
 :AA\:BB\:CC\:DD\:EE\:02:HomeNet-5G:5180 MHz:80:WPA2
 :AA\:BB\:CC\:DD\:EE\:03:Pixel_7:2437 MHz:90:WPA2
 :AA\:BB\:CC\:DD\:EE\:04:Cafe\:Guest:5745 MHz:40:
garbage line
 :AA\:BB\:CC\:DD\:EE\:05:Broken:n/a:50:WPA2
`

func TestSplitTerse(t *testing.T) {
	got := splitTerse(`*:AA\:BB:Name\:With\\Slash:2412 MHz`)
	want := []string{"*", "AA:BB", `Name:With\Slash`, "2412 MHz"}
	if len(got) != len(want) {
		t.Fatalf("splitTerse() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("field %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseScanOutput(t *testing.T) {
	networks := parseScanOutput(sampleScan)
	if len(networks) != 4 {
		t.Fatalf("parsed %d networks, want 4", len(networks))
	}

	home := networks[0]
	if !home.IsConnected || home.BSSID != "AA:BB:CC:DD:EE:01" || home.SignalLevel != -68 || home.FrequencyMHz != 2412 {
		t.Errorf("unexpected first network: %+v", home)
	}
	if !networks[1].Is5GHz() || networks[1].SignalLevel != -60 {
		t.Errorf("unexpected 5GHz network: %+v", networks[1])
	}
	if !networks[2].IsMetered {
		t.Error("phone hotspot SSID should be marked metered")
	}
	if networks[3].SSID != "Cafe:Guest" || networks[3].Capabilities != "" {
		t.Errorf("escaped SSID parsed as %+v", networks[3])
	}
}

func TestPercentToDbm(t *testing.T) {
	tests := map[int]int{0: -100, 50: -75, 100: -50, 120: -50, -5: -100}
	for in, want := range tests {
		if got := PercentToDbm(in); got != want {
			t.Errorf("PercentToDbm(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestParseMetered(t *testing.T) {
	tests := map[string]bool{
		"GENERAL.METERED:yes\n":           true,
		"GENERAL.METERED:yes (guessed)\n": true,
		"GENERAL.METERED:no (guessed)\n":  false,
		"":                                false,
	}
	for in, want := range tests {
		if got := parseMetered(in); got != want {
			t.Errorf("parseMetered(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLooksLikeHotspot(t *testing.T) {
	for _, ssid := range []string{"AndroidAP_1234", "John's iPhone", "DIRECT-xy-Printer", "Galaxy S21"} {
		if !LooksLikeHotspot(ssid) {
			t.Errorf("LooksLikeHotspot(%q) = false", ssid)
		}
	}
	for _, ssid := range []string{"HomeNet", "Office-5G", ""} {
		if LooksLikeHotspot(ssid) {
			t.Errorf("LooksLikeHotspot(%q) = true", ssid)
		}
	}
}

func TestWiFiProbeCurrent(t *testing.T) {
	p := NewWiFiProbe("wlan1")
	var calls []string
	p.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, strings.Join(args, " "))
		if args[len(args)-1] == "wlan1" && args[2] == "GENERAL.METERED" {
			return []byte("GENERAL.METERED:yes\n"), nil
		}
		return []byte(sampleScan), nil
	}

	cur, err := p.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error: %v", err)
	}
	if cur == nil || cur.SSID != "HomeNet" || cur.RSSI != -68 || !cur.IsMetered {
		t.Fatalf("Current() = %+v", cur)
	}
	if len(calls) != 2 || !strings.Contains(calls[0], "ifname wlan1") {
		t.Errorf("unexpected nmcli calls: %q", calls)
	}
}

func TestWiFiProbeNotAssociated(t *testing.T) {
	p := NewWiFiProbe("")
	p.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(" :AA\\:01:Other:2412 MHz:50:\n"), nil
	}
	cur, err := p.Current(context.Background())
	if err != nil || cur != nil {
		t.Fatalf("Current() = %+v, %v; want nil, nil", cur, err)
	}
}

func TestWiFiProbeError(t *testing.T) {
	p := NewWiFiProbe("wlan0")
	p.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("nmcli not found")
	}
	if _, err := p.Scan(context.Background()); err == nil {
		t.Error("Scan() should return error")
	}
	if err := p.RequestScan(context.Background()); err == nil {
		t.Error("RequestScan() should return error")
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.yaml")
	data := `current:
  bssid: AA
  ssid: Home
  rssi: -78
  frequency: 2412
  has_internet: true
networks:
  - bssid: AA
    ssid: Home
    level: -78
    frequency: 2412
  - bssid: BB
    ssid: Fast
    level: -60
    frequency: 5180
settings:
  min_signal_diff: 5
  five_ghz_priority: true
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path)
	cur, err := src.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error: %v", err)
	}
	if cur.BSSID != "AA" || cur.RSSI != -78 || !cur.HasInternet {
		t.Errorf("Current() = %+v", cur)
	}

	nets, err := src.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(nets) != 2 || !nets[0].IsConnected || nets[1].IsConnected {
		t.Errorf("Scan() = %+v", nets)
	}

	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Settings == nil || snap.Settings.MinSignalDiff != 5 || !snap.Settings.Is5GHzPriorityEnabled {
		t.Errorf("snapshot settings = %+v", snap.Settings)
	}
	if snap.Settings.Sensitivity != 50 || snap.Settings.FiveGHzThresholdDbm != -75 {
		t.Errorf("omitted settings should keep defaults, got %+v", snap.Settings)
	}
}

func TestParseSnapshotWithoutSettings(t *testing.T) {
	snap, err := ParseSnapshot([]byte("networks:\n  - {bssid: AA, ssid: Home, level: -70, frequency: 2412}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Settings != nil || snap.Current != nil || len(snap.Networks) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestFileSourceMissing(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := src.Current(context.Background()); err == nil {
		t.Error("expected error for missing snapshot")
	}
	if err := src.RequestScan(context.Background()); err != nil {
		t.Errorf("RequestScan() = %v", err)
	}
}
