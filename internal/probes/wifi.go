// Package probes provides radio observation for the decision loop.
package probes

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/user/wifipilot/internal/model"
)

// RadioSource supplies the current association and the visible access points.
// Implementations degrade to a nil connection or an empty list on failure
// and report the error for logging.
type RadioSource interface {
	Current(ctx context.Context) (*model.ConnectionState, error)
	Scan(ctx context.Context) ([]model.NetworkObservation, error)
	RequestScan(ctx context.Context) error
}

// scanFields is the nmcli field list used for scan output.
const scanFields = "IN-USE,BSSID,SSID,FREQ,SIGNAL,SECURITY"

// WiFiProbe reads radio state through NetworkManager's nmcli.
type WiFiProbe struct {
	iface   string
	timeout time.Duration
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewWiFiProbe creates a probe for the given interface.
func NewWiFiProbe(iface string) *WiFiProbe {
	if iface == "" {
		iface = "wlan0"
	}
	return &WiFiProbe{
		iface:   iface,
		timeout: 10 * time.Second,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// Scan returns the cached scan list for the interface.
func (p *WiFiProbe) Scan(ctx context.Context) ([]model.NetworkObservation, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	output, err := p.run(ctx, "nmcli", "-t", "-f", scanFields,
		"device", "wifi", "list", "ifname", p.iface, "--rescan", "no")
	if err != nil {
		return nil, fmt.Errorf("nmcli wifi list failed: %w", err)
	}
	return parseScanOutput(string(output)), nil
}

// Current returns the active association, or nil when the radio is not
// associated.
func (p *WiFiProbe) Current(ctx context.Context) (*model.ConnectionState, error) {
	scans, err := p.Scan(ctx)
	if err != nil {
		return nil, err
	}

	var active *model.NetworkObservation
	for i := range scans {
		if scans[i].IsConnected {
			active = &scans[i]
			break
		}
	}
	if active == nil {
		return nil, nil
	}

	state := &model.ConnectionState{
		BSSID:        active.BSSID,
		SSID:         active.SSID,
		RSSI:         active.SignalLevel,
		FrequencyMHz: active.FrequencyMHz,
		IsMetered:    active.IsMetered,
		// liveness is filled in by the monitor
		HasInternet: true,
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if out, err := p.run(ctx, "nmcli", "-t", "-f", "GENERAL.METERED", "device", "show", p.iface); err == nil {
		state.IsMetered = parseMetered(string(out)) || state.IsMetered
	}
	return state, nil
}

// RequestScan asks NetworkManager to refresh its scan list.
func (p *WiFiProbe) RequestScan(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if _, err := p.run(ctx, "nmcli", "device", "wifi", "rescan", "ifname", p.iface); err != nil {
		return fmt.Errorf("nmcli rescan failed: %w", err)
	}
	return nil
}

// parseScanOutput parses terse nmcli output in scanFields order.
// Lines that do not parse are skipped.
func parseScanOutput(output string) []model.NetworkObservation {
	var networks []model.NetworkObservation

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := splitTerse(scanner.Text())
		if len(fields) < 6 {
			continue
		}

		freq, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(fields[3], "MHz")))
		if err != nil {
			continue
		}
		percent, err := strconv.Atoi(strings.TrimSpace(fields[4]))
		if err != nil {
			continue
		}

		obs := model.NetworkObservation{
			IsConnected:  strings.TrimSpace(fields[0]) == "*",
			BSSID:        strings.TrimSpace(fields[1]),
			SSID:         fields[2],
			FrequencyMHz: freq,
			SignalLevel:  PercentToDbm(percent),
			Capabilities: fields[5],
		}
		obs.IsMetered = LooksLikeHotspot(obs.SSID)
		networks = append(networks, obs)
	}
	return networks
}

// splitTerse splits an nmcli -t line on unescaped colons.
func splitTerse(line string) []string {
	var fields []string
	var cur strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(fields, cur.String())
}

// parseMetered reads the GENERAL.METERED value ("yes", "no (guessed)", ...).
func parseMetered(output string) bool {
	for _, line := range strings.Split(output, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "GENERAL.METERED:"); ok {
			return strings.HasPrefix(strings.TrimSpace(v), "yes")
		}
	}
	return false
}

// PercentToDbm maps NetworkManager's 0-100 signal quality onto dBm.
func PercentToDbm(percent int) int {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return percent/2 - 100
}
