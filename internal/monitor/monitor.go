// Package monitor checks whether the current connection actually reaches the
// internet.
package monitor

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/user/wifipilot/internal/model"
)

// ZombieRSSIFloor is the signal above which a dead link counts as a zombie
// worth probating. Weaker links are more likely just out of range.
const ZombieRSSIFloor = -60

// LivenessResult is the outcome of one check.
type LivenessResult struct {
	Online    bool          `json:"online"`
	Method    string        `json:"method"`
	Latency   time.Duration `json:"latency"`
	CheckedAt time.Time     `json:"checked_at"`
	Err       string        `json:"error,omitempty"`
}

// Checker probes internet reachability with an HTTP 204 endpoint and falls
// back to a UDP DNS lookup.
type Checker struct {
	url      string
	resolver string
	timeout  time.Duration
	client   *http.Client
}

// NewChecker creates a checker. An empty resolver disables the DNS fallback.
func NewChecker(url, resolver string, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Checker{
		url:      url,
		resolver: resolver,
		timeout:  timeout,
		client: &http.Client{
			Timeout: timeout,
			// a captive portal answers with a redirect, which must not count as online
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Check runs the probes in order and returns the first success, or the last
// failure.
func (c *Checker) Check(ctx context.Context) LivenessResult {
	res := LivenessResult{CheckedAt: time.Now()}

	var httpErr error
	if c.url != "" {
		lat, err := c.measureHTTP(ctx)
		if err == nil {
			res.Online = true
			res.Method = "http"
			res.Latency = lat
			return res
		}
		httpErr = err
	}

	if c.resolver != "" {
		lat, _, err := MeasureUDP(ctx, c.resolver, c.timeout)
		if err == nil {
			res.Online = true
			res.Method = "dns"
			res.Latency = lat
			return res
		}
		res.Err = err.Error()
		res.Method = "dns"
		return res
	}

	if httpErr != nil {
		res.Err = httpErr.Error()
		res.Method = "http"
	}
	return res
}

func (c *Checker) measureHTTP(ctx context.Context) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return 0, fmt.Errorf("bad status: %d", resp.StatusCode)
	}
	return time.Since(start), nil
}

// MeasureUDP resolves a well-known name through resolverIP over UDP 53 and
// returns latency and the first address.
func MeasureUDP(ctx context.Context, resolverIP string, timeout time.Duration) (time.Duration, string, error) {
	resolverAddr := net.JoinHostPort(resolverIP, "53")
	start := time.Now()

	r := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			d := net.Dialer{Timeout: timeout}
			return d.DialContext(ctx, "udp", resolverAddr)
		},
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ips, err := r.LookupHost(ctx, "google.com")
	if err != nil {
		return 0, "", err
	}

	resolvedIP := ""
	if len(ips) > 0 {
		resolvedIP = ips[0]
	}
	return time.Since(start), resolvedIP, nil
}

// IsZombie reports whether a connection is radio-associated with no internet.
func IsZombie(state *model.ConnectionState) bool {
	return state != nil && state.BSSID != "" && !state.HasInternet
}

// ShouldProbate reports whether a zombie link is strong enough that staying
// on it is a mistake rather than a coverage problem.
func ShouldProbate(state *model.ConnectionState) bool {
	return IsZombie(state) && state.RSSI > ZombieRSSIFloor
}
