package decision

import (
	"regexp"
	"strings"
)

var bandSuffix = regexp.MustCompile(`(?i)[-_ ]?(5g|5ghz|2\.4g|2\.4ghz|ext|lte)\b`)

// NormalizeBSSID strips separators and upper-cases a BSSID so OS strings of
// varying format compare equal.
func NormalizeBSSID(bssid string) string {
	s := strings.TrimSpace(bssid)
	s = strings.ReplaceAll(s, ":", "")
	s = strings.ReplaceAll(s, "-", "")
	return strings.ToUpper(s)
}

// SameBSSID compares two BSSIDs after normalization.
func SameBSSID(a, b string) bool {
	na := NormalizeBSSID(a)
	return na != "" && na == NormalizeBSSID(b)
}

// NormalizeSSID strips quotes and band or extender suffixes so both radios of
// a dual-band router group under one name.
func NormalizeSSID(ssid string) string {
	s := strings.Trim(strings.TrimSpace(ssid), `"`)
	s = bandSuffix.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
