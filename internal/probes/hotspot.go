package probes

import "strings"

// hotspotMarkers are SSID fragments used by phone tethering defaults.
var hotspotMarkers = []string{
	"androidap",
	"iphone",
	"galaxy",
	"pixel",
	"redmi",
	"oneplus",
	"huawei",
	"hotspot",
	"direct-",
}

// LooksLikeHotspot guesses whether an access point is a mobile hotspot from
// its SSID. Scan results carry no metered flag, so this is the only signal.
func LooksLikeHotspot(ssid string) bool {
	s := strings.ToLower(ssid)
	for _, m := range hotspotMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
