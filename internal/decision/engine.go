package decision

import "github.com/user/wifipilot/internal/model"

const (
	// HotspotPenaltyDb is the margin a metered candidate needs over fixed WiFi.
	HotspotPenaltyDb = 15
	// FixedAcceptDbm is the weakest fixed signal that beats a metered connection.
	FixedAcceptDbm = -80
	// UpgradeMarginDb replaces the roaming trigger for 2.4 -> 5 GHz moves.
	UpgradeMarginDb = -5
	// DowngradePenaltyDb is added to the roaming trigger for 5 -> 2.4 GHz moves.
	DowngradePenaltyDb = 15
)

// ShouldSwitch is the pairwise switch rule. The first matching rule wins:
// fixed to metered needs a HotspotPenaltyDb win, metered to fixed needs a
// usable fixed signal, same category needs more than roamingTriggerDb.
func ShouldSwitch(currentRssi int, currentIsMetered bool, candidateRssi int, candidateIsMetered bool, roamingTriggerDb int) bool {
	switch {
	case !currentIsMetered && candidateIsMetered:
		return candidateRssi > currentRssi+HotspotPenaltyDb
	case currentIsMetered && !candidateIsMetered:
		return candidateRssi > FixedAcceptDbm
	default:
		return candidateRssi > currentRssi+roamingTriggerDb
	}
}

// RequiredMargin returns the effective roaming trigger for a candidate given
// the band of the current connection.
func RequiredMargin(current *model.ConnectionState, candidate model.NetworkObservation, settings model.UserSettings) int {
	margin := settings.MinSignalDiff

	cur5 := current.Is5GHz()
	cand5 := candidate.Is5GHz()

	switch {
	case cur5 && !cand5:
		margin += DowngradePenaltyDb
	case !cur5 && cand5 && settings.Is5GHzPriorityEnabled:
		if candidate.SignalLevel >= settings.FiveGHzThresholdDbm {
			margin = UpgradeMarginDb
		}
	}
	return margin
}

// Qualifies runs the band-aware pass for one candidate against the current
// connection.
func Qualifies(current *model.ConnectionState, candidate model.NetworkObservation, settings model.UserSettings) bool {
	if candidate.IsMetered && !settings.IsHotspotSwitchingEnabled {
		return false
	}
	margin := RequiredMargin(current, candidate, settings)
	return ShouldSwitch(current.RSSI, current.IsMetered, candidate.SignalLevel, candidate.IsMetered, margin)
}

// Outranks reports whether a should be preferred over b. 5 GHz beats
// 2.4 GHz, then higher signal wins, then higher score.
func Outranks(a, b model.NetworkObservation) bool {
	if a.Is5GHz() != b.Is5GHz() {
		return a.Is5GHz()
	}
	if a.SignalLevel != b.SignalLevel {
		return a.SignalLevel > b.SignalLevel
	}
	return Score(a.SignalLevel, a.IsMetered, a.Is5GHz()) > Score(b.SignalLevel, b.IsMetered, b.Is5GHz())
}
