// Package decision implements the network decision core: scoring, switch
// rules, probation and the candidate selection loop. Nothing in this package
// performs I/O.
package decision

const (
	fixedBase     = 100
	meteredBase   = 50
	signalOffset  = 140
	signalCeiling = 90
	fiveGHzBonus  = 30
)

// Score converts a signal reading and network attributes into a comparable
// desirability value. Higher is better.
func Score(signalLevelDbm int, isMetered, is5GHz bool) int {
	score := fixedBase
	if isMetered {
		score = meteredBase
	}

	signal := signalLevelDbm + signalOffset
	if signal < 0 {
		signal = 0
	}
	if signal > signalCeiling {
		signal = signalCeiling
	}
	score += signal

	if is5GHz {
		score += fiveGHzBonus
	}
	return score
}
