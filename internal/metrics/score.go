package metrics

// Readiness computes the critical-veto readiness score:
//
//	clamp(0, 100, 100*(1 - gaps/checked) - min(cap, criticalGaps*penalty))
//
// The penalty cap keeps a single critical gap from zeroing an otherwise
// healthy score while still dominating the ranking. When nothing was checked
// the score is nil: "no data" is not "no gaps".
func Readiness(checked, gaps, criticalGaps int, penalty, penaltyCap float64) *float64 {
	if checked <= 0 {
		return nil
	}
	base := 100 * (1 - float64(gaps)/float64(checked))
	veto := float64(criticalGaps) * penalty
	if veto > penaltyCap {
		veto = penaltyCap
	}
	score := base - veto
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return &score
}

// GapRate is gaps/checked, zero when nothing was checked.
func GapRate(checked, gaps int) float64 {
	if checked <= 0 {
		return 0
	}
	return float64(gaps) / float64(checked)
}

// Delta is current - previous, nil when either side is nil. A company with no
// report last week shows "no comparison", never a fabricated improvement.
func Delta(current, previous *float64) *float64 {
	if current == nil || previous == nil {
		return nil
	}
	d := *current - *previous
	return &d
}
