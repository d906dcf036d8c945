package domain

// Evaluate advances a station's alert level using a single reading. It is
// pure: the caller owns all state mutation and runs it at most once per
// station per cycle.
//
// Both passes use the same reading, rearm first:
//
//  1. While the reading sits below the current level's threshold minus the
//     hysteresis margin, step the level down. Rearming is silent and can
//     cascade all the way to zero in one call.
//  2. If the reading meets thresholds above the post-rearm level, step up to
//     the highest one met and return one Crossing per level passed, in
//     ascending order. A reading equal to a threshold meets it.
//
// An absent reading returns (prev, nil) untouched. Hysteresis never shifts
// an upward comparison.
func Evaluate(level *float64, thresholds ThresholdSet, prev AlertLevel, hysteresis float64) (AlertLevel, []Crossing) {
	if level == nil {
		return prev, nil
	}
	v := *level

	next := prev
	for next > LevelNone && v < thresholds.At(next)-hysteresis {
		next--
	}

	reached := LevelNone
	for l := Level1; l <= Level3; l++ {
		if v >= thresholds.At(l) {
			reached = l
		}
	}
	if reached <= next {
		return next, nil
	}

	crossings := make([]Crossing, 0, int(reached-next))
	for l := next + 1; l <= reached; l++ {
		crossings = append(crossings, Crossing{Level: l, Threshold: thresholds.At(l)})
	}
	return reached, crossings
}
