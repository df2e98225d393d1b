// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brief

import "math"

// Alert levels run from 1 (most severe) to 5.
const (
	LevelMaximum = 1
	LevelLowest  = 5
)

// AlertLevel derives the aggregate status from the mean nonzero threat
// score and the number of CRITICAL records. The first matching rule wins:
//
//	critical >= 5 or mean >= 85  -> 1
//	critical >= 3 or mean >= 70  -> 2
//	critical >= 1 or mean >= 50  -> 3
//	mean >= 30                   -> 4
//	otherwise                    -> 5
//
// Negative and NaN inputs count as zero.
func AlertLevel(mean float64, critical int) int {
	if math.IsNaN(mean) || mean < 0 {
		mean = 0
	}
	if critical < 0 {
		critical = 0
	}
	switch {
	case critical >= 5 || mean >= 85:
		return 1
	case critical >= 3 || mean >= 70:
		return 2
	case critical >= 1 || mean >= 50:
		return 3
	case mean >= 30:
		return 4
	default:
		return 5
	}
}

var alertLabels = map[int]string{
	1: "MAXIMUM READINESS",
	2: "HIGH READINESS",
	3: "INCREASED READINESS",
	4: "ABOVE NORMAL READINESS",
	5: "LOWEST READINESS",
}

// AlertLabel returns the status text for a level, or "UNKNOWN" outside 1..5.
func AlertLabel(level int) string {
	if l, ok := alertLabels[level]; ok {
		return l
	}
	return "UNKNOWN"
}
