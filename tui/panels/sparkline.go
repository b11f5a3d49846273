package panels

import "strings"

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders the last width values as a one-line bar graph scaled
// between their min and max. A flat series renders at the lowest level.
func Sparkline(values []float64, width int) string {
	if width <= 0 || len(values) == 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	var b strings.Builder
	top := len(sparkLevels) - 1
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(top))
		}
		b.WriteRune(sparkLevels[idx])
	}
	return b.String()
}
