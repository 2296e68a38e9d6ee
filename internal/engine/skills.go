package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/jkorri/gumshoe/internal/models"
)

// skillNames are the five persisted metrics, in canonical order.
var skillNames = [...]string{"logic", "creativity", "focus", "diversity", "depth"}

// CoerceSkills turns whatever an upstream source provided into the five
// bounded metrics. It is total: missing keys, string-typed numbers,
// out-of-range values and garbage all map to valid integers in [0,100].
func CoerceSkills(source map[string]any) models.Skills {
	values := make(map[string]int, len(skillNames))
	for _, name := range skillNames {
		values[name] = coerceScore(source[name])
	}
	return models.Skills{
		Logic:      values["logic"],
		Creativity: values["creativity"],
		Focus:      values["focus"],
		Diversity:  values["diversity"],
		Depth:      values["depth"],
	}
}

// coerceScore converts one metric value to a clamped integer. Numeric input
// is rounded; textual input is parsed; anything else counts as 0.
func coerceScore(value any) int {
	switch v := value.(type) {
	case int:
		return clampScore(v)
	case int64:
		return clampScore(int(v))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return clampScore(int(math.Round(v)))
	case float32:
		return coerceScore(float64(v))
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return coerceScore(parsed)
	default:
		return 0
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
