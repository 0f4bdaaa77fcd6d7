package field

import "gonum.org/v1/gonum/floats"

// Range returns the smallest and largest value. An empty slice yields (0, 0).
func Range(values []float64) (min, max float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return floats.Min(values), floats.Max(values)
}

// ClampedRange returns the range of values as seen after Clamp01, in one
// pass without copying. An empty slice yields (0, 0).
func ClampedRange(values []float64) (min, max float64) {
	if len(values) == 0 {
		return 0, 0
	}
	min, max = 1, 0
	for _, v := range values {
		c := Clamp01(v)
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	return min, max
}

// Mean returns the arithmetic mean. An empty slice yields 0.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Sum(values) / float64(len(values))
}
