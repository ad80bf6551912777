package eval

import (
	"math"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

// Statistics is a descriptive summary of a score sample.
type Statistics struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`

	// ConfidenceInterval95 is the normal-approximation interval
	// mean ± 1.96·std/sqrt(n). For n <= 1 it collapses to (mean, mean).
	ConfidenceInterval95 [2]float64 `json:"confidence_interval_95"`
}

// Summarize computes descriptive statistics over the given scores.
// The sample standard deviation uses Bessel's correction (n-1).
func Summarize(scores []float64) (*Statistics, error) {
	if len(scores) == 0 {
		return nil, errors.New(errors.InvalidParameter, "cannot calculate statistics for empty list")
	}

	n := len(scores)
	var sum float64
	minVal, maxVal := scores[0], scores[0]
	for _, x := range scores {
		sum += x
		if x < minVal {
			minVal = x
		}
		if x > maxVal {
			maxVal = x
		}
	}
	mean := sum / float64(n)

	var std float64
	ci := [2]float64{mean, mean}
	if n > 1 {
		var variance float64
		for _, x := range scores {
			variance += (x - mean) * (x - mean)
		}
		variance /= float64(n - 1)
		std = math.Sqrt(variance)

		margin := 1.96 * (std / math.Sqrt(float64(n)))
		ci = [2]float64{mean - margin, mean + margin}
	}

	return &Statistics{
		Mean:                 mean,
		Std:                  std,
		Min:                  minVal,
		Max:                  maxVal,
		Count:                n,
		ConfidenceInterval95: ci,
	}, nil
}

// ToMap renders the statistics as a JSON-friendly map for result artifacts.
func (s *Statistics) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"mean":  s.Mean,
		"std":   s.Std,
		"min":   s.Min,
		"max":   s.Max,
		"count": s.Count,
		"ci_95": []float64{s.ConfidenceInterval95[0], s.ConfidenceInterval95[1]},
	}
}
