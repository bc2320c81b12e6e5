package sampling

import "github.com/rickgao/lotto-engine/internal/model"

// Blend ratios (frequency, overdue) used by the strategies.
var (
	BlendEven         = Blend{Freq: 0.5, Overdue: 0.5}
	BlendFreqHeavy    = Blend{Freq: 0.7, Overdue: 0.3}
	BlendOverdueHeavy = Blend{Freq: 0.3, Overdue: 0.7}
)

// baseline keeps every number reachable in combined weights.
const baseline = 0.1

// Blend weighs normalized frequency against normalized overdue.
type Blend struct {
	Freq    float64
	Overdue float64
}

// FrequencyWeights maps each number to frequency / max frequency.
func FrequencyWeights(metrics map[int]model.NumberMetric) map[int]float64 {
	return normalized(metrics, func(m model.NumberMetric) int { return m.Frequency })
}

// OverdueWeights maps each number to overdue / max overdue.
func OverdueWeights(metrics map[int]model.NumberMetric) map[int]float64 {
	return normalized(metrics, func(m model.NumberMetric) int { return m.Overdue })
}

// CombinedWeights returns alpha*freq + beta*overdue + 0.1 per number. Empty
// metrics yield an empty map so Sample falls back to uniform selection.
func CombinedWeights(metrics map[int]model.NumberMetric, b Blend) map[int]float64 {
	if len(metrics) == 0 {
		return map[int]float64{}
	}
	freq := FrequencyWeights(metrics)
	over := OverdueWeights(metrics)

	out := make(map[int]float64, len(metrics))
	for n := range metrics {
		out[n] = b.Freq*freq[n] + b.Overdue*over[n] + baseline
	}
	return out
}

func normalized(metrics map[int]model.NumberMetric, value func(model.NumberMetric) int) map[int]float64 {
	out := make(map[int]float64, len(metrics))
	peak := 0
	for _, m := range metrics {
		peak = max(peak, value(m))
	}
	for n, m := range metrics {
		if peak == 0 {
			out[n] = 0
			continue
		}
		out[n] = float64(value(m)) / float64(peak)
	}
	return out
}
