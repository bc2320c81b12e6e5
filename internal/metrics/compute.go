package metrics

import (
	"slices"

	"github.com/rickgao/lotto-engine/internal/model"
)

// Compute derives one NumberMetric per number from draws. Draws may arrive
// in any order; only the window most recent ones are used. The bonus number
// is not counted.
func Compute(draws []model.Draw, window int) []model.NumberMetric {
	recent := slices.Clone(draws)
	slices.SortFunc(recent, func(a, b model.Draw) int { return b.No - a.No })
	if len(recent) > window {
		recent = recent[:window]
	}

	out := make([]model.NumberMetric, 0, model.MaxNumber)
	for n := model.MinNumber; n <= model.MaxNumber; n++ {
		out = append(out, model.NumberMetric{
			Window:  window,
			Number:  n,
			Overdue: len(recent),
		})
	}

	// recent is newest first, so the first hit per number is its latest appearance.
	for age, d := range recent {
		for _, n := range d.Numbers {
			m := &out[n-model.MinNumber]
			if m.Frequency == 0 {
				m.Overdue = age
				m.LastSeenDrawNo = d.No
			}
			m.Frequency++
		}
	}
	return out
}
