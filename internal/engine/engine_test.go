package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/strategy"
)

type fakeStats struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeStats) Get(ctx context.Context, window int) (model.PatternStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return model.PatternStats{}, f.err
	}
	return model.DefaultPatternStats(window), nil
}

func seeded(seed uint64) Option {
	return WithRandSource(func() *rand.Rand { return rand.New(rand.NewPCG(seed, seed+1)) })
}

func TestJaccard(t *testing.T) {
	a := [6]int{1, 2, 3, 4, 5, 6}
	assert.Equal(t, 1.0, Jaccard(a, a))
	assert.Equal(t, 0.0, Jaccard(a, [6]int{7, 8, 9, 10, 11, 12}))
	// 3 shared, 9 in the union.
	assert.InDelta(t, 3.0/9.0, Jaccard(a, [6]int{4, 5, 6, 7, 8, 9}), 1e-9)
}

func TestDiversify(t *testing.T) {
	a := [6]int{1, 2, 3, 4, 5, 6}
	b := [6]int{1, 2, 3, 4, 5, 7} // 5/7 similar to a
	c := [6]int{20, 21, 22, 23, 24, 25}

	t.Run("disabled keeps all but duplicates", func(t *testing.T) {
		got := Diversify([][6]int{a, b, a, c}, 0)
		assert.Equal(t, [][6]int{a, b, c}, got)
	})

	t.Run("threshold drops similar", func(t *testing.T) {
		got := Diversify([][6]int{a, b, c}, 0.5)
		assert.Equal(t, [][6]int{a, c}, got)
	})

	t.Run("threshold above similarity keeps", func(t *testing.T) {
		got := Diversify([][6]int{a, b, c}, 0.8)
		assert.Equal(t, [][6]int{a, b, c}, got)
	})
}

func TestGenerateEveryStrategy(t *testing.T) {
	stats := &fakeStats{}
	e := New(stats, seeded(1))

	for _, id := range model.StrategyIDs {
		t.Run(string(id), func(t *testing.T) {
			res, err := e.Generate(context.Background(), Request{Strategy: id, Count: 5, Window: 50})
			require.NoError(t, err)
			require.NotEmpty(t, res.Sets)
			assert.LessOrEqual(t, len(res.Sets), 5)

			seen := make(map[[6]int]bool)
			for i, set := range res.Sets {
				assert.Equal(t, i, set.Index)
				assert.Equal(t, id, set.Strategy)
				assert.NotEmpty(t, set.Tags)
				assert.False(t, seen[set.Numbers], "duplicate %v", set.Numbers)
				seen[set.Numbers] = true
			}
		})
	}
}

func TestGenerateUsesStatsOnlyWhenNeeded(t *testing.T) {
	stats := &fakeStats{}
	e := New(stats, seeded(2))
	ctx := context.Background()

	_, err := e.Generate(ctx, Request{Strategy: model.StrategyBalanced, Count: 1, Window: 20})
	require.NoError(t, err)
	assert.Zero(t, stats.calls)

	_, err = e.Generate(ctx, Request{Strategy: model.StrategyPatternMatcher, Count: 1, Window: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.calls)

	stats.err = errors.New("db down")
	_, err = e.Generate(ctx, Request{Strategy: model.StrategyAISimulation, Count: 1, Window: 20})
	assert.ErrorContains(t, err, "db down")
}

func TestGenerateForcesIncludes(t *testing.T) {
	e := New(&fakeStats{}, seeded(3))
	req := Request{
		Strategy:    model.StrategyWeightedRandom,
		Count:       10,
		Window:      50,
		Constraints: model.Constraints{Include: []int{7, 33}, Exclude: []int{8, 9}},
	}
	res, err := e.Generate(context.Background(), req)
	require.NoError(t, err)
	for _, set := range res.Sets {
		assert.Contains(t, set.Numbers[:], 7)
		assert.Contains(t, set.Numbers[:], 33)
		assert.NotContains(t, set.Numbers[:], 8)
		assert.NotContains(t, set.Numbers[:], 9)
		assert.Equal(t, []int{7, 33}, set.Constraints.Include)
		assert.Contains(t, set.Tags, "includes-applied")
	}
}

func TestGenerateBalancedKeepsSumWithIncludes(t *testing.T) {
	e := New(&fakeStats{}, seeded(9))
	sumMin, sumMax := 90, 130
	res, err := e.Generate(context.Background(), Request{
		Strategy: model.StrategyBalanced,
		Count:    20,
		Constraints: model.Constraints{
			Include: []int{45},
			SumMin:  &sumMin, SumMax: &sumMax,
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Sets)
	for _, set := range res.Sets {
		assert.Contains(t, set.Numbers[:], 45)
		sum := 0
		for _, n := range set.Numbers {
			sum += n
		}
		assert.GreaterOrEqual(t, sum, sumMin, "set %v", set.Numbers)
		assert.LessOrEqual(t, sum, sumMax, "set %v", set.Numbers)
		assert.Contains(t, set.Tags, "includes-applied")
	}
}

func TestGenerateSimilarityThreshold(t *testing.T) {
	e := New(&fakeStats{}, seeded(4))
	res, err := e.Generate(context.Background(), Request{
		Strategy:    model.StrategyWeightedRandom,
		Count:       30,
		Window:      50,
		Constraints: model.Constraints{SimilarityThreshold: 0.3},
	})
	require.NoError(t, err)
	for i, a := range res.Sets {
		for _, b := range res.Sets[i+1:] {
			assert.Less(t, Jaccard(a.Numbers, b.Numbers), 0.3)
		}
	}
}

func TestGenerateWheelingBatch(t *testing.T) {
	e := New(&fakeStats{}, seeded(5))
	res, err := e.Generate(context.Background(), Request{
		Strategy: model.StrategyWheelingSystem,
		Count:    strategy.DefaultWheelCount,
		Window:   100,
	})
	require.NoError(t, err)
	assert.Len(t, res.Sets, strategy.DefaultWheelCount)
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	e := New(&fakeStats{})
	ctx := context.Background()

	_, err := e.Generate(ctx, Request{Strategy: "NOPE", Count: 1})
	assert.ErrorIs(t, err, strategy.ErrUnknownStrategy)

	_, err = e.Generate(ctx, Request{Strategy: model.StrategyBalanced, Count: 0})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = e.Generate(ctx, Request{Strategy: model.StrategyBalanced, Count: 1, Window: 30})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestGenerateConstraintsSnapshot(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	e := New(&fakeStats{}, seeded(6), WithClock(func() time.Time { return fixed }))

	include := []int{5}
	res, err := e.Generate(context.Background(), Request{
		Strategy:    model.StrategyBalanced,
		Count:       2,
		Constraints: model.Constraints{Include: include},
	})
	require.NoError(t, err)
	include[0] = 6

	assert.Equal(t, model.DefaultWindow, res.Window)
	for _, set := range res.Sets {
		assert.Equal(t, []int{5}, set.Constraints.Include)
		assert.Equal(t, fixed, set.CreatedAt)
	}
}

func TestExplain(t *testing.T) {
	stats := model.PatternStats{MinSum: 100, MaxSum: 200, SampleSize: 50}
	tags := Explain([6]int{3, 4, 20, 31, 40, 45}, stats, true)
	assert.Equal(t, []string{
		"sum:143",
		"odd:3/even:3",
		"high:3/low:3",
		"consecutive:2",
		"sum-in-range",
		"includes-applied",
	}, tags)
}
