// Package storetest holds the behavior every store adapter must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/store"
)

// Draw builds a valid draw with a weekly date derived from no.
func Draw(no int, nums [6]int) model.Draw {
	bonus := 45
	for _, n := range nums {
		if n == 45 {
			bonus = 44
		}
	}
	return model.Draw{
		No:           no,
		Date:         time.Date(2002, 12, 7, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*(no-1)),
		Numbers:      nums,
		Bonus:        bonus,
		FirstPrize:   2_000_000_000,
		FirstWinners: 7,
		FirstAccum:   14_000_000_000,
		TotalSales:   110_000_000_000,
	}
}

// Run exercises s against the shared store contract. newStore must return an
// empty store; it is called once per subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("Draws", func(t *testing.T) { testDraws(t, newStore(t)) })
	t.Run("LowestMissing", func(t *testing.T) { testLowestMissing(t, newStore(t)) })
	t.Run("Metrics", func(t *testing.T) { testMetrics(t, newStore(t)) })
	t.Run("Results", func(t *testing.T) { testResults(t, newStore(t)) })
	t.Run("SyncLease", func(t *testing.T) { testSyncLease(t, newStore(t)) })
}

func testDraws(t *testing.T, s store.Store) {
	ctx := context.Background()
	draws := s.Draws()

	_, err := draws.FindLatest(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	for no := 1; no <= 5; no++ {
		ok, err := draws.Insert(ctx, Draw(no, [6]int{no, 10, 20, 30, 40, 44}))
		require.NoError(t, err)
		assert.True(t, ok)
	}

	// Duplicate insert writes nothing.
	ok, err := draws.Insert(ctx, Draw(3, [6]int{1, 2, 3, 4, 5, 6}))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = draws.Insert(ctx, model.Draw{No: 9, Numbers: [6]int{1, 1, 2, 3, 4, 5}, Bonus: 7})
	require.ErrorIs(t, err, model.ErrInvalidDraw)

	latest, err := draws.FindLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, latest.No)
	assert.Equal(t, int64(2_000_000_000), latest.FirstPrize)

	got, err := draws.FindByNumber(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, [6]int{3, 10, 20, 30, 40, 44}, got.Numbers)
	assert.True(t, got.Date.Equal(Draw(3, got.Numbers).Date))

	_, err = draws.FindByNumber(ctx, 99)
	require.ErrorIs(t, err, store.ErrNotFound)

	recent, err := draws.FindRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []int{5, 4, 3}, []int{recent[0].No, recent[1].No, recent[2].No})

	after, err := draws.FindAfter(ctx, Draw(3, got.Numbers).Date)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, 4, after[0].No)

	n, err := draws.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	existing, err := draws.ExistingNumbers(ctx, 4, 10)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{4: true, 5: true}, existing)
}

func testLowestMissing(t *testing.T, s store.Store) {
	ctx := context.Background()
	draws := s.Draws()

	n, err := draws.LowestMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for _, no := range []int{2, 3} {
		_, err := draws.Insert(ctx, Draw(no, [6]int{1, 2, 3, 4, 5, 6}))
		require.NoError(t, err)
	}
	n, err = draws.LowestMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "gap at the start")

	for _, no := range []int{1, 5} {
		_, err := draws.Insert(ctx, Draw(no, [6]int{1, 2, 3, 4, 5, 6}))
		require.NoError(t, err)
	}
	n, err = draws.LowestMissing(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n, "gap in the middle")
}

func testMetrics(t *testing.T, s store.Store) {
	ctx := context.Background()
	ms := s.Metrics()

	empty, err := ms.FindByWindow(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first := []model.NumberMetric{
		{Window: 50, Number: 1, Frequency: 3, Overdue: 2, LastSeenDrawNo: 10},
		{Window: 50, Number: 2, Frequency: 0, Overdue: 50},
	}
	require.NoError(t, ms.ReplaceWindow(ctx, 50, first))
	require.NoError(t, ms.ReplaceWindow(ctx, 20, first[:1]))

	second := []model.NumberMetric{{Window: 50, Number: 7, Frequency: 9, Overdue: 0, LastSeenDrawNo: 12}}
	require.NoError(t, ms.ReplaceWindow(ctx, 50, second))

	got, err := ms.FindByWindow(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	other, err := ms.FindByWindow(ctx, 20)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, 20, other[0].Window)
}

func testResults(t *testing.T, s store.Store) {
	ctx := context.Background()
	rs := s.Results()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	oddMin := 2
	var sets []model.GeneratedSet
	for i := 0; i < 3; i++ {
		sets = append(sets, model.GeneratedSet{
			Index:       i,
			Numbers:     [6]int{1 + i, 10, 20, 30, 40, 45},
			Tags:        []string{"balanced"},
			Constraints: model.Constraints{Include: []int{10}, OddMin: &oddMin},
			CreatedAt:   base,
		})
	}

	saved, err := rs.Save(ctx, "user-1", sets, model.StrategyBalanced)
	require.NoError(t, err)
	require.Len(t, saved, 3)
	for _, set := range saved {
		assert.NotEmpty(t, set.ID)
		assert.Equal(t, model.StrategyBalanced, set.Strategy)
	}

	later := sets[:1]
	later[0].CreatedAt = base.Add(time.Hour)
	_, err = rs.Save(ctx, "user-1", later, model.StrategyFrequentTop)
	require.NoError(t, err)

	page, total, err := rs.FindByUser(ctx, "user-1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page, 2)
	assert.Equal(t, model.StrategyFrequentTop, page[0].Strategy, "newest first")
	assert.Equal(t, []string{"balanced"}, page[1].Tags)
	require.NotNil(t, page[1].Constraints.OddMin)
	assert.Equal(t, 2, *page[1].Constraints.OddMin)

	none, total, err := rs.FindByUser(ctx, "user-2", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)
}

func testSyncLease(t *testing.T, s store.Store) {
	ctx := context.Background()
	st := s.SyncState()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	initial, err := st.Load(ctx)
	require.NoError(t, err)
	assert.False(t, initial.Refreshing)

	ok, err := st.TryAcquire(ctx, "a", now, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.TryAcquire(ctx, "b", now.Add(time.Second), now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "live lease held by a")

	held, err := st.Load(ctx)
	require.NoError(t, err)
	assert.True(t, held.LeaseHeld(now.Add(time.Second)))
	assert.Equal(t, "a", held.Owner)

	// Expired leases can be taken over.
	ok, err = st.TryAcquire(ctx, "b", now.Add(2*time.Minute), now.Add(3*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	// Only the holder releases.
	require.NoError(t, st.Release(ctx, "a", 10, "", now.Add(2*time.Minute)))
	held, err = st.Load(ctx)
	require.NoError(t, err)
	assert.True(t, held.Refreshing)

	require.NoError(t, st.Release(ctx, "b", 42, "boom", now.Add(3*time.Minute)))
	done, err := st.Load(ctx)
	require.NoError(t, err)
	assert.False(t, done.Refreshing)
	assert.Equal(t, 42, done.AsOfDrawNo)
	assert.Equal(t, "boom", done.LastError)
	assert.True(t, done.LastSyncedAt.Equal(now.Add(3*time.Minute)))
}
