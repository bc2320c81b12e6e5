// Package memory is an in-process store used by tests and the demo mode.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/store"
)

// Store keeps everything in maps guarded by one RWMutex.
type Store struct {
	mu      sync.RWMutex
	draws   map[int]model.Draw
	metrics map[int][]model.NumberMetric
	results map[string][]model.GeneratedSet
	state   model.SyncState

	// Writes counts successful draw inserts.
	writes int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		draws:   make(map[int]model.Draw),
		metrics: make(map[int][]model.NumberMetric),
		results: make(map[string][]model.GeneratedSet),
	}
}

func (s *Store) Draws() store.DrawStore          { return drawStore{s} }
func (s *Store) Metrics() store.MetricsStore     { return metricsStore{s} }
func (s *Store) Results() store.ResultStore      { return resultStore{s} }
func (s *Store) SyncState() store.SyncStateStore { return stateStore{s} }
func (s *Store) Close() error                    { return nil }

// Writes returns how many draws Insert has written.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Seed inserts draws directly, bypassing the write counter.
func (s *Store) Seed(draws ...model.Draw) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range draws {
		s.draws[d.No] = d
	}
}

// sortedDesc returns draws newest first. Caller holds the lock.
func (s *Store) sortedDesc() []model.Draw {
	out := make([]model.Draw, 0, len(s.draws))
	for _, d := range s.draws {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b model.Draw) int { return b.No - a.No })
	return out
}

// -----------------------------------------------------------------------------
// Draws
// -----------------------------------------------------------------------------

type drawStore struct{ s *Store }

func (d drawStore) FindLatest(ctx context.Context) (model.Draw, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	all := d.s.sortedDesc()
	if len(all) == 0 {
		return model.Draw{}, store.ErrNotFound
	}
	return all[0], nil
}

func (d drawStore) FindByNumber(ctx context.Context, no int) (model.Draw, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	draw, ok := d.s.draws[no]
	if !ok {
		return model.Draw{}, store.ErrNotFound
	}
	return draw, nil
}

func (d drawStore) FindRecent(ctx context.Context, n int) ([]model.Draw, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	all := d.s.sortedDesc()
	if n < len(all) {
		all = all[:n]
	}
	return all, nil
}

func (d drawStore) FindAfter(ctx context.Context, t time.Time) ([]model.Draw, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	var out []model.Draw
	for _, draw := range d.s.draws {
		if draw.Date.After(t) {
			out = append(out, draw)
		}
	}
	slices.SortFunc(out, func(a, b model.Draw) int { return a.No - b.No })
	return out, nil
}

func (d drawStore) Count(ctx context.Context) (int, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	return len(d.s.draws), nil
}

func (d drawStore) Insert(ctx context.Context, draw model.Draw) (bool, error) {
	if err := draw.Validate(); err != nil {
		return false, err
	}
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	if _, ok := d.s.draws[draw.No]; ok {
		return false, nil
	}
	d.s.draws[draw.No] = draw
	d.s.writes++
	return true, nil
}

func (d drawStore) ExistingNumbers(ctx context.Context, from, to int) (map[int]bool, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	out := make(map[int]bool)
	for no := range d.s.draws {
		if no >= from && no <= to {
			out[no] = true
		}
	}
	return out, nil
}

func (d drawStore) LowestMissing(ctx context.Context) (int, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	for no := 1; ; no++ {
		if _, ok := d.s.draws[no]; !ok {
			return no, nil
		}
	}
}

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

type metricsStore struct{ s *Store }

func (m metricsStore) FindByWindow(ctx context.Context, window int) ([]model.NumberMetric, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return slices.Clone(m.s.metrics[window]), nil
}

func (m metricsStore) ReplaceWindow(ctx context.Context, window int, metrics []model.NumberMetric) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := slices.Clone(metrics)
	for i := range out {
		out[i].Window = window
	}
	m.s.metrics[window] = out
	return nil
}

// -----------------------------------------------------------------------------
// Results
// -----------------------------------------------------------------------------

type resultStore struct{ s *Store }

func (r resultStore) Save(ctx context.Context, userID string, sets []model.GeneratedSet, strategy model.StrategyID) ([]model.GeneratedSet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.GeneratedSet, len(sets))
	for i, set := range sets {
		set.ID = uuid.NewString()
		set.Strategy = strategy
		out[i] = set
	}
	r.s.results[userID] = append(r.s.results[userID], out...)
	return out, nil
}

func (r resultStore) FindByUser(ctx context.Context, userID string, page, size int) ([]model.GeneratedSet, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := slices.Clone(r.s.results[userID])
	slices.Reverse(all)

	total := len(all)
	start := (page - 1) * size
	if page < 1 || size < 1 || start >= total {
		return nil, total, nil
	}
	end := min(start+size, total)
	return all[start:end], total, nil
}

// -----------------------------------------------------------------------------
// Sync state
// -----------------------------------------------------------------------------

type stateStore struct{ s *Store }

func (st stateStore) Load(ctx context.Context) (model.SyncState, error) {
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()
	return st.s.state, nil
}

func (st stateStore) TryAcquire(ctx context.Context, owner string, now, lockUntil time.Time) (bool, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if st.s.state.LeaseHeld(now) && st.s.state.Owner != owner {
		return false, nil
	}
	st.s.state.Refreshing = true
	st.s.state.RefreshStartedAt = now
	st.s.state.LockUntil = lockUntil
	st.s.state.Owner = owner
	return true, nil
}

func (st stateStore) Release(ctx context.Context, owner string, asOfDrawNo int, lastErr string, at time.Time) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	if st.s.state.Owner != owner {
		return nil
	}
	st.s.state.Refreshing = false
	st.s.state.LockUntil = time.Time{}
	st.s.state.Owner = ""
	st.s.state.AsOfDrawNo = max(st.s.state.AsOfDrawNo, asOfDrawNo)
	st.s.state.LastError = lastErr
	st.s.state.LastSyncedAt = at
	return nil
}

var _ store.Store = (*Store)(nil)
