package store

import (
	"context"
	"errors"
	"time"

	"github.com/rickgao/lotto-engine/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// DrawStore reads and appends historical draws.
type DrawStore interface {
	// FindLatest returns the draw with the highest number, or ErrNotFound.
	FindLatest(ctx context.Context) (model.Draw, error)

	// FindByNumber returns one draw, or ErrNotFound.
	FindByNumber(ctx context.Context, no int) (model.Draw, error)

	// FindRecent returns up to n draws, most recent first.
	FindRecent(ctx context.Context, n int) ([]model.Draw, error)

	// FindAfter returns draws dated strictly after t, oldest first.
	FindAfter(ctx context.Context, t time.Time) ([]model.Draw, error)

	// Count returns the number of stored draws.
	Count(ctx context.Context) (int, error)

	// Insert stores d unless its number already exists. It reports whether a row was written.
	Insert(ctx context.Context, d model.Draw) (bool, error)

	// ExistingNumbers returns the stored draw numbers within [from, to].
	ExistingNumbers(ctx context.Context, from, to int) (map[int]bool, error)

	// LowestMissing returns the smallest draw number >= 1 that is not stored.
	LowestMissing(ctx context.Context) (int, error)
}

// MetricsStore holds per-window number metrics.
type MetricsStore interface {
	// FindByWindow returns the metrics of every number for a window size.
	FindByWindow(ctx context.Context, window int) ([]model.NumberMetric, error)

	// ReplaceWindow atomically replaces all metrics of a window.
	ReplaceWindow(ctx context.Context, window int, metrics []model.NumberMetric) error
}

// ResultStore persists generated sets per user.
type ResultStore interface {
	// Save assigns ids to sets and stores them. The returned slice carries the ids.
	Save(ctx context.Context, userID string, sets []model.GeneratedSet, strategy model.StrategyID) ([]model.GeneratedSet, error)

	// FindByUser returns one page (1-based) of a user's sets, newest first, and the total count.
	FindByUser(ctx context.Context, userID string, page, size int) ([]model.GeneratedSet, int, error)
}

// SyncStateStore persists the singleton synchronization state.
type SyncStateStore interface {
	// Load returns the current state (zero value when never written).
	Load(ctx context.Context) (model.SyncState, error)

	// TryAcquire takes the sync lease for owner until lockUntil unless a live
	// lease is held by someone else at now. It reports whether the lease was taken.
	TryAcquire(ctx context.Context, owner string, now, lockUntil time.Time) (bool, error)

	// Release clears the lease held by owner and records the outcome.
	Release(ctx context.Context, owner string, asOfDrawNo int, lastErr string, at time.Time) error
}

// Store bundles every port; adapters implement all of them.
type Store interface {
	Draws() DrawStore
	Metrics() MetricsStore
	Results() ResultStore
	SyncState() SyncStateStore
	Close() error
}

// MetricsByNumber indexes metrics by number.
func MetricsByNumber(ms []model.NumberMetric) map[int]model.NumberMetric {
	out := make(map[int]model.NumberMetric, len(ms))
	for _, m := range ms {
		out[m.Number] = m
	}
	return out
}
