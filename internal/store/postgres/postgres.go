// Package postgres implements the store ports on PostgreSQL through pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/store"
)

// Store wraps a pgx pool over a migrated database.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store over pool. The store owns the pool from now on.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Draws() store.DrawStore          { return drawStore{s.pool} }
func (s *Store) Metrics() store.MetricsStore     { return metricsStore{s.pool} }
func (s *Store) Results() store.ResultStore      { return resultStore{s.pool} }
func (s *Store) SyncState() store.SyncStateStore { return stateStore{s.pool} }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var _ store.Store = (*Store)(nil)

// -----------------------------------------------------------------------------
// Draws
// -----------------------------------------------------------------------------

const drawColumns = `draw_no, draw_date, n1, n2, n3, n4, n5, n6, bonus,
	first_prize, first_winners, first_accum, total_sales`

type drawStore struct{ pool *pgxpool.Pool }

func scanDraw(row pgx.Row) (model.Draw, error) {
	var d model.Draw
	err := row.Scan(&d.No, &d.Date,
		&d.Numbers[0], &d.Numbers[1], &d.Numbers[2], &d.Numbers[3], &d.Numbers[4], &d.Numbers[5],
		&d.Bonus, &d.FirstPrize, &d.FirstWinners, &d.FirstAccum, &d.TotalSales)
	return d, err
}

func (s drawStore) queryOne(ctx context.Context, query string, args ...any) (model.Draw, error) {
	d, err := scanDraw(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Draw{}, store.ErrNotFound
	}
	return d, err
}

func (s drawStore) queryMany(ctx context.Context, query string, args ...any) ([]model.Draw, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Draw, error) {
		return scanDraw(row)
	})
}

func (s drawStore) FindLatest(ctx context.Context) (model.Draw, error) {
	return s.queryOne(ctx, `SELECT `+drawColumns+` FROM draws ORDER BY draw_no DESC LIMIT 1`)
}

func (s drawStore) FindByNumber(ctx context.Context, no int) (model.Draw, error) {
	return s.queryOne(ctx, `SELECT `+drawColumns+` FROM draws WHERE draw_no = $1`, no)
}

func (s drawStore) FindRecent(ctx context.Context, n int) ([]model.Draw, error) {
	return s.queryMany(ctx, `SELECT `+drawColumns+` FROM draws ORDER BY draw_no DESC LIMIT $1`, n)
}

func (s drawStore) FindAfter(ctx context.Context, t time.Time) ([]model.Draw, error) {
	return s.queryMany(ctx, `SELECT `+drawColumns+` FROM draws WHERE draw_date > $1::date ORDER BY draw_no`,
		t.Format("2006-01-02"))
}

func (s drawStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM draws`).Scan(&n)
	return n, err
}

func (s drawStore) Insert(ctx context.Context, d model.Draw) (bool, error) {
	if err := d.Validate(); err != nil {
		return false, err
	}
	ct, err := s.pool.Exec(ctx, `
		INSERT INTO draws (`+drawColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (draw_no) DO NOTHING`,
		d.No, d.Date,
		d.Numbers[0], d.Numbers[1], d.Numbers[2], d.Numbers[3], d.Numbers[4], d.Numbers[5],
		d.Bonus, d.FirstPrize, d.FirstWinners, d.FirstAccum, d.TotalSales)
	if err != nil {
		return false, fmt.Errorf("insert draw %d: %w", d.No, err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s drawStore) ExistingNumbers(ctx context.Context, from, to int) (map[int]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT draw_no FROM draws WHERE draw_no BETWEEN $1 AND $2`, from, to)
	if err != nil {
		return nil, err
	}
	nos, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, err
	}
	out := make(map[int]bool, len(nos))
	for _, no := range nos {
		out[no] = true
	}
	return out, nil
}

func (s drawStore) LowestMissing(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT CASE
			WHEN NOT EXISTS (SELECT 1 FROM draws WHERE draw_no = 1) THEN 1
			ELSE (SELECT MIN(d.draw_no) + 1 FROM draws d
			      WHERE NOT EXISTS (SELECT 1 FROM draws x WHERE x.draw_no = d.draw_no + 1))
		END`).Scan(&n)
	return n, err
}

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

type metricsStore struct{ pool *pgxpool.Pool }

func (s metricsStore) FindByWindow(ctx context.Context, window int) ([]model.NumberMetric, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT window_size, number, frequency, overdue, last_seen_draw_no
		FROM number_metrics WHERE window_size = $1 ORDER BY number`, window)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.NumberMetric, error) {
		var m model.NumberMetric
		err := row.Scan(&m.Window, &m.Number, &m.Frequency, &m.Overdue, &m.LastSeenDrawNo)
		return m, err
	})
}

// ReplaceWindow deletes the window's rows and copies the new ones in one transaction.
func (s metricsStore) ReplaceWindow(ctx context.Context, window int, metrics []model.NumberMetric) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM number_metrics WHERE window_size = $1`, window); err != nil {
			return fmt.Errorf("clear window %d: %w", window, err)
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"number_metrics"},
			[]string{"window_size", "number", "frequency", "overdue", "last_seen_draw_no"},
			pgx.CopyFromSlice(len(metrics), func(i int) ([]any, error) {
				m := metrics[i]
				return []any{window, m.Number, m.Frequency, m.Overdue, m.LastSeenDrawNo}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy window %d: %w", window, err)
		}
		return nil
	})
}

// -----------------------------------------------------------------------------
// Results
// -----------------------------------------------------------------------------

type resultStore struct{ pool *pgxpool.Pool }

// Save inserts every set with one pgx.Batch round trip.
func (s resultStore) Save(ctx context.Context, userID string, sets []model.GeneratedSet, strategy model.StrategyID) ([]model.GeneratedSet, error) {
	out := make([]model.GeneratedSet, len(sets))
	batch := &pgx.Batch{}
	for i, set := range sets {
		set.ID = uuid.NewString()
		set.Strategy = strategy

		tags, err := json.Marshal(set.Tags)
		if err != nil {
			return nil, err
		}
		cons, err := json.Marshal(set.Constraints)
		if err != nil {
			return nil, err
		}

		batch.Queue(`
			INSERT INTO generated_sets (id, user_id, set_index, n1, n2, n3, n4, n5, n6, tags, strategy, constraints, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, set.ID, userID, set.Index,
			set.Numbers[0], set.Numbers[1], set.Numbers[2], set.Numbers[3], set.Numbers[4], set.Numbers[5],
			tags, string(strategy), cons, set.CreatedAt)
		out[i] = set
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for range sets {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("insert generated set: %w", err)
			}
		}
		return results.Close()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s resultStore) FindByUser(ctx context.Context, userID string, page, size int) ([]model.GeneratedSet, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM generated_sets WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	if page < 1 || size < 1 {
		return nil, total, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id::text, set_index, n1, n2, n3, n4, n5, n6, tags, strategy, constraints, created_at
		FROM generated_sets WHERE user_id = $1
		ORDER BY created_at DESC, set_index DESC
		LIMIT $2 OFFSET $3`, userID, size, (page-1)*size)
	if err != nil {
		return nil, 0, err
	}
	sets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.GeneratedSet, error) {
		var (
			set        model.GeneratedSet
			tags, cons []byte
			strategy   string
		)
		err := row.Scan(&set.ID, &set.Index,
			&set.Numbers[0], &set.Numbers[1], &set.Numbers[2], &set.Numbers[3], &set.Numbers[4], &set.Numbers[5],
			&tags, &strategy, &cons, &set.CreatedAt)
		if err != nil {
			return set, err
		}
		if err := json.Unmarshal(tags, &set.Tags); err != nil {
			return set, fmt.Errorf("decode tags: %w", err)
		}
		if err := json.Unmarshal(cons, &set.Constraints); err != nil {
			return set, fmt.Errorf("decode constraints: %w", err)
		}
		set.Strategy = model.StrategyID(strategy)
		return set, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return sets, total, nil
}

// -----------------------------------------------------------------------------
// Sync state
// -----------------------------------------------------------------------------

type stateStore struct{ pool *pgxpool.Pool }

func (s stateStore) Load(ctx context.Context) (model.SyncState, error) {
	var (
		st                             model.SyncState
		started, lockUntil, lastSynced *time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT as_of_draw_no, refreshing, refresh_started_at, lock_until, last_error, last_synced_at, owner
		FROM sync_state WHERE id = 1`).
		Scan(&st.AsOfDrawNo, &st.Refreshing, &started, &lockUntil, &st.LastError, &lastSynced, &st.Owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SyncState{}, nil
	}
	if err != nil {
		return model.SyncState{}, err
	}
	st.RefreshStartedAt = deref(started)
	st.LockUntil = deref(lockUntil)
	st.LastSyncedAt = deref(lastSynced)
	return st, nil
}

// TryAcquire upserts the singleton row; the conditional update only fires
// when no live lease is held by another owner.
func (s stateStore) TryAcquire(ctx context.Context, owner string, now, lockUntil time.Time) (bool, error) {
	ct, err := s.pool.Exec(ctx, `
		INSERT INTO sync_state (id, refreshing, refresh_started_at, lock_until, owner)
		VALUES (1, true, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			refreshing = true,
			refresh_started_at = EXCLUDED.refresh_started_at,
			lock_until = EXCLUDED.lock_until,
			owner = EXCLUDED.owner
		WHERE NOT sync_state.refreshing
		   OR sync_state.lock_until IS NULL
		   OR sync_state.lock_until <= EXCLUDED.refresh_started_at
		   OR sync_state.owner = EXCLUDED.owner`,
		now, lockUntil, owner)
	if err != nil {
		return false, fmt.Errorf("acquire sync lease: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s stateStore) Release(ctx context.Context, owner string, asOfDrawNo int, lastErr string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sync_state SET
			refreshing = false,
			lock_until = NULL,
			owner = '',
			as_of_draw_no = GREATEST(as_of_draw_no, $2),
			last_error = $3,
			last_synced_at = $4
		WHERE id = 1 AND owner = $1`,
		owner, asOfDrawNo, lastErr, at)
	if err != nil {
		return fmt.Errorf("release sync lease: %w", err)
	}
	return nil
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
