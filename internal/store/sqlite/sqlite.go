// Package sqlite implements the store ports on a local SQLite database.
//
// Dates are stored as YYYY-MM-DD text and timestamps as unix milliseconds.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/store"
)

const dateLayout = "2006-01-02"

// Store wraps a migrated *sql.DB.
type Store struct {
	db *sql.DB
}

// New creates a store over db. The schema must already be migrated.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Draws() store.DrawStore          { return drawStore{s.db} }
func (s *Store) Metrics() store.MetricsStore     { return metricsStore{s.db} }
func (s *Store) Results() store.ResultStore      { return resultStore{s.db} }
func (s *Store) SyncState() store.SyncStateStore { return stateStore{s.db} }
func (s *Store) Close() error                    { return s.db.Close() }

var _ store.Store = (*Store)(nil)

// -----------------------------------------------------------------------------
// Draws
// -----------------------------------------------------------------------------

const drawColumns = `draw_no, draw_date, n1, n2, n3, n4, n5, n6, bonus,
	first_prize, first_winners, first_accum, total_sales`

type drawStore struct{ db *sql.DB }

type scanner interface {
	Scan(dest ...any) error
}

func scanDraw(row scanner) (model.Draw, error) {
	var (
		d    model.Draw
		date string
	)
	err := row.Scan(&d.No, &date,
		&d.Numbers[0], &d.Numbers[1], &d.Numbers[2], &d.Numbers[3], &d.Numbers[4], &d.Numbers[5],
		&d.Bonus, &d.FirstPrize, &d.FirstWinners, &d.FirstAccum, &d.TotalSales)
	if err != nil {
		return model.Draw{}, err
	}
	d.Date, err = time.Parse(dateLayout, date)
	if err != nil {
		return model.Draw{}, fmt.Errorf("parse draw date %q: %w", date, err)
	}
	return d, nil
}

func (s drawStore) queryOne(ctx context.Context, query string, args ...any) (model.Draw, error) {
	d, err := scanDraw(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Draw{}, store.ErrNotFound
	}
	return d, err
}

func (s drawStore) queryMany(ctx context.Context, query string, args ...any) ([]model.Draw, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Draw
	for rows.Next() {
		d, err := scanDraw(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s drawStore) FindLatest(ctx context.Context) (model.Draw, error) {
	return s.queryOne(ctx, `SELECT `+drawColumns+` FROM draws ORDER BY draw_no DESC LIMIT 1`)
}

func (s drawStore) FindByNumber(ctx context.Context, no int) (model.Draw, error) {
	return s.queryOne(ctx, `SELECT `+drawColumns+` FROM draws WHERE draw_no = ?`, no)
}

func (s drawStore) FindRecent(ctx context.Context, n int) ([]model.Draw, error) {
	return s.queryMany(ctx, `SELECT `+drawColumns+` FROM draws ORDER BY draw_no DESC LIMIT ?`, n)
}

func (s drawStore) FindAfter(ctx context.Context, t time.Time) ([]model.Draw, error) {
	return s.queryMany(ctx, `SELECT `+drawColumns+` FROM draws WHERE draw_date > ? ORDER BY draw_no`,
		t.Format(dateLayout))
}

func (s drawStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM draws`).Scan(&n)
	return n, err
}

func (s drawStore) Insert(ctx context.Context, d model.Draw) (bool, error) {
	if err := d.Validate(); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO draws (`+drawColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (draw_no) DO NOTHING`,
		d.No, d.Date.Format(dateLayout),
		d.Numbers[0], d.Numbers[1], d.Numbers[2], d.Numbers[3], d.Numbers[4], d.Numbers[5],
		d.Bonus, d.FirstPrize, d.FirstWinners, d.FirstAccum, d.TotalSales)
	if err != nil {
		return false, fmt.Errorf("insert draw %d: %w", d.No, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s drawStore) ExistingNumbers(ctx context.Context, from, to int) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT draw_no FROM draws WHERE draw_no BETWEEN ? AND ?`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]bool)
	for rows.Next() {
		var no int
		if err := rows.Scan(&no); err != nil {
			return nil, err
		}
		out[no] = true
	}
	return out, rows.Err()
}

func (s drawStore) LowestMissing(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, lowestMissingQuery).Scan(&n)
	return n, err
}

const lowestMissingQuery = `
	SELECT CASE
		WHEN NOT EXISTS (SELECT 1 FROM draws WHERE draw_no = 1) THEN 1
		ELSE (SELECT MIN(d.draw_no) + 1 FROM draws d
		      WHERE NOT EXISTS (SELECT 1 FROM draws x WHERE x.draw_no = d.draw_no + 1))
	END`

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

type metricsStore struct{ db *sql.DB }

func (s metricsStore) FindByWindow(ctx context.Context, window int) ([]model.NumberMetric, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT window_size, number, frequency, overdue, last_seen_draw_no
		FROM number_metrics WHERE window_size = ? ORDER BY number`, window)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.NumberMetric
	for rows.Next() {
		var m model.NumberMetric
		if err := rows.Scan(&m.Window, &m.Number, &m.Frequency, &m.Overdue, &m.LastSeenDrawNo); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s metricsStore) ReplaceWindow(ctx context.Context, window int, metrics []model.NumberMetric) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM number_metrics WHERE window_size = ?`, window); err != nil {
		return fmt.Errorf("clear window %d: %w", window, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO number_metrics (window_size, number, frequency, overdue, last_seen_draw_no)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range metrics {
		if _, err := stmt.ExecContext(ctx, window, m.Number, m.Frequency, m.Overdue, m.LastSeenDrawNo); err != nil {
			return fmt.Errorf("insert metric %d/%d: %w", window, m.Number, err)
		}
	}
	return tx.Commit()
}

// -----------------------------------------------------------------------------
// Results
// -----------------------------------------------------------------------------

type resultStore struct{ db *sql.DB }

func (s resultStore) Save(ctx context.Context, userID string, sets []model.GeneratedSet, strategy model.StrategyID) ([]model.GeneratedSet, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	out := make([]model.GeneratedSet, len(sets))
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

		_, err = tx.ExecContext(ctx, `
			INSERT INTO generated_sets (id, user_id, set_index, n1, n2, n3, n4, n5, n6, tags, strategy, constraints, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			set.ID, userID, set.Index,
			set.Numbers[0], set.Numbers[1], set.Numbers[2], set.Numbers[3], set.Numbers[4], set.Numbers[5],
			string(tags), string(strategy), string(cons), set.CreatedAt.UnixMilli())
		if err != nil {
			return nil, fmt.Errorf("insert generated set: %w", err)
		}
		out[i] = set
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s resultStore) FindByUser(ctx context.Context, userID string, page, size int) ([]model.GeneratedSet, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generated_sets WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	if page < 1 || size < 1 {
		return nil, total, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, set_index, n1, n2, n3, n4, n5, n6, tags, strategy, constraints, created_at
		FROM generated_sets WHERE user_id = ?
		ORDER BY created_at DESC, set_index DESC
		LIMIT ? OFFSET ?`, userID, size, (page-1)*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.GeneratedSet
	for rows.Next() {
		var (
			set        model.GeneratedSet
			tags, cons string
			strategy   string
			created    int64
		)
		err := rows.Scan(&set.ID, &set.Index,
			&set.Numbers[0], &set.Numbers[1], &set.Numbers[2], &set.Numbers[3], &set.Numbers[4], &set.Numbers[5],
			&tags, &strategy, &cons, &created)
		if err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal([]byte(tags), &set.Tags); err != nil {
			return nil, 0, fmt.Errorf("decode tags: %w", err)
		}
		if err := json.Unmarshal([]byte(cons), &set.Constraints); err != nil {
			return nil, 0, fmt.Errorf("decode constraints: %w", err)
		}
		set.Strategy = model.StrategyID(strategy)
		set.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, set)
	}
	return out, total, rows.Err()
}

// -----------------------------------------------------------------------------
// Sync state
// -----------------------------------------------------------------------------

type stateStore struct{ db *sql.DB }

func (s stateStore) Load(ctx context.Context) (model.SyncState, error) {
	var (
		st                             model.SyncState
		refreshing                     bool
		started, lockUntil, lastSynced int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT as_of_draw_no, refreshing, refresh_started_at, lock_until, last_error, last_synced_at, owner
		FROM sync_state WHERE id = 1`).
		Scan(&st.AsOfDrawNo, &refreshing, &started, &lockUntil, &st.LastError, &lastSynced, &st.Owner)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SyncState{}, nil
	}
	if err != nil {
		return model.SyncState{}, err
	}
	st.Refreshing = refreshing
	st.RefreshStartedAt = fromMillis(started)
	st.LockUntil = fromMillis(lockUntil)
	st.LastSyncedAt = fromMillis(lastSynced)
	return st, nil
}

func (s stateStore) TryAcquire(ctx context.Context, owner string, now, lockUntil time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (id, refreshing, refresh_started_at, lock_until, owner)
		VALUES (1, 1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			refreshing = 1,
			refresh_started_at = excluded.refresh_started_at,
			lock_until = excluded.lock_until,
			owner = excluded.owner
		WHERE sync_state.refreshing = 0
		   OR sync_state.lock_until <= excluded.refresh_started_at
		   OR sync_state.owner = excluded.owner`,
		now.UnixMilli(), lockUntil.UnixMilli(), owner)
	if err != nil {
		return false, fmt.Errorf("acquire sync lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s stateStore) Release(ctx context.Context, owner string, asOfDrawNo int, lastErr string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_state SET
			refreshing = 0,
			lock_until = 0,
			owner = '',
			as_of_draw_no = MAX(as_of_draw_no, ?),
			last_error = ?,
			last_synced_at = ?
		WHERE id = 1 AND owner = ?`,
		asOfDrawNo, lastErr, at.UnixMilli(), owner)
	if err != nil {
		return fmt.Errorf("release sync lease: %w", err)
	}
	return nil
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
