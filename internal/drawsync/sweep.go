package drawsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/rickgao/lotto-engine/internal/progress"
)

// Report summarizes one sweep.
type Report struct {
	SyncID         string    `json:"syncId,omitempty"`
	Owner          string    `json:"owner,omitempty"`
	From           int       `json:"from"`
	To             int       `json:"to"`
	Expected       int       `json:"expected"`
	Skipped        int       `json:"skipped"`
	Inserted       int       `json:"inserted"`
	Retried        int       `json:"retried"`
	Failed         []int     `json:"failed,omitempty"`
	Pending        int       `json:"pending"`
	Aborted        bool      `json:"aborted"`
	Cancelled      bool      `json:"cancelled"`
	AlreadyRunning bool      `json:"alreadyRunning"`
	Shared         bool      `json:"shared"`
	AsOfDrawNo     int       `json:"asOfDrawNo,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
	Error          string    `json:"error,omitempty"`
	Err            error     `json:"-"`
}

// pass is the outcome of fetching one list of draw numbers.
type pass struct {
	failed   []int
	trailing int // consecutive failures at the end of failed
	pending  int // numbers never attempted
	aborted  bool
}

func (s *Service) sweep(ctx context.Context) *Report {
	rep := &Report{
		SyncID:    uuid.NewString(),
		Owner:     s.cfg.Owner,
		StartedAt: s.now(),
	}
	defer func() {
		rep.FinishedAt = s.now()
		if rep.Err != nil {
			rep.Error = rep.Err.Error()
		}
		s.publish(rep, progress.EventFinished, 0, rep.Error)
		s.logger.Info("sync finished",
			"sync_id", rep.SyncID,
			"expected", rep.Expected,
			"inserted", rep.Inserted,
			"failed", len(rep.Failed),
			"aborted", rep.Aborted,
			"cancelled", rep.Cancelled,
			"duration", rep.FinishedAt.Sub(rep.StartedAt),
		)
	}()

	missing, err := s.missing(ctx, rep)
	if err != nil {
		rep.Err = err
		return rep
	}
	rep.Expected = len(missing)
	s.publish(rep, progress.EventStarted, 0, "")
	s.logger.Info("sync started", "sync_id", rep.SyncID, "from", rep.From, "to", rep.To, "expected", rep.Expected)

	limit := rate.Inf
	if s.cfg.RequestDelay > 0 {
		limit = rate.Every(s.cfg.RequestDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	first := s.fetchAll(ctx, limiter, missing, rep)
	rep.Pending = first.pending
	rep.Aborted = first.aborted

	// The trailing run that ended the sweep is not retried.
	retry := first.failed
	var tail []int
	if first.aborted {
		retry = first.failed[:len(first.failed)-first.trailing]
		tail = first.failed[len(first.failed)-first.trailing:]
	}
	if len(retry) > 0 && !rep.Cancelled && rep.Err == nil && ctx.Err() == nil {
		rep.Retried = len(retry)
		s.publish(rep, progress.EventRetrying, 0, fmt.Sprintf("retrying %d draws", len(retry)))
		second := s.fetchAll(ctx, limiter, retry, rep)
		retry = append(second.failed, retry[len(retry)-second.pending:]...)
	}
	rep.Failed = append(retry, tail...)

	if err := ctx.Err(); err != nil && rep.Err == nil {
		rep.Err = err
	}

	if rep.Inserted > 0 {
		s.hasData.Store(dataPresent)
		if err := s.refresh(ctx); err != nil {
			rep.Err = errors.Join(rep.Err, err)
		}
	}
	if rep.Err == nil && rep.Expected > 0 && rep.Inserted == 0 && !rep.Cancelled {
		rep.Err = ErrNoProgress
	}
	return rep
}

// missing lists draw numbers between the lowest missing one and the latest
// published one that the store lacks.
func (s *Service) missing(ctx context.Context, rep *Report) ([]int, error) {
	from, err := s.deps.Draws.LowestMissing(ctx)
	if err != nil {
		return nil, fmt.Errorf("lowest missing draw: %w", err)
	}
	to := s.deps.Schedule.LatestDrawNo(s.now())
	rep.From, rep.To = from, to
	if to < from {
		return nil, nil
	}

	existing, err := s.deps.Draws.ExistingNumbers(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("existing draws: %w", err)
	}
	out := make([]int, 0, to-from+1-len(existing))
	for no := from; no <= to; no++ {
		if existing[no] {
			rep.Skipped++
			continue
		}
		out = append(out, no)
	}
	return out, nil
}

// fetchAll fetches and stores each draw in order. It stops on cancel, on
// context end, or after FailureThreshold consecutive failures.
func (s *Service) fetchAll(ctx context.Context, limiter *rate.Limiter, nos []int, rep *Report) pass {
	var p pass
	for i, no := range nos {
		if s.cancel.Load() {
			rep.Cancelled = true
			p.pending = len(nos) - i
			return p
		}
		if err := limiter.Wait(ctx); err != nil {
			p.pending = len(nos) - i
			return p
		}
		if err := s.renewLease(ctx); err != nil {
			rep.Err = err
			p.pending = len(nos) - i
			s.logger.Error("sync stopped", "sync_id", rep.SyncID, "err", err)
			return p
		}

		if err := s.fetchOne(ctx, no, rep); err != nil {
			p.failed = append(p.failed, no)
			p.trailing++
			s.logger.Warn("draw fetch failed", "sync_id", rep.SyncID, "draw_no", no, "err", err)
			s.publish(rep, progress.EventDrawFail, no, err.Error())
			if s.cfg.FailureThreshold > 0 && p.trailing >= s.cfg.FailureThreshold {
				p.aborted = true
				p.pending = len(nos) - i - 1
				s.logger.Warn("sync aborted after consecutive failures", "sync_id", rep.SyncID, "failures", p.trailing)
				return p
			}
			continue
		}
		p.trailing = 0
	}
	return p
}

// renewLease extends the persisted lease once half of it has elapsed.
func (s *Service) renewLease(ctx context.Context) error {
	now := s.now()
	if s.cfg.LeaseTTL <= 0 || now.Before(s.renewAt) {
		return nil
	}
	ok, err := s.deps.State.TryAcquire(ctx, s.cfg.Owner, now, now.Add(s.cfg.LeaseTTL))
	if err != nil {
		s.logger.Warn("sync lease renewal failed", "err", err)
		return nil
	}
	if !ok {
		return ErrLeaseLost
	}
	s.renewAt = now.Add(s.cfg.LeaseTTL / 2)
	s.logger.Debug("sync lease renewed", "lock_until", now.Add(s.cfg.LeaseTTL))
	return nil
}

func (s *Service) fetchOne(ctx context.Context, no int, rep *Report) error {
	d, err := s.deps.Source.FetchDraw(ctx, no)
	if err != nil {
		return err
	}
	ok, err := s.deps.Draws.Insert(ctx, d)
	if err != nil {
		return fmt.Errorf("insert draw %d: %w", no, err)
	}
	if ok {
		rep.Inserted++
		s.publish(rep, progress.EventDrawSaved, no, "")
		s.logger.Debug("draw saved", "sync_id", rep.SyncID, "draw_no", no)
	}
	return nil
}

// refresh rebuilds metrics and pattern stats.
func (s *Service) refresh(ctx context.Context) error {
	if s.deps.Metrics != nil {
		if err := s.deps.Metrics.RecomputeAll(ctx); err != nil {
			return fmt.Errorf("recompute metrics: %w", err)
		}
	}
	if s.deps.Patterns != nil {
		s.deps.Patterns.Invalidate()
		if err := s.deps.Patterns.RecomputeAll(ctx); err != nil {
			return fmt.Errorf("recompute pattern stats: %w", err)
		}
	}
	return nil
}

func (s *Service) publish(rep *Report, typ progress.EventType, drawNo int, msg string) {
	s.deps.Events.Publish(progress.Event{
		Type:     typ,
		SyncID:   rep.SyncID,
		DrawNo:   drawNo,
		Expected: rep.Expected,
		Inserted: rep.Inserted,
		Failed:   len(rep.Failed),
		Message:  msg,
		At:       s.now(),
	})
}
