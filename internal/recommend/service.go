// Package recommend turns API requests into engine calls: it checks whether
// history exists, loads number metrics, paces heuristic strategies and
// persists sets for identified users.
package recommend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rickgao/lotto-engine/internal/engine"
	"github.com/rickgao/lotto-engine/internal/metrics"
	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/store"
)

// History page sizing.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// DataChecker reports whether any draw history is stored.
type DataChecker interface {
	HasData(ctx context.Context) (bool, error)
}

// Generator produces combinations.
type Generator interface {
	Generate(ctx context.Context, req engine.Request) (*engine.Result, error)
}

// Pauser delays heuristic requests. It may fail with pacer.ErrBusy.
type Pauser interface {
	Pause(ctx context.Context) error
}

// Deps are the collaborators of a Service. Pacer and Results may be nil.
type Deps struct {
	Data    DataChecker
	Metrics store.MetricsStore
	Results store.ResultStore
	Engine  Generator
	Pacer   Pauser
}

// Request is one recommendation call.
type Request struct {
	Strategy    model.StrategyID
	Constraints model.Constraints
	Count       int
	Window      int
	UserID      string
}

// Response carries the generated sets.
type Response struct {
	Strategy model.StrategyID     `json:"strategy"`
	Window   int                  `json:"windowSize"`
	HasData  bool                 `json:"hasData"`
	Stats    model.PatternStats   `json:"patternStats"`
	Sets     []model.GeneratedSet `json:"sets"`
}

// Page is one page of a user's saved sets.
type Page struct {
	Sets  []model.GeneratedSet `json:"sets"`
	Page  int                  `json:"page"`
	Size  int                  `json:"size"`
	Total int                  `json:"total"`
}

// Service is safe for concurrent use.
type Service struct {
	deps   Deps
	logger *slog.Logger
}

// New creates a Service.
func New(deps Deps, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{deps: deps, logger: logger.With("component", "recommend")}
}

// Recommend generates sets for req. Without stored history every strategy
// falls back to unweighted sampling.
func (s *Service) Recommend(ctx context.Context, req Request) (*Response, error) {
	if req.Window == 0 {
		req.Window = model.DefaultWindow
	}

	has, err := s.deps.Data.HasData(ctx)
	if err != nil {
		return nil, fmt.Errorf("check history: %w", err)
	}
	var ms map[int]model.NumberMetric
	if has && model.ValidWindow(req.Window) {
		ms, err = metrics.Load(ctx, s.deps.Metrics, req.Window)
		if err != nil {
			return nil, err
		}
	}

	res, err := s.deps.Engine.Generate(ctx, engine.Request{
		Strategy:    req.Strategy,
		Constraints: req.Constraints,
		Count:       req.Count,
		Window:      req.Window,
		Metrics:     ms,
	})
	if err != nil {
		return nil, err
	}

	// Heuristic strategies wait after computing and before anything is saved.
	if req.Strategy.IsHeuristic() && s.deps.Pacer != nil {
		if err := s.deps.Pacer.Pause(ctx); err != nil {
			return nil, err
		}
	}

	sets := res.Sets
	if req.UserID != "" && s.deps.Results != nil && len(sets) > 0 {
		sets, err = s.deps.Results.Save(ctx, req.UserID, sets, req.Strategy)
		if err != nil {
			return nil, fmt.Errorf("save sets: %w", err)
		}
		s.logger.Info("sets saved", "user_id", req.UserID, "strategy", req.Strategy, "count", len(sets))
	}

	return &Response{
		Strategy: res.Strategy,
		Window:   res.Window,
		HasData:  has,
		Stats:    res.Stats,
		Sets:     sets,
	}, nil
}

// History returns one page of a user's saved sets, newest first. Page
// numbers start at 1; out-of-range values are clamped.
func (s *Service) History(ctx context.Context, userID string, page, size int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	size = min(size, MaxPageSize)

	sets, total, err := s.deps.Results.FindByUser(ctx, userID, page, size)
	if err != nil {
		return nil, fmt.Errorf("find sets for user: %w", err)
	}
	if sets == nil {
		sets = []model.GeneratedSet{}
	}
	return &Page{Sets: sets, Page: page, Size: size, Total: total}, nil
}
