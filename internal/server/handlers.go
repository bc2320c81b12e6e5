package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rickgao/lotto-engine/internal/engine"
	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/pacer"
	"github.com/rickgao/lotto-engine/internal/recommend"
	"github.com/rickgao/lotto-engine/internal/server/response"
	"github.com/rickgao/lotto-engine/internal/store"
	"github.com/rickgao/lotto-engine/internal/strategy"
	"github.com/rickgao/lotto-engine/internal/version"
)

const maxBodyBytes = 64 << 10

type healthResponse struct {
	Status  string       `json:"status"`
	HasData bool         `json:"hasData"`
	Version version.Info `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	has, err := s.deps.Sync.HasData(r.Context())
	if err != nil {
		s.logger.Error("health check failed", "err", err)
		response.ServiceUnavailable(w, errors.New("store unavailable"), "store_unavailable")
		return
	}
	response.JSON(w, http.StatusOK, healthResponse{Status: "ok", HasData: has, Version: version.Get()})
}

type strategyInfo struct {
	ID               model.StrategyID `json:"id"`
	Heuristic        bool             `json:"heuristic"`
	UsesPatternStats bool             `json:"usesPatternStats"`
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	out := make([]strategyInfo, 0, len(model.StrategyIDs))
	for _, id := range model.StrategyIDs {
		out = append(out, strategyInfo{
			ID:               id,
			Heuristic:        id.IsHeuristic(),
			UsesPatternStats: id.UsesPatternStats(),
		})
	}
	response.Success(w, out)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		response.BadRequest(w, fmt.Errorf("invalid body: %w", err))
		return
	}
	if err := req.normalize(s.cfg.DefaultCount, s.cfg.MaxCount, s.cfg.DefaultWindow); err != nil {
		response.BadRequest(w, err)
		return
	}

	res, err := s.deps.Recommender.Recommend(r.Context(), recommend.Request{
		Strategy:    model.StrategyID(req.Strategy),
		Constraints: *req.Constraints,
		Count:       req.Count,
		Window:      req.WindowSize,
		UserID:      req.UserID,
	})
	switch {
	case errors.Is(err, pacer.ErrBusy):
		response.ServiceUnavailable(w, errors.New("too many requests in progress, retry shortly"), "busy")
	case errors.Is(err, engine.ErrInvalidRequest), errors.Is(err, strategy.ErrUnknownStrategy):
		response.BadRequest(w, err)
	case err != nil:
		s.logger.Error("recommendation failed", "strategy", req.Strategy, "err", err)
		response.InternalError(w, errors.New("recommendation failed"))
	default:
		response.Success(w, res)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("userId")
	if userID == "" {
		response.BadRequest(w, errors.New("userId is required"))
		return
	}
	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		response.BadRequest(w, fmt.Errorf("page: %w", err))
		return
	}
	size, err := intParam(q.Get("size"), recommend.DefaultPageSize)
	if err != nil {
		response.BadRequest(w, fmt.Errorf("size: %w", err))
		return
	}

	p, err := s.deps.Recommender.History(r.Context(), userID, page, size)
	if err != nil {
		s.logger.Error("history lookup failed", "user_id", userID, "err", err)
		response.InternalError(w, errors.New("history lookup failed"))
		return
	}
	response.Paginated(w, p.Sets, p.Page, p.Size, p.Total)
}

func (s *Server) handleLatestDraw(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Draws.FindLatest(r.Context())
	s.writeDraw(w, d, err)
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	no, err := strconv.Atoi(chi.URLParam(r, "drawNo"))
	if err != nil || no < 1 {
		response.BadRequest(w, errors.New("drawNo must be a positive integer"))
		return
	}
	d, err := s.deps.Draws.FindByNumber(r.Context(), no)
	s.writeDraw(w, d, err)
}

func (s *Server) writeDraw(w http.ResponseWriter, d model.Draw, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.NotFound(w, errors.New("draw not found"))
	case err != nil:
		s.logger.Error("draw lookup failed", "err", err)
		response.InternalError(w, errors.New("draw lookup failed"))
	default:
		response.Success(w, d)
	}
}

func (s *Server) handlePatternStats(w http.ResponseWriter, r *http.Request) {
	window, err := intParam(r.URL.Query().Get("window"), s.cfg.DefaultWindow)
	if err != nil || !model.ValidWindow(window) {
		response.BadRequest(w, fmt.Errorf("window must be one of %v", model.Windows))
		return
	}
	stats, err := s.deps.Patterns.Get(r.Context(), window)
	if err != nil {
		s.logger.Error("pattern stats failed", "window", window, "err", err)
		response.InternalError(w, errors.New("pattern stats unavailable"))
		return
	}
	response.Success(w, stats)
}

// intParam parses an optional query integer.
func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	return n, nil
}
