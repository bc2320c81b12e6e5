package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rickgao/lotto-engine/internal/drawsync"
	"github.com/rickgao/lotto-engine/internal/server/response"
)

type syncStarted struct {
	Status string `json:"status"`
}

type syncCancelled struct {
	Cancelled bool `json:"cancelled"`
}

// handleSync starts a sweep. With ?wait=true it blocks and returns the
// report; otherwise the sweep runs in the background and 202 is returned.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if _, err := s.deps.Sync.Sync(s.ctx); err != nil {
				s.logger.Warn("admin sync failed", "err", err)
			}
		}()
		response.Accepted(w, syncStarted{Status: "started"})
		return
	}

	rep, err := s.deps.Sync.Sync(r.Context())
	switch {
	case errors.Is(err, drawsync.ErrSyncInProgress):
		response.Conflict(w, err, "sync_in_progress")
	case err != nil:
		s.logger.Error("admin sync failed", "err", err)
		response.InternalError(w, errors.New("sync failed"))
	default:
		response.Success(w, rep)
	}
}

func (s *Server) handleSyncCancel(w http.ResponseWriter, r *http.Request) {
	response.Success(w, syncCancelled{Cancelled: s.deps.Sync.Cancel()})
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Sync.Status(r.Context())
	if err != nil {
		s.logger.Error("sync status failed", "err", err)
		response.InternalError(w, errors.New("sync status unavailable"))
		return
	}
	response.Success(w, st)
}
