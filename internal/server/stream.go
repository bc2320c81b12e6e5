package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/lotto-engine/internal/progress"
	"github.com/rickgao/lotto-engine/internal/server/response"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// handleSyncStream upgrades to a websocket and forwards sync progress events
// as JSON text frames until either side goes away.
func (s *Server) handleSyncStream(w http.ResponseWriter, r *http.Request) {
	if s.deps.Hub == nil {
		response.ServiceUnavailable(w, errors.New("progress stream disabled"), "stream_disabled")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	sub := s.deps.Hub.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	defer close(done)

	go s.readPump(conn, sub)
	go s.pingPump(conn, sub, done)

	for {
		ev, ok := sub.Next()
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := conn.WriteJSON(ev); err != nil {
			s.logger.Debug("websocket write failed", "err", err)
			return
		}
	}
}

// readPump drains client frames so pongs and closes are processed.
func (s *Server) readPump(conn *websocket.Conn, sub *progress.Subscription) {
	defer sub.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", "err", err)
			}
			return
		}
	}
}

// pingPump keeps the connection alive and ends the stream on shutdown.
// WriteControl may run concurrently with the writer.
func (s *Server) pingPump(conn *websocket.Conn, sub *progress.Subscription, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-s.ctx.Done():
			sub.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				sub.Close()
				return
			}
		}
	}
}
