package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rickgao/bitcoin-explorer/internal/hub"
)

// Client frames are never interpreted; anything larger is a protocol abuse.
const maxClientFrame = 512

// TransportError reports that a subscriber's connection can no longer
// accept writes.
type TransportError struct {
	Subscriber uuid.UUID
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("subscriber %s: transport: %v", e.Subscriber, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	sub, err := s.deps.Hub.Subscribe()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "live feed unavailable")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		sub.Close()
		s.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	sess := newSession(conn, sub, s.cfg.WriteTimeout, s.cfg.PingInterval, s.logger)
	sess.run()
}

// session forwards one subscription to one WebSocket connection.
type session struct {
	conn         *websocket.Conn
	sub          *hub.Subscription
	writeTimeout time.Duration
	pingInterval time.Duration
	logger       *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(conn *websocket.Conn, sub *hub.Subscription, writeTimeout, pingInterval time.Duration, logger *slog.Logger) *session {
	return &session{
		conn:         conn,
		sub:          sub,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		logger:       logger.With("subscriber", sub.ID(), "remote", conn.RemoteAddr().String()),
		done:         make(chan struct{}),
	}
}

// run forwards messages until the subscription ends or a write fails.
func (s *session) run() {
	s.logger.Info("subscriber connected")
	defer s.close()

	go s.readLoop()
	go s.pingLoop()

	for {
		msg, ok := s.sub.Receive()
		if !ok {
			// Hub closed or reader saw the client leave
			s.writeClose(websocket.CloseGoingAway, "shutting down")
			return
		}

		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			terr := &TransportError{Subscriber: s.sub.ID(), Err: err}
			s.logger.Warn("dropping subscriber", "err", terr)
			return
		}
	}
}

// readLoop discards client frames so control frames (pong, close) are
// processed. It ends the subscription once the connection fails.
func (s *session) readLoop() {
	defer s.sub.Close()

	s.conn.SetReadLimit(maxClientFrame)
	pongWait := 2 * s.pingInterval
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, websocket.ErrCloseSent) {
				s.logger.Debug("subscriber read failed", "err", err)
			}
			return
		}
	}
}

// pingLoop keeps the connection alive. A failed ping ends the subscription.
func (s *session) pingLoop() {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(s.writeTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Debug("subscriber ping failed", "err", &TransportError{Subscriber: s.sub.ID(), Err: err})
				s.sub.Close()
				return
			}
		}
	}
}

func (s *session) writeClose(code int, text string) {
	deadline := time.Now().Add(s.writeTimeout)
	s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.sub.Close()
		s.conn.Close()
		s.logger.Info("subscriber disconnected")
	})
}
