package live

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vango-dev/pushroute/pkg/metrics"
	"github.com/vango-dev/pushroute/pkg/routepath"
	"github.com/vango-dev/pushroute/pkg/router"
	"github.com/vango-dev/pushroute/pkg/site"
)

// Session drives one browser tab. It owns a router whose location, display
// region and history stack live in the remote tab; every router side effect
// becomes a message on the connection.
//
// Messages are handled one at a time by ReadLoop, which is the router's
// event loop.
type Session struct {
	ID string

	conn    *websocket.Conn
	writeMu sync.Mutex

	router   *router.Router
	triggers *router.Triggers

	path      string
	query     string
	listeners []func(router.HistoryEvent)

	config  *Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newSession(conn *websocket.Conn, s *site.Site, config *Config, logger *slog.Logger, m *metrics.Metrics) (*Session, error) {
	id := uuid.NewString()
	sess := &Session{
		ID:      id,
		conn:    conn,
		path:    routepath.Root,
		config:  config,
		logger:  logger.With("session_id", id),
		metrics: m,
	}

	opts := append(s.RouterOptions(),
		router.WithLogger(sess.logger),
		router.WithMetrics(m),
	)
	sess.router = router.New(
		sess,
		router.RenderFunc(sess.render),
		sess,
		opts...,
	)

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(config.ReadTimeout))
	})

	triggers, err := s.Mount(sess.router)
	if err != nil {
		return nil, err
	}
	sess.triggers = triggers
	return sess, nil
}

// PushState implements router.History.
func (s *Session) PushState(state router.State, title, url string) error {
	s.setPath(url)
	return s.send(ServerMessage{Op: OpPush, State: &state, Title: title, URL: url})
}

// ReplaceState implements router.History.
func (s *Session) ReplaceState(state router.State, title, url string) error {
	s.setPath(url)
	return s.send(ServerMessage{Op: OpReplace, State: &state, Title: title, URL: url})
}

// Path implements router.Location. It is the pathname of the tab as last
// reported by resolve or set by a push.
func (s *Session) Path() string {
	return s.path
}

// Search implements router.SearchLocation.
func (s *Session) Search() string {
	return s.query
}

// Subscribe implements router.History.
func (s *Session) Subscribe(fn func(router.HistoryEvent)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Session) render(content, title string) error {
	return s.send(ServerMessage{Op: OpRender, Content: content, Title: title})
}

func (s *Session) setPath(url string) {
	s.path, s.query, _ = strings.Cut(url, "?")
}

// ReadLoop reads and handles client messages until the connection closes or
// ctx is done.
func (s *Session) ReadLoop(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() {
		s.conn.Close()
	})
	defer stop()

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
				s.metrics.RecordWebSocketError("read")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("message decode error", "error", err)
			s.sendError(ErrCodeBadMessage, "invalid message")
			continue
		}
		s.handle(ctx, msg)
	}
}

func (s *Session) handle(ctx context.Context, msg ClientMessage) {
	switch msg.Op {
	case OpResolve:
		path, err := routepath.NavTarget(msg.Path)
		if err != nil {
			s.sendError(ErrCodeBadPath, err.Error())
			return
		}
		s.setPath(path)
		if err := s.router.ResolveCurrentContext(ctx); err != nil {
			s.navigationFailed(err)
		}

	case OpNavigate:
		target, err := routepath.NavTarget(msg.Path)
		if err != nil {
			s.sendError(ErrCodeBadPath, err.Error())
			return
		}
		if err := s.router.NavigateContext(ctx, target); err != nil {
			s.navigationFailed(err)
		}

	case OpClick:
		if err := s.triggers.Dispatch(msg.ID); err != nil {
			if errors.Is(err, router.ErrUnknownTrigger) {
				s.sendError(ErrCodeUnknownClick, err.Error())
				return
			}
			s.navigationFailed(err)
		}

	case OpPopState:
		state, err := router.ParseState(msg.State)
		if err != nil {
			s.logger.Warn("rejected history state", "error", err)
			s.metrics.RecordReplay(err)
			s.sendError(ErrCodeBadState, err.Error())
			return
		}
		ev := router.HistoryEvent{State: state}
		for _, fn := range s.listeners {
			fn(ev)
		}

	default:
		s.sendError(ErrCodeUnknownOp, "unknown op "+msg.Op)
	}
}

func (s *Session) navigationFailed(err error) {
	s.logger.Warn("navigation failed", "error", err)
	s.sendError(ErrCodeNavigation, err.Error())
}

func (s *Session) sendError(code, message string) {
	if err := s.send(ServerMessage{Op: OpError, Code: code, Message: message}); err != nil {
		s.logger.Debug("error reply not sent", "error", err)
	}
}

func (s *Session) send(msg ServerMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.metrics.RecordWebSocketError("write")
		return err
	}
	return nil
}

// pingLoop keeps idle connections alive until done is closed.
func (s *Session) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.config.WriteTimeout))
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
