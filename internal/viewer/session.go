package viewer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Bahjat/wp-posts-viewer/internal/platform/errs"
	"github.com/Bahjat/wp-posts-viewer/internal/platform/requestid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInputLength = 4096
)

// Input frame fields.
const (
	FieldPageSize = "per_page"
	FieldSite     = "site"
)

var errUnknownField = errors.New("unknown input field")

// inputFrame is what the browser sends on every keystroke.
type inputFrame struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// outputFrame is what the session pushes back.
type outputFrame struct {
	Type       string `json:"type"`
	State      string `json:"state,omitempty"`
	Validating bool   `json:"validating,omitempty"`
	Target     string `json:"target,omitempty"`
	HTML       string `json:"html,omitempty"`
	Message    string `json:"message,omitempty"`
}

type eventKind int

const (
	eventInput eventKind = iota
	eventSiteSettled
	eventEntry
)

type event struct {
	kind  eventKind
	input inputFrame
	entry Entry
}

// Session is one live page. Its event loop is the only goroutine that
// touches the connection for writing and the current target, so input,
// debounce firings, and cache transitions are applied one at a time.
type Session struct {
	id     string
	shell  *Shell
	conn   *websocket.Conn
	logger *slog.Logger

	state  *InputState
	events chan event
	done   chan struct{}
	ctx    context.Context

	target      string
	unsubscribe func()
}

func newSession(shell *Shell, conn *websocket.Conn, logger *slog.Logger, pageSize, site string) *Session {
	id := uuid.New().String()
	s := &Session{
		id:     id,
		shell:  shell,
		conn:   conn,
		logger: logger.With("session_id", id),
		events: make(chan event, 16),
		done:   make(chan struct{}),
		ctx:    context.Background(),
	}
	s.state = shell.NewInputState(pageSize, site, func(string) {
		s.post(event{kind: eventSiteSettled})
	})
	return s
}

// Run drives the session until the connection closes or ctx ends.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(requestid.WithSession(ctx, s.id))
	defer cancel()
	s.ctx = ctx
	defer close(s.done)
	defer s.state.Close()
	defer func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
	}()

	s.logger.Info("live session started", "request_id", requestid.FromContext(ctx))

	readErr := make(chan error, 1)
	go func() { readErr <- s.readLoop() }()

	if err := s.retarget(); err != nil {
		return err
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info("live session closed")
				return nil
			}
			s.logger.Warn("live session read failed", "error", err)
			return err

		case ev := <-s.events:
			if err := s.handle(ev); err != nil {
				return err
			}

		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}

func (s *Session) readLoop() error {
	s.conn.SetReadLimit(maxInputLength)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, r, err := s.conn.NextReader()
		if err != nil {
			return err
		}
		var in inputFrame
		if err := json.NewDecoder(r).Decode(&in); err != nil {
			s.logger.Warn("ignoring undecodable input frame", "error", err)
			continue
		}
		if !s.post(event{kind: eventInput, input: in}) {
			return nil
		}
	}
}

// post hands an event to the loop; it reports false once the session is over.
func (s *Session) post(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) handle(ev event) error {
	switch ev.kind {
	case eventInput:
		switch ev.input.Field {
		case FieldPageSize:
			s.state.SetPageSize(ev.input.Value)
			return s.retarget()
		case FieldSite:
			s.state.SetSite(ev.input.Value)
			return nil
		default:
			s.logger.Warn("ignoring input", "error", errUnknownField, "field", ev.input.Field)
			return nil
		}

	case eventSiteSettled:
		return s.retarget()

	case eventEntry:
		// Results for targets this session has moved away from are dropped.
		if ev.entry.Key != s.target {
			return nil
		}
		return s.render(ev.entry)
	}
	return nil
}

// retarget recomputes the request target and, when it changed, moves the
// cache subscription, revalidates the new target, and renders whatever the
// cache holds for it in the meantime.
func (s *Session) retarget() error {
	target := s.state.Target()
	if target == s.target {
		return nil
	}

	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.target = target
	s.unsubscribe = s.shell.cache.Subscribe(target, func(e Entry) {
		s.post(event{kind: eventEntry, entry: e})
	})

	s.logger.Debug("target changed", "target", target)
	return s.render(s.shell.cache.Revalidate(s.ctx, target))
}

func (s *Session) render(e Entry) error {
	var buf bytes.Buffer
	if err := s.shell.RenderResults(&buf, s.target, e); err != nil {
		s.logger.Error("render failed", "target", s.target, "error", err)
		msg := "The posts could not be rendered."
		var appErr *errs.AppError
		if errors.As(err, &appErr) {
			msg = appErr.Message
		}
		return s.write(outputFrame{Type: "error", Target: s.target, Message: msg})
	}

	return s.write(outputFrame{
		Type:       "render",
		State:      e.State.String(),
		Validating: e.Validating,
		Target:     s.target,
		HTML:       buf.String(),
	})
}

func (s *Session) write(f outputFrame) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(f)
}
