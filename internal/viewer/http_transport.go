package viewer

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Bahjat/wp-posts-viewer/internal/model"
	"github.com/Bahjat/wp-posts-viewer/internal/platform/errs"
	"github.com/Bahjat/wp-posts-viewer/internal/platform/requestid"
	"github.com/Bahjat/wp-posts-viewer/internal/swr"
)

//go:embed static
var staticFS embed.FS

// Transport handles the page, the live socket, and the JSON view.
type Transport struct {
	shell    *Shell
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewTransport creates an HTTP transport backed by the given shell.
func NewTransport(shell *Shell, logger *slog.Logger) *Transport {
	return &Transport{
		shell:  shell,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 << 10,
		},
	}
}

// RegisterRoutes attaches the transport's handlers to the given mux.
func (t *Transport) RegisterRoutes(mux *http.ServeMux) {
	static, _ := fs.Sub(staticFS, "static")

	mux.HandleFunc("GET /{$}", t.handlePage)
	mux.HandleFunc("GET /live", t.handleLive)
	mux.HandleFunc("GET /api/posts", t.handlePosts)
	mux.HandleFunc("GET /health", t.handleHealth)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
}

func (t *Transport) inputs(r *http.Request) (string, string) {
	q := r.URL.Query()
	return t.shell.Inputs(q.Get(FieldPageSize), q.Get(FieldSite))
}

// handlePage serves the full document. Every load fetches the target again
// and waits for it so a client without JavaScript still sees fresh posts.
func (t *Transport) handlePage(w http.ResponseWriter, r *http.Request) {
	pageSize, site := t.inputs(r)
	target := t.shell.Target(pageSize, site)

	entry, err := t.shell.Load(r.Context(), target)
	if err != nil {
		t.logger.Warn("page rendered before fetch settled",
			"target", target,
			"error", err,
			"request_id", requestid.FromContext(r.Context()),
		)
	}

	var buf bytes.Buffer
	if err := t.shell.RenderPage(&buf, pageSize, site, entry); err != nil {
		t.logger.Error("page render failed",
			"target", target,
			"error", err,
			"request_id", requestid.FromContext(r.Context()),
		)
		http.Error(w, "The posts could not be rendered.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) handleLive(w http.ResponseWriter, r *http.Request) {
	pageSize, site := t.inputs(r)

	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		t.logger.Warn("websocket upgrade failed", "error", err, "request_id", requestid.FromContext(r.Context()))
		return
	}
	defer func() { _ = conn.Close() }()

	sess := newSession(t.shell, conn, t.logger, pageSize, site)
	if err := sess.Run(r.Context()); err != nil && !errors.Is(err, context.Canceled) {
		t.logger.Debug("live session ended", "session_id", sess.id, "error", err)
	}
}

// handlePosts returns the cache entry for the requested inputs as JSON.
func (t *Transport) handlePosts(w http.ResponseWriter, r *http.Request) {
	pageSize, site := t.inputs(r)
	target := t.shell.Target(pageSize, site)

	entry, err := t.shell.Load(r.Context(), target)
	if err != nil {
		t.handleServiceError(w, &errs.AppError{
			Kind:    errs.Timeout,
			Message: "The posts API took too long to respond.",
			Cause:   err,
		})
		return
	}
	if entry.State == swr.Failed {
		t.handleServiceError(w, entry.Err)
		return
	}

	status, _ := entry.Value.LogicalFailure()
	t.renderJSON(w, http.StatusOK, model.PostsResponse{
		Target:        target,
		State:         entry.State.String(),
		LogicalStatus: status,
		Payload:       entry.Value,
	})
}

func (t *Transport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	t.renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (t *Transport) handleServiceError(w http.ResponseWriter, err error) {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Kind {
		case errs.InvalidInput:
			status = http.StatusBadRequest
		case errs.Unreachable, errs.ParsingFailed:
			status = http.StatusBadGateway
		case errs.Timeout:
			status = http.StatusGatewayTimeout
		case errs.RenderFailed, errs.Unknown:
			// 500 Internal Server Error
		}
		t.renderError(w, status, appErr.Message)
		return
	}

	t.renderError(w, http.StatusInternalServerError, "An unexpected error occurred.")
}

func (t *Transport) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		t.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) renderError(w http.ResponseWriter, status int, message string) {
	t.renderJSON(w, status, model.ErrorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    message,
	})
}
