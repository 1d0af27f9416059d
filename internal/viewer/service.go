package viewer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Bahjat/wp-posts-viewer/internal/model"
	"github.com/Bahjat/wp-posts-viewer/internal/platform/errs"
	"github.com/Bahjat/wp-posts-viewer/internal/platform/requestid"
)

// Service wraps a PostsProvider and logs each fetch outcome. Its Fetch is
// the fetcher behind the shared cache.
type Service struct {
	provider PostsProvider
	logger   *slog.Logger
}

// NewService creates a Service backed by the given provider.
func NewService(provider PostsProvider, logger *slog.Logger) *Service {
	return &Service{provider: provider, logger: logger}
}

// Fetch delegates to the provider and logs the outcome. A payload that
// carries a logical error is still returned as a success.
func (s *Service) Fetch(ctx context.Context, target string) (*model.Payload, error) {
	logger := s.logger.With("target", target, "request_id", requestid.FromContext(ctx))
	if session := requestid.SessionFromContext(ctx); session != "" {
		logger = logger.With("session_id", session)
	}

	payload, err := s.provider.Fetch(ctx, target)
	if err != nil {
		var appErr *errs.AppError
		if !errors.As(err, &appErr) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = &errs.AppError{
				Kind:    errs.Timeout,
				Message: "The posts API took too long to respond.",
				Cause:   err,
			}
		}

		attrs := []any{"error", err}
		if errors.As(err, &appErr) {
			attrs = append(attrs, "kind", appErr.Kind.String())
			if appErr.UpstreamStatus != 0 {
				attrs = append(attrs, "upstream_status", appErr.UpstreamStatus)
			}
		}
		logger.Error("posts fetch failed", attrs...)
		return nil, err
	}

	if status, failed := payload.LogicalFailure(); failed {
		logger.Warn("posts API reported an error",
			"status", status,
			"code", model.Text(payload.Error.Code),
			"message", model.Text(payload.Error.Message),
		)
		return payload, nil
	}

	logger.Info("posts fetch complete", "posts", len(payload.PostList()))
	return payload, nil
}
