package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bahjat/wp-posts-viewer/internal/model"
	"github.com/Bahjat/wp-posts-viewer/internal/platform/config"
	"github.com/Bahjat/wp-posts-viewer/internal/platform/logger"
	"github.com/Bahjat/wp-posts-viewer/internal/platform/middleware"
	"github.com/Bahjat/wp-posts-viewer/internal/swr"
	"github.com/Bahjat/wp-posts-viewer/internal/viewer"
	"github.com/Bahjat/wp-posts-viewer/internal/wordpress"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.LogLevel)

	client := wordpress.NewClient(cfg.FetchTimeout, cfg.RateLimit, cfg.RateBurst)
	service := viewer.NewService(client, log)

	cache := swr.New[*model.Payload](service.Fetch, cfg.FetchTimeout, swr.WithMaxEntries(cfg.CacheMaxEntries))
	defer cache.Close()

	shell := viewer.NewShell(
		cache,
		viewer.NewRenderer(cfg.Location(), viewer.ParseTitleMode(cfg.TitleMarkup)),
		wordpress.Builder{Host: cfg.APIHost},
		viewer.Settings{
			DefaultPageSize: cfg.DefaultPerPage,
			DefaultSite:     cfg.DefaultSite,
			Debounce:        cfg.DebounceInterval,
			FetchTimeout:    cfg.FetchTimeout,
		},
	)

	mux := http.NewServeMux()
	viewer.NewTransport(shell, log).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.RequestID(middleware.Logging(log)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("viewer started", "addr", srv.Addr, "api_host", cfg.APIHost, "default_site", cfg.DefaultSite)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
