package viewer

import (
	"context"
	"io"
	"time"

	"github.com/Bahjat/wp-posts-viewer/internal/model"
	"github.com/Bahjat/wp-posts-viewer/internal/swr"
	"github.com/Bahjat/wp-posts-viewer/internal/wordpress"
)

// Settings are the page defaults and timings.
type Settings struct {
	DefaultPageSize string
	DefaultSite     string
	Debounce        time.Duration
	FetchTimeout    time.Duration
}

// Cache is the fetch cache the shell reads posts payloads from.
type Cache = swr.Cache[*model.Payload]

// Entry is one cache entry.
type Entry = swr.Entry[*model.Payload]

// Shell composes input state, target building, the fetch cache, and the
// renderer into pages.
type Shell struct {
	cache    *Cache
	renderer *Renderer
	builder  wordpress.Builder
	settings Settings
}

// NewShell returns a Shell.
func NewShell(cache *Cache, renderer *Renderer, builder wordpress.Builder, settings Settings) *Shell {
	return &Shell{
		cache:    cache,
		renderer: renderer,
		builder:  builder,
		settings: settings,
	}
}

// Inputs resolves query-string values against the defaults.
func (s *Shell) Inputs(pageSize, site string) (string, string) {
	if pageSize == "" {
		pageSize = s.settings.DefaultPageSize
	}
	if site == "" {
		site = s.settings.DefaultSite
	}
	return pageSize, site
}

// Target builds the request target for the given inputs.
func (s *Shell) Target(pageSize, site string) string {
	return s.builder.Target(pageSize, site)
}

// NewInputState returns the input state for a new live session.
func (s *Shell) NewInputState(pageSize, site string, onSiteSettled func(string)) *InputState {
	return NewInputState(s.builder, pageSize, site, s.settings.Debounce, onSiteSettled)
}

// Load revalidates target and waits up to the fetch timeout for the fresh
// result. When the wait runs out the entry is returned as it stands, which
// may still hold the previous value.
func (s *Shell) Load(ctx context.Context, target string) (Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.settings.FetchTimeout)
	defer cancel()
	return s.cache.Refresh(ctx, target)
}

// Results builds the view below the inputs from whatever data the entry
// holds. The banner shows the nested status of an error-shaped payload,
// and the list renderer receives the same payload: an object body has no
// posts, so it renders as an empty list.
func (s *Shell) Results(target string, e Entry) (ResultsView, error) {
	payload := e.Value
	status, failed := payload.LogicalFailure()

	posts, err := s.renderer.Posts(payload.PostList())
	if err != nil {
		return ResultsView{}, err
	}

	return ResultsView{
		State:      e.State.String(),
		Target:     target,
		ShowBanner: failed,
		Status:     status,
		Posts:      posts,
	}, nil
}

// RenderPage writes the full document for the given inputs and entry.
func (s *Shell) RenderPage(w io.Writer, pageSize, site string, e Entry) error {
	results, err := s.Results(s.Target(pageSize, site), e)
	if err != nil {
		return err
	}
	return s.renderer.RenderPage(w, PageView{PageSize: pageSize, Site: site, Results: results})
}

// RenderResults writes the banner and list for target.
func (s *Shell) RenderResults(w io.Writer, target string, e Entry) error {
	results, err := s.Results(target, e)
	if err != nil {
		return err
	}
	return s.renderer.RenderResults(w, results)
}
