package viewer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Bahjat/wp-posts-viewer/internal/model"
	"github.com/Bahjat/wp-posts-viewer/internal/swr"
	"github.com/Bahjat/wp-posts-viewer/internal/wordpress"
)

const defaultSite = "retrofoxsimplecustom01.wordpress.com"

// routeProvider answers each target with a canned JSON body and records
// every target it was asked for.
type routeProvider struct {
	bodies map[string]string
	errs   map[string]error

	mu    sync.Mutex
	calls []string
}

func (p *routeProvider) Fetch(_ context.Context, target string) (*model.Payload, error) {
	p.mu.Lock()
	p.calls = append(p.calls, target)
	p.mu.Unlock()

	if err, ok := p.errs[target]; ok {
		return nil, err
	}
	body, ok := p.bodies[target]
	if !ok {
		body = `[]`
	}
	var payload model.Payload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (p *routeProvider) requested() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// flakyProvider fails its first failures calls with err, then defers to next.
type flakyProvider struct {
	failures int
	err      error
	next     PostsProvider

	mu    sync.Mutex
	calls int
}

func (p *flakyProvider) Fetch(ctx context.Context, target string) (*model.Payload, error) {
	p.mu.Lock()
	p.calls++
	fail := p.calls <= p.failures
	p.mu.Unlock()

	if fail {
		return nil, p.err
	}
	return p.next.Fetch(ctx, target)
}

func newTestShell(t *testing.T, provider PostsProvider, debounceInterval time.Duration) *Shell {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	svc := NewService(provider, logger)
	cache := swr.New[*model.Payload](svc.Fetch, time.Second)
	t.Cleanup(cache.Close)

	return NewShell(cache, NewRenderer(time.UTC, TitleHTML), wordpress.Builder{}, Settings{
		DefaultPageSize: "5",
		DefaultSite:     defaultSite,
		Debounce:        debounceInterval,
		FetchTimeout:    time.Second,
	})
}

const twoPosts = `[
	{"id": 2, "guid": {"rendered": "https://demo.test/?p=2"}, "title": {"rendered": "Second <em>post</em>"}, "modified": "2021-05-04T12:00:00"},
	{"id": 1, "guid": {"rendered": "https://demo.test/?p=1"}, "title": {"rendered": "First post"}, "modified": "2021-05-01T09:00:00"}
]`

const notFound = `{"code":"rest_no_route","message":"No route was found matching the URL and request method.","data":{"status":404}}`
