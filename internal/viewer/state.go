package viewer

import (
	"sync"
	"time"

	"github.com/Bahjat/wp-posts-viewer/internal/debounce"
	"github.com/Bahjat/wp-posts-viewer/internal/wordpress"
)

// InputState holds the two user-editable values of a page. The page size
// takes effect immediately; the site identifier is only used for queries
// once it has been stable for the debounce interval.
type InputState struct {
	builder wordpress.Builder

	mu       sync.Mutex
	pageSize string
	site     string

	debouncedSite *debounce.Value[string]
}

// NewInputState starts with the given values already settled. onSiteSettled
// runs, on a timer goroutine, each time the debounced site changes.
func NewInputState(
	builder wordpress.Builder,
	pageSize, site string,
	delay time.Duration,
	onSiteSettled func(string),
	opts ...debounce.Option,
) *InputState {
	return &InputState{
		builder:       builder,
		pageSize:      pageSize,
		site:          site,
		debouncedSite: debounce.New(site, delay, onSiteSettled, opts...),
	}
}

// SetPageSize stores the raw text of the page size control. Empty or
// non-numeric text is accepted while the user is editing.
func (s *InputState) SetPageSize(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = v
}

// SetSite stores the raw site text and restarts the debounce interval.
func (s *InputState) SetSite(v string) {
	s.mu.Lock()
	s.site = v
	s.mu.Unlock()
	s.debouncedSite.Set(v)
}

// PageSize returns the current page size text.
func (s *InputState) PageSize() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageSize
}

// Site returns the site text as typed.
func (s *InputState) Site() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.site
}

// DebouncedSite returns the settled site identifier.
func (s *InputState) DebouncedSite() string {
	return s.debouncedSite.Current()
}

// Target derives the request target from the current page size and the
// debounced site identifier.
func (s *InputState) Target() string {
	return s.builder.Target(s.PageSize(), s.DebouncedSite())
}

// Close cancels a pending site update.
func (s *InputState) Close() {
	s.debouncedSite.Stop()
}
