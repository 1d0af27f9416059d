package wordpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/Bahjat/wp-posts-viewer/internal/model"
	"github.com/Bahjat/wp-posts-viewer/internal/platform/errs"
)

const (
	userAgent       = "WPPostsViewer/1.0"
	maxResponseBody = 10 << 20 // 10 MB
	maxRedirects    = 5
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errBlockedRedirect  = errors.New("redirect to non-http(s) scheme blocked")
)

// Client fetches and decodes posts payloads.
type Client struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient returns a Client with the given per-request timeout whose
// outbound requests are limited to limit per second with the given burst.
func NewClient(timeout time.Duration, limit float64, burst int) *Client {
	return newClient(&http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: safeRedirectPolicy,
	}, rate.NewLimiter(rate.Limit(limit), burst))
}

// safeRedirectPolicy validates redirect targets and limits the redirect chain length.
func safeRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
	}
	return nil
}

func newClient(hc *http.Client, limiter *rate.Limiter) *Client {
	return &Client{client: hc, limiter: limiter}
}

// Fetch issues a single GET for target and decodes the complete body.
// The HTTP status is not inspected: WordPress reports logical errors as a
// JSON object, which is returned as a successful Payload.
func (c *Client) Fetch(ctx context.Context, target string) (*model.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: "The request target is not a valid URL.",
			Cause:   err,
		}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &errs.AppError{
				Kind:    errs.Timeout,
				Message: "The request was dropped before it could be sent.",
				Cause:   err,
			}
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, transportError(err)
	}

	// Unmarshal rejects trailing data after the first value.
	var payload model.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &errs.AppError{
			Kind:           errs.ParsingFailed,
			UpstreamStatus: resp.StatusCode,
			Message:        "The posts API returned a body that is not valid JSON.",
			Cause:          err,
		}
	}

	return &payload, nil
}

func transportError(err error) error {
	if isTimeout(err) {
		return &errs.AppError{
			Kind:    errs.Timeout,
			Message: "The posts API took too long to respond.",
			Cause:   err,
		}
	}
	return &errs.AppError{
		Kind:    errs.Unreachable,
		Message: "The posts API could not be reached.",
		Cause:   err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
