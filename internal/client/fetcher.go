package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

var (
	// ErrRedirectNoLocation is returned when a 3xx response carries no
	// Location header. The platforms answer share links with redirects, so
	// a bare redirect status means the link is unusable, not done.
	ErrRedirectNoLocation = errors.New("redirect response missing Location header")

	// ErrTooManyRedirects is returned when a redirect chain exceeds the
	// configured hop limit.
	ErrTooManyRedirects = errors.New("redirect chain exceeded hop limit")
)

// MediaFetcher defines the HTTP operations the resolvers, the content cache
// and the input downloader rely on.
type MediaFetcher interface {
	// Get fetches url and returns the final response body, following
	// redirects up to the hop limit.
	Get(ctx context.Context, rawURL string, headers map[string]string) (string, error)

	// ResolveRedirect issues a single request and returns the Location of a
	// redirect response without following it. Non-redirect responses return
	// the input URL unchanged.
	ResolveRedirect(ctx context.Context, rawURL string, headers map[string]string) (string, error)

	// Download streams the response body into destPath, following redirects.
	Download(ctx context.Context, rawURL string, headers map[string]string, destPath string) error
}

// Fetcher is the shared low-level HTTP primitive. Automatic redirect
// handling is disabled on the underlying client so callers can choose
// between following a chain and stopping at the first hop.
type Fetcher struct {
	httpClient   *http.Client
	maxRedirects int
}

func NewFetcher(timeout time.Duration, maxRedirects int) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxRedirects: maxRedirects,
	}
}

func (f *Fetcher) Get(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	resp, err := f.getFollowingRedirects(ctx, rawURL, headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body of %s: %w", rawURL, err)
	}
	return string(body), nil
}

func (f *Fetcher) ResolveRedirect(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	resp, err := f.do(ctx, rawURL, headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if !isRedirect(resp.StatusCode) {
		return rawURL, nil
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", ErrRedirectNoLocation
	}
	return resolveLocation(rawURL, loc), nil
}

func (f *Fetcher) Download(ctx context.Context, rawURL string, headers map[string]string, destPath string) error {
	resp, err := f.getFollowingRedirects(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("download %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	return out.Close()
}

// getFollowingRedirects walks a redirect chain with an explicit hop counter
// instead of relying on the client's built-in policy.
func (f *Fetcher) getFollowingRedirects(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	current := rawURL
	for hop := 0; hop <= f.maxRedirects; hop++ {
		resp, err := f.do(ctx, current, headers)
		if err != nil {
			return nil, err
		}
		if !isRedirect(resp.StatusCode) {
			return resp, nil
		}
		loc := resp.Header.Get("Location")
		resp.Body.Close()
		if loc == "" {
			return nil, ErrRedirectNoLocation
		}
		current = resolveLocation(current, loc)
	}
	return nil, fmt.Errorf("%w: %s", ErrTooManyRedirects, rawURL)
}

func (f *Fetcher) do(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", rawURL, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return resp, nil
}

func isRedirect(code int) bool {
	return code == http.StatusMovedPermanently ||
		code == http.StatusFound ||
		code == http.StatusSeeOther
}

// resolveLocation makes relative Location values absolute against the URL
// that produced them.
func resolveLocation(base, location string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return location
	}
	locURL, err := url.Parse(location)
	if err != nil {
		return location
	}
	return baseURL.ResolveReference(locURL).String()
}
