package service

import "context"

// stubFetcher satisfies client.MediaFetcher for resolver and cache tests.
type stubFetcher struct {
	getFunc      func(ctx context.Context, rawURL string, headers map[string]string) (string, error)
	resolveFunc  func(ctx context.Context, rawURL string, headers map[string]string) (string, error)
	downloadFunc func(ctx context.Context, rawURL string, headers map[string]string, destPath string) error
}

func (s *stubFetcher) Get(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	return s.getFunc(ctx, rawURL, headers)
}

func (s *stubFetcher) ResolveRedirect(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	return s.resolveFunc(ctx, rawURL, headers)
}

func (s *stubFetcher) Download(ctx context.Context, rawURL string, headers map[string]string, destPath string) error {
	return s.downloadFunc(ctx, rawURL, headers, destPath)
}
