package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
)

// stubCache serves a pre-written local file, or an error.
type stubCache struct {
	path string
	err  error
}

func (s *stubCache) Acquire(ctx context.Context, remoteURL string) (string, error) {
	return s.path, s.err
}

func newProxyApp(cache *stubCache) *fiber.App {
	app := fiber.New()
	app.Get("/api/proxy-video", NewProxyHandler(cache).Proxy)
	return app
}

func writeTestVideo(t *testing.T, size int) string {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "video_cafebabe.mp4")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing test video: %v", err)
	}
	return path
}

func TestProxy_FullContent(t *testing.T) {
	path := writeTestVideo(t, 1000)
	app := newProxyApp(&stubCache{path: path})

	req := httptest.NewRequest(http.MethodGet, "/api/proxy-video?url=https%3A%2F%2Fcdn%2Fv.mp4", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q, want bytes", got)
	}
	if got := resp.Header.Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q, want video/mp4", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 1000 {
		t.Errorf("expected the full 1000 bytes, got %d", len(body))
	}
}

func TestProxy_RangeRequest(t *testing.T) {
	path := writeTestVideo(t, 1000)
	app := newProxyApp(&stubCache{path: path})

	req := httptest.NewRequest(http.MethodGet, "/api/proxy-video?url=https%3A%2F%2Fcdn%2Fv.mp4", nil)
	req.Header.Set("Range", "bytes=0-99")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != http.StatusPartialContent {
		t.Fatalf("expected 206, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Range"); got != "bytes 0-99/1000" {
		t.Errorf("Content-Range = %q, want bytes 0-99/1000", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 100 {
		t.Fatalf("expected 100 bytes, got %d", len(body))
	}

	full, _ := os.ReadFile(path)
	if !bytes.Equal(body, full[0:100]) {
		t.Error("range body does not match the file prefix")
	}
}

func TestProxy_OpenEndedRange(t *testing.T) {
	path := writeTestVideo(t, 1000)
	app := newProxyApp(&stubCache{path: path})

	req := httptest.NewRequest(http.MethodGet, "/api/proxy-video?url=https%3A%2F%2Fcdn%2Fv.mp4", nil)
	req.Header.Set("Range", "bytes=900-")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != http.StatusPartialContent {
		t.Fatalf("expected 206, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Range"); got != "bytes 900-999/1000" {
		t.Errorf("Content-Range = %q, want bytes 900-999/1000", got)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 100 {
		t.Errorf("expected the last 100 bytes, got %d", len(body))
	}
}

func TestProxy_MalformedRange(t *testing.T) {
	path := writeTestVideo(t, 1000)
	app := newProxyApp(&stubCache{path: path})

	for _, header := range []string{"bytes=abc-def", "chunks=0-99", "bytes=500-100"} {
		req := httptest.NewRequest(http.MethodGet, "/api/proxy-video?url=https%3A%2F%2Fcdn%2Fv.mp4", nil)
		req.Header.Set("Range", header)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Range %q: expected 400, got %d", header, resp.StatusCode)
		}
	}
}

func TestProxy_MissingURL(t *testing.T) {
	app := newProxyApp(&stubCache{})

	req := httptest.NewRequest(http.MethodGet, "/api/proxy-video", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestProxy_FetchFailure(t *testing.T) {
	app := newProxyApp(&stubCache{err: errors.New("cdn unreachable")})

	req := httptest.NewRequest(http.MethodGet, "/api/proxy-video?url=https%3A%2F%2Fcdn%2Fv.mp4", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", resp.StatusCode)
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		header    string
		size      int64
		wantStart int64
		wantEnd   int64
		wantErr   bool
	}{
		{"bytes=0-99", 1000, 0, 99, false},
		{"bytes=500-", 1000, 500, 999, false},
		{"bytes=0-", 1000, 0, 999, false},
		{"bytes=999-999", 1000, 999, 999, false},
		{"bytes=0-5000", 1000, 0, 999, false}, // end clamped to file size
		{"bytes=-500", 1000, 0, 0, true},      // suffix ranges unsupported
		{"bytes=abc-", 1000, 0, 0, true},
		{"chunks=0-99", 1000, 0, 0, true},
		{"bytes=500-100", 1000, 0, 0, true},
		{"bytes=1000-", 1000, 0, 0, true}, // past end of file
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			start, end, err := parseRange(tt.header, tt.size)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.header)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRange(%q) failed: %v", tt.header, err)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("parseRange(%q) = %d-%d, want %d-%d", tt.header, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}
