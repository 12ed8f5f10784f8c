package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/shopclip/api/internal/client"
)

// MediaCache is the capability the streaming proxy needs: a local path
// holding the bytes of a remote media URL.
type MediaCache interface {
	Acquire(ctx context.Context, remoteURL string) (string, error)
}

// cacheEntry tracks one content-addressed download. done is closed when the
// download finishes; err carries the terminal failure, if any.
type cacheEntry struct {
	filePath string
	done     chan struct{}
	err      error
}

// VideoCache deduplicates downloads of remote media into a local
// content-addressed store. At most one download is in flight per content
// hash; concurrent callers block on the same entry and share its outcome.
// The in-memory map is only an optimization: the on-disk file is the
// source of truth, and a vanished file forces a re-download.
type VideoCache struct {
	fetcher client.MediaFetcher
	tempDir string

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

func NewVideoCache(f client.MediaFetcher, tempDir string) *VideoCache {
	return &VideoCache{
		fetcher: f,
		tempDir: tempDir,
		entries: make(map[string]*cacheEntry),
	}
}

// Acquire returns a local file holding the bytes of remoteURL. A failed
// download removes its entry entirely, so the next caller (including a
// waiter on the failed attempt) retries against a clean slate.
func (vc *VideoCache) Acquire(ctx context.Context, remoteURL string) (string, error) {
	hash := hashURL(remoteURL)
	filePath := filepath.Join(vc.tempDir, "video_"+hash+".mp4")

	for {
		vc.mu.Lock()
		if e, ok := vc.entries[hash]; ok {
			vc.mu.Unlock()
			select {
			case <-e.done:
			case <-ctx.Done():
				return "", ctx.Err()
			}
			if e.err == nil && fileExists(e.filePath) {
				return e.filePath, nil
			}
			// Failed, or the file vanished underneath a ready entry.
			vc.mu.Lock()
			if vc.entries[hash] == e {
				delete(vc.entries, hash)
			}
			vc.mu.Unlock()
			continue
		}

		// A file left by an earlier process run is adopted as ready.
		if fileExists(filePath) {
			vc.entries[hash] = &cacheEntry{filePath: filePath, done: closedChan()}
			vc.mu.Unlock()
			log.Printf("cache: reusing on-disk file %s", filePath)
			return filePath, nil
		}

		e := &cacheEntry{filePath: filePath, done: make(chan struct{})}
		vc.entries[hash] = e
		vc.mu.Unlock()

		log.Printf("cache: downloading %s -> %s", remoteURL, filePath)
		err := vc.download(ctx, remoteURL, filePath)
		if err != nil {
			vc.mu.Lock()
			delete(vc.entries, hash)
			vc.mu.Unlock()
			e.err = err
			close(e.done)
			return "", fmt.Errorf("cache download: %w", err)
		}
		close(e.done)
		return filePath, nil
	}
}

func (vc *VideoCache) download(ctx context.Context, remoteURL, filePath string) error {
	if err := os.MkdirAll(vc.tempDir, 0o755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	// CDNs for both platforms reject requests without a browser UA and an
	// on-platform Referer.
	headers := map[string]string{
		"User-Agent": mobileUserAgent,
		"Referer":    douyinReferer,
	}
	return vc.fetcher.Download(ctx, remoteURL, headers, filePath)
}

func hashURL(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
