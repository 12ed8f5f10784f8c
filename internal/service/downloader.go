package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopclip/api/internal/client"
	"github.com/shopclip/api/internal/model"
)

// InputDownloader fetches a resolved media URL into the local temp dir so
// the processor can work on it.
type InputDownloader interface {
	DownloadVideo(ctx context.Context, videoURL, filename string, platform model.Platform) (string, error)
}

// Downloader implements InputDownloader over the shared fetcher.
type Downloader struct {
	fetcher client.MediaFetcher
	tempDir string
}

func NewDownloader(f client.MediaFetcher, tempDir string) *Downloader {
	return &Downloader{fetcher: f, tempDir: tempDir}
}

// DownloadVideo fetches videoURL into tempDir/filename with the Referer the
// platform's CDN expects.
func (d *Downloader) DownloadVideo(ctx context.Context, videoURL, filename string, platform model.Platform) (string, error) {
	if err := os.MkdirAll(d.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	referer := xiaohongshuReferer
	if platform == model.PlatformDouyin {
		referer = douyinReferer
	}
	headers := map[string]string{
		"User-Agent": desktopUserAgent,
		"Referer":    referer,
	}

	filePath := filepath.Join(d.tempDir, filename)
	if err := d.fetcher.Download(ctx, videoURL, headers, filePath); err != nil {
		return "", err
	}
	return filePath, nil
}
