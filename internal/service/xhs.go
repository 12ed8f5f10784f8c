package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/shopclip/api/internal/client"
	"github.com/shopclip/api/internal/model"
)

// Video keys extracted from page state are object-store keys, not URLs;
// they resolve against this CDN host.
const xhsVideoCDNBase = "https://sns-video-bd.xhscdn.com/"

const (
	xhsDefaultTitle  = "小红书视频"
	xhsDefaultAuthor = "未知作者"
)

// Share texts carry either the short form or one of two long forms; the
// short form is tried first because that is what real share sheets emit.
var xhsURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://xhslink\.com/[a-zA-Z0-9]+`),
	regexp.MustCompile(`https?://www\.xiaohongshu\.com/[^\s]+`),
	regexp.MustCompile(`https?://xiaohongshu\.com/[^\s]+`),
}

// Ordered extraction patterns for the media URL. The platform rotates how
// it embeds video state, so each shape the page has been observed to use is
// tried before giving up: embedded-state keys first, raw CDN URL scans last.
var xhsVideoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"originVideoKey":"([^"]+)"`),
	regexp.MustCompile(`"videoKey":"([^"]+)"`),
	regexp.MustCompile(`"video":\s*\{[^}]*"url":"([^"]+)"`),
	regexp.MustCompile(`https://sns-video[^"'\s]+\.mp4`),
	regexp.MustCompile(`https://[^"'\s]*xhscdn[^"'\s]*\.mp4`),
}

var (
	xhsTitlePattern  = regexp.MustCompile(`<title>([^<]+)</title>`)
	xhsAuthorPattern = regexp.MustCompile(`"nickname":"([^"]+)"`)
)

// XHSResolver resolves Xiaohongshu share links. The share URL redirects to
// the note page, whose HTML embeds the video key.
type XHSResolver struct {
	fetcher client.MediaFetcher
}

func NewXHSResolver(f client.MediaFetcher) *XHSResolver {
	return &XHSResolver{fetcher: f}
}

func (r *XHSResolver) Resolve(ctx context.Context, shareText string) (*model.VideoInfo, error) {
	shareURL := extractXHSURL(shareText)
	if shareURL == "" {
		return nil, ErrNoShareLink
	}
	log.Printf("xhs: extracted share url %s", shareURL)

	headers := map[string]string{
		"User-Agent": desktopUserAgent,
		"Accept":     desktopAccept,
	}
	html, err := r.fetcher.Get(ctx, shareURL, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch note page: %w", err)
	}

	videoURL, ok := extractXHSVideoURL(html)
	if !ok {
		logXHSMiss(html)
		return nil, ErrMediaNotFound
	}

	return &model.VideoInfo{
		VideoURL: videoURL,
		Title:    extractFirstGroup(xhsTitlePattern, html, xhsDefaultTitle),
		Author:   extractFirstGroup(xhsAuthorPattern, html, xhsDefaultAuthor),
		Platform: model.PlatformXiaohongshu,
	}, nil
}

func extractXHSURL(text string) string {
	for _, p := range xhsURLPatterns {
		if m := p.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

func extractXHSVideoURL(html string) (string, bool) {
	for _, p := range xhsVideoPatterns {
		m := p.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		videoURL := m[0]
		if len(m) > 1 && m[1] != "" {
			videoURL = m[1]
		}
		if !strings.HasPrefix(videoURL, "http") {
			videoURL = xhsVideoCDNBase + videoURL
		}
		return videoURL, true
	}
	return "", false
}

func extractFirstGroup(p *regexp.Regexp, html, fallback string) string {
	if m := p.FindStringSubmatch(html); m != nil {
		return m[1]
	}
	return fallback
}

// logXHSMiss records the markup around the first "video" occurrence so a
// pattern rotation upstream can be diagnosed from the logs alone.
func logXHSMiss(html string) {
	idx := strings.Index(html, "video")
	if idx < 0 {
		log.Printf("xhs: no video marker in page (%d bytes)", len(html))
		return
	}
	end := idx + 200
	if end > len(html) {
		end = len(html)
	}
	log.Printf("xhs: no pattern matched, context: %s", html[idx:end])
}
