package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopclip/api/internal/client"
	"github.com/shopclip/api/internal/model"
)

const (
	douyinSharePageFormat = "https://www.iesdouyin.com/share/video/%s/"

	douyinDefaultTitle  = "抖音视频"
	douyinDefaultAuthor = "未知作者"
)

var douyinURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://v\.douyin\.com/[a-zA-Z0-9]+/?`),
	regexp.MustCompile(`https?://(?:www\.)?douyin\.com/video/\d+`),
}

// The redirect target embeds the numeric video id in one of three shapes.
var douyinVideoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/video/(\d+)`),
	regexp.MustCompile(`/share/video/(\d+)`),
	regexp.MustCompile(`item_ids=(\d+)`),
}

var (
	douyinRouterDataPattern   = regexp.MustCompile(`(?s)window\._ROUTER_DATA\s*=\s*(\{.+?\})</script>`)
	douyinInitialStatePattern = regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(\{.+?\});`)
	douyinRenderDataPattern   = regexp.MustCompile(`<script id="RENDER_DATA"[^>]*>([^<]+)</script>`)
	douyinPlayAddrPattern     = regexp.MustCompile(`"play_addr"[^}]*"url_list":\s*\["([^"]+)"`)
)

// douyinExtractor is one extraction strategy: total over any HTML input,
// reporting only matched / not-matched.
type douyinExtractor func(html string) (*model.VideoInfo, bool)

// Strategies in priority order. The _ROUTER_DATA blob is the current page
// shape; the older embedded-state markers are kept because the platform has
// shipped all of them at different times.
var douyinExtractors = []douyinExtractor{
	extractDouyinRouterData,
	extractDouyinInitialState,
	extractDouyinRenderData,
}

// DouyinResolver resolves Douyin share links. The short link redirects to a
// URL carrying the numeric video id; the mobile share page for that id
// embeds the playable address.
type DouyinResolver struct {
	fetcher client.MediaFetcher
}

func NewDouyinResolver(f client.MediaFetcher) *DouyinResolver {
	return &DouyinResolver{fetcher: f}
}

func (r *DouyinResolver) Resolve(ctx context.Context, shareText string) (*model.VideoInfo, error) {
	shareURL := extractDouyinURL(shareText)
	if shareURL == "" {
		return nil, ErrNoShareLink
	}
	log.Printf("douyin: extracted share url %s", shareURL)

	headers := map[string]string{
		"User-Agent": mobileUserAgent,
		"Accept":     mobileAccept,
	}

	// One hop is enough here: only the Location matters, not the page.
	redirectURL, err := r.fetcher.ResolveRedirect(ctx, shareURL, headers)
	if err != nil {
		return nil, fmt.Errorf("resolve share redirect: %w", err)
	}

	videoID := extractDouyinVideoID(redirectURL)
	if videoID == "" {
		return nil, fmt.Errorf("%w: no video id in %s", ErrMediaNotFound, redirectURL)
	}

	sharePageURL := fmt.Sprintf(douyinSharePageFormat, videoID)
	html, err := r.fetcher.Get(ctx, sharePageURL, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch share page: %w", err)
	}

	for _, extract := range douyinExtractors {
		info, ok := extract(html)
		if !ok {
			continue
		}
		if info.Title == "" {
			info.Title = douyinDefaultTitle
		}
		if info.Author == "" {
			info.Author = douyinDefaultAuthor
		}
		info.Platform = model.PlatformDouyin
		return info, nil
	}
	log.Printf("douyin: all extractors missed for video %s (%d bytes)", videoID, len(html))
	return nil, ErrMediaNotFound
}

func extractDouyinURL(text string) string {
	for _, p := range douyinURLPatterns {
		if m := p.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

func extractDouyinVideoID(rawURL string) string {
	for _, p := range douyinVideoIDPatterns {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// routerData mirrors the slice of window._ROUTER_DATA the share page embeds.
type routerData struct {
	LoaderData map[string]routerPageData `json:"loaderData"`
}

type routerPageData struct {
	VideoInfoRes struct {
		ItemList []struct {
			Desc   string `json:"desc"`
			Author struct {
				Nickname string `json:"nickname"`
			} `json:"author"`
			Video struct {
				PlayAddr struct {
					URLList []string `json:"url_list"`
				} `json:"play_addr"`
			} `json:"video"`
		} `json:"item_list"`
	} `json:"videoInfoRes"`
}

func extractDouyinRouterData(html string) (*model.VideoInfo, bool) {
	m := douyinRouterDataPattern.FindStringSubmatch(html)
	if m == nil {
		return nil, false
	}

	var data routerData
	if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
		log.Printf("douyin: _ROUTER_DATA unmarshal failed: %v", err)
		return nil, false
	}

	page, ok := data.LoaderData["video_(id)/page"]
	if !ok {
		page, ok = data.LoaderData["video_(id)"]
	}
	if !ok || len(page.VideoInfoRes.ItemList) == 0 {
		return nil, false
	}

	item := page.VideoInfoRes.ItemList[0]
	urlList := item.Video.PlayAddr.URLList
	if len(urlList) == 0 {
		return nil, false
	}

	return &model.VideoInfo{
		VideoURL: stripWatermark(urlList[0]),
		Title:    item.Desc,
		Author:   item.Author.Nickname,
	}, true
}

func extractDouyinInitialState(html string) (*model.VideoInfo, bool) {
	m := douyinInitialStatePattern.FindStringSubmatch(html)
	if m == nil {
		return nil, false
	}
	return extractPlayAddr(m[1])
}

func extractDouyinRenderData(html string) (*model.VideoInfo, bool) {
	m := douyinRenderDataPattern.FindStringSubmatch(html)
	if m == nil {
		return nil, false
	}
	decoded, err := url.QueryUnescape(m[1])
	if err != nil {
		return nil, false
	}
	return extractPlayAddr(decoded)
}

// extractPlayAddr scans a raw state blob for the first play address without
// fully decoding it; the fallback shapes are not stable enough to model.
func extractPlayAddr(blob string) (*model.VideoInfo, bool) {
	m := douyinPlayAddrPattern.FindStringSubmatch(blob)
	if m == nil {
		return nil, false
	}
	videoURL := strings.ReplaceAll(m[1], `\u002F`, "/")
	return &model.VideoInfo{VideoURL: stripWatermark(videoURL)}, true
}

// stripWatermark rewrites the watermarked playback path to its unwatermarked
// sibling.
func stripWatermark(videoURL string) string {
	return strings.Replace(videoURL, "playwm", "play", 1)
}
