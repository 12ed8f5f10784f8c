package service

import (
	"context"

	"github.com/shopclip/api/internal/model"
)

// Browser identities the platforms expect. The mobile pair is mandatory for
// Douyin: the share page serves extractable markup only to mobile clients.
const (
	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	mobileUserAgent  = "Mozilla/5.0 (iPhone; CPU iPhone OS 14_0 like Mac OS X) AppleWebKit/605.1.15"

	desktopAccept = "text/html,application/xhtml+xml"
	mobileAccept  = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	douyinReferer      = "https://www.douyin.com/"
	xiaohongshuReferer = "https://www.xiaohongshu.com/"
)

// Resolver turns a pasted share text into a playable media URL plus
// metadata. Implementations fail with ErrNoShareLink or ErrMediaNotFound
// when the text or the fetched page yields nothing; both are recoverable
// caller-side conditions, not crashes.
type Resolver interface {
	Resolve(ctx context.Context, shareText string) (*model.VideoInfo, error)
}
