package service

import (
	"strings"

	"github.com/shopclip/api/internal/model"
)

// DetectPlatform classifies freeform share text by the platform domains it
// contains. The domain sets are disjoint, so match order does not matter.
// Returns the empty Platform when no known domain appears.
func DetectPlatform(text string) model.Platform {
	if strings.Contains(text, "xhslink.com") || strings.Contains(text, "xiaohongshu.com") {
		return model.PlatformXiaohongshu
	}
	if strings.Contains(text, "v.douyin.com") ||
		strings.Contains(text, "douyin.com/video") ||
		strings.Contains(text, "douyin.com/note") {
		return model.PlatformDouyin
	}
	return ""
}
