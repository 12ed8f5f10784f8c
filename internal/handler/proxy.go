package handler

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/shopclip/api/internal/service"
	"github.com/shopclip/api/pkg/response"
)

type ProxyHandler struct {
	cache service.MediaCache
}

func NewProxyHandler(cache service.MediaCache) *ProxyHandler {
	return &ProxyHandler{cache: cache}
}

// Proxy handles GET /api/proxy-video. The remote media is acquired through
// the content cache and plain or byte-range reads are answered from the
// local copy, which is what lets a browser video element scrub through the
// stream.
func (h *ProxyHandler) Proxy(c *fiber.Ctx) error {
	videoURL := c.Query("url")
	if videoURL == "" {
		return response.ValidationError(c, "Missing video url", nil)
	}

	filePath, err := h.cache.Acquire(c.Context(), videoURL)
	if err != nil {
		log.Printf("proxy: acquire failed: %v", err)
		return response.FetchError(c, "Failed to fetch video")
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return response.FetchError(c, "Failed to fetch video")
	}
	size := info.Size()

	c.Set(fiber.HeaderContentType, "video/mp4")
	c.Set(fiber.HeaderAcceptRanges, "bytes")
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")

	rangeHeader := c.Get(fiber.HeaderRange)
	if rangeHeader == "" {
		return c.SendFile(filePath)
	}

	start, end, err := parseRange(rangeHeader, size)
	if err != nil {
		return response.ValidationError(c, "Malformed Range header", nil)
	}

	chunk := make([]byte, end-start+1)
	f, err := os.Open(filePath)
	if err != nil {
		return response.FetchError(c, "Failed to read cached video")
	}
	defer f.Close()

	n, err := f.ReadAt(chunk, start)
	if err != nil && err != io.EOF {
		return response.FetchError(c, "Failed to read cached video")
	}
	if n != len(chunk) {
		return response.FetchError(c, "Short read from cache")
	}

	c.Status(fiber.StatusPartialContent)
	c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	c.Set(fiber.HeaderContentLength, strconv.Itoa(len(chunk)))
	return c.Send(chunk)
}

// parseRange parses a "bytes=start-end" header. An omitted end means
// size-1; an end past the file is clamped. Suffix ranges ("bytes=-500")
// and multi-range requests are not supported.
func parseRange(header string, size int64) (start, end int64, err error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, 0, fmt.Errorf("unsupported range unit: %q", header)
	}
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed range: %q", header)
	}

	start, err = strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("malformed range start: %q", header)
	}

	end = size - 1
	if endSpec := strings.TrimSpace(parts[1]); endSpec != "" {
		end, err = strconv.ParseInt(endSpec, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("malformed range end: %q", header)
		}
	}
	if end >= size {
		end = size - 1
	}
	if start > end {
		return 0, 0, fmt.Errorf("empty range: %q", header)
	}
	return start, end, nil
}
