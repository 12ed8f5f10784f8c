package model

// Platform identifies which short-video platform a share link belongs to.
type Platform string

const (
	PlatformXiaohongshu Platform = "xiaohongshu"
	PlatformDouyin      Platform = "douyin"
)

// VideoInfo is the result of resolving a share link: the direct media URL
// plus the metadata shown to the user. An empty VideoURL never leaves the
// resolvers; they report it as an error instead.
type VideoInfo struct {
	VideoURL string   `json:"videoUrl"`
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Platform Platform `json:"platform,omitempty"`
}

// CropSpec carries the user-chosen crop rectangle (source-pixel space) and
// clip window. The rectangle is passed to ffmpeg untouched; out-of-bounds
// values fail there rather than being clamped here.
type CropSpec struct {
	X         int     `json:"x" validate:"min=0"`
	Y         int     `json:"y" validate:"min=0"`
	Width     int     `json:"width" validate:"required,min=1"`
	Height    int     `json:"height" validate:"required,min=1"`
	StartTime float64 `json:"startTime" validate:"min=0"`
	EndTime   float64 `json:"endTime" validate:"required,gtfield=StartTime"`
}

// ParseRequest is the body of POST /api/parse
type ParseRequest struct {
	URL string `json:"url" validate:"required"`
}

// ParseResponse wraps a successful resolution
type ParseResponse struct {
	Success bool       `json:"success"`
	Data    *VideoInfo `json:"data"`
}

// ProcessRequest is the body of POST /api/process
type ProcessRequest struct {
	VideoURL string    `json:"videoUrl" validate:"required,url"`
	Crop     *CropSpec `json:"crop" validate:"omitempty"`
	Platform Platform  `json:"platform" validate:"omitempty,oneof=xiaohongshu douyin"`
}

// ProcessResponse is returned once the clip has been produced
type ProcessResponse struct {
	Success      bool   `json:"success"`
	TaskID       string `json:"taskId"`
	DownloadPath string `json:"downloadPath"`
}
