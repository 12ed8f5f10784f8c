package handler

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/shopclip/api/internal/service"
	"github.com/shopclip/api/pkg/response"
)

type DownloadHandler struct {
	registry *service.TaskRegistry
}

func NewDownloadHandler(r *service.TaskRegistry) *DownloadHandler {
	return &DownloadHandler{registry: r}
}

// Download handles GET /api/download/:taskId
func (h *DownloadHandler) Download(c *fiber.Ctx) error {
	taskID := c.Params("taskId")

	outputPath, err := h.registry.Get(taskID)
	if err != nil {
		return response.NotFound(c, "File not found")
	}
	// Registry entries can outlive the file under a retention policy.
	if _, err := os.Stat(outputPath); err != nil {
		return response.NotFound(c, "File not found")
	}

	c.Set(fiber.HeaderContentType, "video/mp4")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="shop_video.mp4"`)
	return c.SendFile(outputPath)
}
