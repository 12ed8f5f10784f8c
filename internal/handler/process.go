package handler

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/shopclip/api/internal/model"
	"github.com/shopclip/api/internal/service"
	"github.com/shopclip/api/pkg/response"
)

type ProcessHandler struct {
	downloader service.InputDownloader
	processor  service.ClipProcessor
	registry   *service.TaskRegistry
	validator  *validator.Validate
}

func NewProcessHandler(d service.InputDownloader, p service.ClipProcessor, r *service.TaskRegistry, v *validator.Validate) *ProcessHandler {
	return &ProcessHandler{
		downloader: d,
		processor:  p,
		registry:   r,
		validator:  v,
	}
}

// Process handles POST /api/process. The request blocks until the clip is
// produced; the task id in the response is the retrieval handle.
func (h *ProcessHandler) Process(c *fiber.Ctx) error {
	var req model.ProcessRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	platform := req.Platform
	if platform == "" {
		platform = model.PlatformXiaohongshu
	}

	taskID := uuid.New().String()

	inputPath, err := h.downloader.DownloadVideo(c.Context(), req.VideoURL, taskID+"_input.mp4", platform)
	if err != nil {
		log.Printf("process: download failed: %v", err)
		return response.FetchError(c, "Failed to download video")
	}

	outputPath, err := h.processor.Process(c.Context(), inputPath, taskID+"_output.mp4", req.Crop)
	if err != nil {
		log.Printf("process: transform failed: %v", err)
		if errors.Is(err, service.ErrNoVideoStream) {
			return response.TransformError(c, "Input has no video stream")
		}
		return response.TransformError(c, "Video processing failed")
	}

	h.registry.Put(taskID, outputPath)

	return response.OK(c, model.ProcessResponse{
		Success:      true,
		TaskID:       taskID,
		DownloadPath: "/api/download/" + taskID,
	})
}
