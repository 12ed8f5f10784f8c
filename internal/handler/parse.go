package handler

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/shopclip/api/internal/model"
	"github.com/shopclip/api/internal/service"
	"github.com/shopclip/api/pkg/response"
)

type ParseHandler struct {
	xhs       service.Resolver
	douyin    service.Resolver
	validator *validator.Validate
}

func NewParseHandler(xhs, douyin service.Resolver, v *validator.Validate) *ParseHandler {
	return &ParseHandler{
		xhs:       xhs,
		douyin:    douyin,
		validator: v,
	}
}

// Parse handles POST /api/parse
func (h *ParseHandler) Parse(c *fiber.Ctx) error {
	var req model.ParseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	platform := service.DetectPlatform(req.URL)
	if platform == "" {
		return response.ValidationError(c, "Provide a valid Xiaohongshu or Douyin link", nil)
	}

	resolver := h.xhs
	if platform == model.PlatformDouyin {
		resolver = h.douyin
	}

	info, err := resolver.Resolve(c.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoShareLink), errors.Is(err, service.ErrMediaNotFound):
			return response.NotFound(c, "No video found for this link")
		default:
			log.Printf("parse: resolve failed: %v", err)
			return response.FetchError(c, "Failed to resolve link, try again later")
		}
	}

	return response.OK(c, model.ParseResponse{Success: true, Data: info})
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
