package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/shopclip/api/internal/client"
	"github.com/shopclip/api/internal/config"
	"github.com/shopclip/api/internal/handler"
	"github.com/shopclip/api/internal/middleware"
	"github.com/shopclip/api/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client (rate limiting only; degraded mode without it)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize validator
	validate := validator.New()

	// Shared HTTP fetcher primitive
	fetcher := client.NewFetcher(
		time.Duration(cfg.Media.FetchTimeoutSeconds)*time.Second,
		cfg.Media.MaxRedirects,
	)

	// Initialize services
	xhsResolver := service.NewXHSResolver(fetcher)
	douyinResolver := service.NewDouyinResolver(fetcher)
	videoCache := service.NewVideoCache(fetcher, cfg.Media.TempDir)
	downloader := service.NewDownloader(fetcher, cfg.Media.TempDir)
	processor := service.NewProcessor(&cfg.Media)
	registry := service.NewTaskRegistry()

	if !processor.Available() {
		log.Printf("Warning: ffmpeg binary %q not found, processing will fail", cfg.Media.FFmpegPath)
	}

	// Initialize handlers
	parseHandler := handler.NewParseHandler(xhsResolver, douyinResolver, validate)
	processHandler := handler.NewProcessHandler(downloader, processor, registry, validate)
	downloadHandler := handler.NewDownloadHandler(registry)
	proxyHandler := handler.NewProxyHandler(videoCache)

	// Initialize middleware
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Range",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"ffmpeg": processor.Available(),
				"redis":  redisClient.Ping(c.Context()).Err() == nil,
			},
		})
	})

	// API routes
	api := app.Group("/api")
	api.Post("/parse", rateLimiter.ParseLimit(cfg.RateLimit.ParsePerMin), parseHandler.Parse)
	api.Post("/process", rateLimiter.ProcessLimit(cfg.RateLimit.ProcessPerHour), processHandler.Process)
	api.Get("/download/:taskId", downloadHandler.Download)
	api.Get("/proxy-video", rateLimiter.ProxyLimit(cfg.RateLimit.ProxyPerMin), proxyHandler.Proxy)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
