package main

import (
	"context"
	"fmt"

	"coursewell/config"
	chatapi "coursewell/internal/api/chat"
	courseapi "coursewell/internal/api/course"
	enrollmentapi "coursewell/internal/api/enrollment"
	"coursewell/internal/api/healthcheck"
	reviewapi "coursewell/internal/api/review"
	uploadapi "coursewell/internal/api/upload"
	"coursewell/internal/chat"
	"coursewell/internal/course"
	"coursewell/internal/database"
	"coursewell/internal/llm"
	"coursewell/internal/middleware"
	"coursewell/internal/rag"
	"coursewell/pkg/logger"

	"github.com/gofiber/fiber/v3"
)

func main() {
	if err := logger.SetLevel(string(config.Cfg.LogLevel)); err != nil {
		logger.Warn("invalid log level %q, keeping default", config.Cfg.LogLevel)
	}

	ctx := context.Background()

	if err := database.Migrate(); err != nil {
		logger.Error(err, "schema migration failed")
	}

	// The embedder is always OpenAI; the tutor generator is selected by
	// config between OpenAI and Gemini.
	embedder := llm.NewOpenAIProvider()
	generator, err := llm.NewGeneratorFromConfig(ctx)
	if err != nil {
		logger.Fatal(err, "tutor generator init failed")
	}

	cache := rag.NewCache(embedder)
	answerer := rag.NewAnswerer(embedder, generator)

	preview := chat.NewMemoryStore()
	durable := chat.NewDBStore()
	gateway := course.Gateway{}
	engine := chat.NewEngine(gateway, gateway, gateway, generator, cache, answerer)

	app := fiber.New(fiber.Config{
		AppName:   config.Cfg.Server.AppName,
		BodyLimit: config.Cfg.Server.BodyLimit,
	})

	limiter := middleware.NewConnectionLimiter(config.Cfg.Server.Concurrency)
	app.Use(middleware.PanicRecoveryMiddleware())
	app.Use(middleware.ConnectionLimiterMiddleware(limiter))

	// routes
	healthcheck.RegisterRoutes(app)
	chatapi.RegisterRoutes(app, &chatapi.Handler{
		Engine:    engine,
		Durable:   durable,
		Preview:   preview,
		Generator: generator,
	})
	courseapi.RegisterRoutes(app, &courseapi.Handler{
		Cache:   cache,
		Preview: preview,
	})
	enrollmentapi.RegisterRoutes(app)
	reviewapi.RegisterRoutes(app)
	uploadapi.RegisterRoutes(app)

	addr := fmt.Sprintf(":%d", config.Cfg.Server.Port)
	if err := app.Listen(addr); err != nil {
		logger.Error(err, "server error")
	}
}
