// Package httpapi serves the record engine over HTTP with Fiber.
// Routes mirror the original analysis service: scope and framework
// generation, feedback ingestion, example ingestion, matching and merging.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/custodia-labs/vpm/internal/core/ports/driving"
	"github.com/custodia-labs/vpm/internal/logger"
)

// ErrMissingGenerationService is returned when the generation service is not provided.
var ErrMissingGenerationService = errors.New("httpapi: generation service is required")

// AppName is reported by the root route.
const AppName = "Virtual Project Manager AI"

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	// Generation produces and merges records.
	Generation driving.GenerationService

	// Knowledge manages the reference store. Optional; ingestion and
	// matching routes answer 503 without it.
	Knowledge driving.KnowledgeService

	// Evaluation scores generated output. Optional.
	Evaluation driving.EvaluationService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Generation == nil {
		return ErrMissingGenerationService
	}
	return nil
}

// Config holds server options.
type Config struct {
	// RequestLog mounts the per-request access log.
	RequestLog bool

	// WriteTimeout bounds a response; generation can take minutes.
	WriteTimeout time.Duration
}

// Server is the HTTP server for vpm.
type Server struct {
	ports *Ports
	app   *fiber.App
}

// NewServer creates the Fiber app and registers every route.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Minute
	}

	app := fiber.New(fiber.Config{
		AppName:      AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.WriteTimeout,
	})
	app.Use(recover.New())
	if cfg.RequestLog {
		app.Use(fiberlogger.New())
	}

	s := &Server{ports: ports, app: app}
	s.registerRoutes()
	return s, nil
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Warn("http shutdown: %v", err)
		}
	}()

	logger.Info("HTTP API listening on %s", addr)
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func (s *Server) registerRoutes() {
	s.app.Get("/", s.handleRoot)

	analyze := s.app.Group("/analyze")
	analyze.Post("/scope", s.handleAnalyzeScope)
	analyze.Post("/framework", s.handleAnalyzeFramework)

	ingest := s.app.Group("/ingest")
	ingest.Post("/feedback", s.handleIngestFeedback)
	ingest.Post("/example", s.handleIngestExample)

	s.app.Post("/match", s.handleMatch)
	s.app.Post("/merge/:schema", s.handleMerge)
	s.app.Post("/quality/:schema", s.handleQuality)
	s.app.Post("/evaluate", s.handleEvaluate)
}
