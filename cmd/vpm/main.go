package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/vpm/internal/adapters/driven/ai"
	"github.com/custodia-labs/vpm/internal/adapters/driven/config/file"
	"github.com/custodia-labs/vpm/internal/adapters/driving/cli"
	"github.com/custodia-labs/vpm/internal/core/ports/driving"
	"github.com/custodia-labs/vpm/internal/core/services"
	"github.com/custodia-labs/vpm/internal/logger"
	"github.com/custodia-labs/vpm/internal/recovery"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load() // .env is optional

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configDir, err := file.DefaultConfigDir()
	if err != nil {
		return fmt.Errorf("resolve config directory: %w", err)
	}

	// ── Configuration ────────────────────────────────────────────────────
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return err
	}
	if err := configStore.Load(); err != nil {
		return fmt.Errorf("load %s: %w", configStore.Path(), err)
	}
	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return err
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	// ── AI services ──────────────────────────────────────────────────────
	result, err := ai.Init(ctx, *settings, configDir)
	if err != nil {
		return err
	}
	defer result.Close()
	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}

	pipeline, err := recovery.NewDefaultPipeline(settings.Recovery.Strategies)
	if err != nil {
		return fmt.Errorf("recovery pipeline: %w", err)
	}

	// ── Core ─────────────────────────────────────────────────────────────
	gateway := services.NewModelGateway(
		services.GatewayTier{Service: result.Primary, Settings: settings.Primary},
		services.GatewayTier{Service: result.Fallback, Settings: settings.Fallback},
		settings.Generation.CallTimeout,
	)
	cascade := services.NewCascade(gateway, pipeline, prompts, settings.Generation)

	var (
		retrieval  *services.RetrievalEngine
		knowledge  driving.KnowledgeService
		evaluation driving.EvaluationService
	)
	if result.EmbeddingService != nil && result.VectorIndex != nil {
		retrieval = services.NewRetrievalEngine(result.EmbeddingService, result.VectorIndex)
		ks := services.NewKnowledgeService(retrieval)
		knowledge = ks
		evaluation = services.NewEvaluator(result.EmbeddingService, ks)
	}
	generation := services.NewGenerationService(cascade, retrieval, prompts, settings.Generation)

	cli.SetVersion(version)
	cli.SetServices(&cli.Services{
		Generation: generation,
		Knowledge:  knowledge,
		Evaluation: evaluation,
		Settings:   settingsService,
		WatchPrompts: func(ctx context.Context) error {
			return file.WatchPrompts(ctx, prompts)
		},
	})

	return cli.Execute(ctx)
}
