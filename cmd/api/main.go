package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"contentforge/internal/adapter/repo"
	"contentforge/internal/http/handlers"
	"contentforge/internal/http/httpapi"
	"contentforge/internal/infra"
	"contentforge/internal/infra/geoip"
	"contentforge/internal/middleware"
	"contentforge/internal/observability"
	"contentforge/internal/pipeline"
	"contentforge/internal/providers/asset"
	"contentforge/internal/providers/content"
	"contentforge/internal/providers/genai"
	"contentforge/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to connect database")
	}
	defer pool.Close()

	if err := repo.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("api: migrations failed")
	}

	jobs := repo.NewJobRepository(pool)
	artifacts := repo.NewArtifactRepository(pool)

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure storage")
	}

	geminiClient, err := genai.NewClient(genai.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure gemini client")
	}
	if !geminiClient.Configured() {
		logger.Warn().Str("model", geminiClient.Model()).Msg("api: gemini api key missing, using fallback generation")
	}

	metricsHandler, metrics, shutdownMetrics, err := observability.Init()
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to initialize metrics")
	}

	orch := pipeline.NewOrchestrator(pipeline.OrchestratorOptions{
		Jobs:       jobs,
		Artifacts:  artifacts,
		Generators: []content.Generator{content.NewGeminiGenerator(geminiClient), content.NewStaticGenerator()},
		Assets:     asset.NewGeminiGenerator(geminiClient),
		Store:      store,
		Metrics:    metrics,
		Logger:     logger,

		AssetTimeout:    cfg.AssetStageTimeout,
		ClaimStaleAfter: cfg.ClaimStaleAfter,
	})
	driver := pipeline.NewBatchDriver(orch, pipeline.NewPauseRegistry(), metrics, logger)
	app := handlers.NewApp(driver, jobs, artifacts, logger)

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   countryLookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
		MetricsHandler:  metricsHandler,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: failed to shutdown server")
	}
	if err := shutdownMetrics(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: failed to shutdown metrics")
	}
	logger.Info().Msg("api: stopped")
}
