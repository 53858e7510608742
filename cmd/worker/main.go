package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"contentforge/internal/adapter/repo"
	"contentforge/internal/domain"
	"contentforge/internal/infra"
	"contentforge/internal/pipeline"
	"contentforge/internal/providers/asset"
	"contentforge/internal/providers/content"
	"contentforge/internal/providers/genai"
	"contentforge/internal/storage"
)

type jobWorker struct {
	jobs         domain.JobRepository
	orch         *pipeline.Orchestrator
	logger       infra.Logger
	pollInterval time.Duration
	batchSize    int
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	jobs := repo.NewJobRepository(pool)
	artifacts := repo.NewArtifactRepository(pool)

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	geminiClient, err := genai.NewClient(genai.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure gemini client")
	}
	if !geminiClient.Configured() {
		logger.Warn().Str("model", geminiClient.Model()).Msg("worker: gemini api key missing, using fallback generation")
	}

	orch := pipeline.NewOrchestrator(pipeline.OrchestratorOptions{
		Jobs:       jobs,
		Artifacts:  artifacts,
		Generators: []content.Generator{content.NewGeminiGenerator(geminiClient), content.NewStaticGenerator()},
		Assets:     asset.NewGeminiGenerator(geminiClient),
		Store:      store,
		Logger:     logger,

		AssetTimeout:    cfg.AssetStageTimeout,
		ClaimStaleAfter: cfg.ClaimStaleAfter,
	})

	worker := &jobWorker{
		jobs:         jobs,
		orch:         orch,
		logger:       logger,
		pollInterval: cfg.WorkerPollInterval,
		batchSize:    cfg.WorkerBatchSize,
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// Run polls for pending jobs and dispatches them through the orchestrator
// until the context is cancelled. Tenant pause lives in the API process and
// scopes its batch driver only; the worker sweeps everything pending.
func (w *jobWorker) Run(ctx context.Context) error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		pending, err := w.jobs.NextPending(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("worker: failed to list pending jobs")
			w.sleep(ctx)
			continue
		}
		if len(pending) == 0 {
			w.sleep(ctx)
			continue
		}

		for _, job := range pending {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			result := w.orch.Process(ctx, job.TenantID, job.ID, domain.DefaultContentSelection())
			w.logger.Info().
				Str("job_id", job.ID).
				Str("tenant_id", job.TenantID).
				Str("outcome", string(result.Outcome)).
				Msg("worker: job finished")
		}
	}
}

func (w *jobWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}
