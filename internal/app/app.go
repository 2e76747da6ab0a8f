package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/config"
	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/core/cache"
	"github.com/seopulse/seopulse/internal/core/crawler"
	db "github.com/seopulse/seopulse/internal/core/database"
	"github.com/seopulse/seopulse/internal/core/llm"
	objectclient "github.com/seopulse/seopulse/internal/core/object-client"
	"github.com/seopulse/seopulse/internal/core/paypal"
	"github.com/seopulse/seopulse/internal/core/serper"
	"github.com/seopulse/seopulse/internal/scheduler"
	"github.com/seopulse/seopulse/internal/services"
)

// App wires infrastructure clients, services and the HTTP server together.
type App struct {
	DBClient  core.DbClient
	Server    *Server
	Scheduler *scheduler.Scheduler

	logger *zap.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	logger.Info("database initialized and ready")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}
	logger.Info("object client initialized and ready")

	redisCache, err := cache.New(appCtx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		// The cache is an optimization; the API serves without it.
		logger.Warn("redis unavailable, running without cache", zap.Error(err))
		redisCache = nil
	}

	llmProvider, err := newLLMProvider(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	logger.Info("llm provider initialized", zap.String("provider", cfg.AIProvider))

	crawlerClient := crawler.New(cfg.CrawlerServiceURL, cfg.CrawlerAPIKey)
	rankProvider := serper.New(cfg.SerperAPIKey)
	paypalClient := paypal.New(cfg.PaypalBaseURL, cfg.PaypalClientID, cfg.PaypalClientSecret, cfg.PaypalWebhookID)

	var cacheIface core.Cache
	if redisCache != nil {
		cacheIface = redisCache
	}

	usage := services.NewUsageService(dbClient, cacheIface, logger, cfg.LimitDefaultPolicy != "allow")
	audits := services.NewAuditService(dbClient, crawlerClient, usage, logger)
	pdfs := services.NewPdfService(dbClient, crawlerClient, objClient, cacheIface, usage, logger, cfg.BucketName)
	keywords := services.NewKeywordService(dbClient, rankProvider, logger)
	subs := services.NewSubscriptionService(dbClient, paypalClient, logger)
	ai := services.NewAIService(dbClient, llmProvider, usage, logger)

	server := NewServer(cfg, logger, &Handlers{
		DB:       dbClient,
		Usage:    usage,
		Audits:   audits,
		Pdfs:     pdfs,
		Keywords: keywords,
		Subs:     subs,
		AI:       ai,
	})

	app := &App{DBClient: dbClient, Server: server, logger: logger}

	if cfg.SchedulerEnabled {
		sched, err := scheduler.New(audits, keywords, pdfs, subs, logger)
		if err != nil {
			return nil, fmt.Errorf("scheduler: %w", err)
		}
		app.Scheduler = sched
	}

	return app, nil
}

func newLLMProvider(ctx context.Context, cfg *config.Config) (core.LLMProvider, error) {
	switch cfg.AIProvider {
	case "gemini":
		return llm.NewGeminiLLM(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return llm.NewAzureOpenAI(cfg.AzureOpenAIEndpoint, cfg.AzureOpenAIKey, cfg.AzureOpenAIDeploy, cfg.AzureOpenAIVersion)
	}
}

func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
