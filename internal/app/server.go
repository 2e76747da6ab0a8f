package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/api/handlers"
	appMiddleware "github.com/seopulse/seopulse/internal/api/middlewares"
	"github.com/seopulse/seopulse/internal/config"
	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/services"
)

// Handlers bundles the dependencies the route tree needs.
type Handlers struct {
	DB       core.DbClient
	Usage    *services.UsageService
	Audits   *services.AuditService
	Pdfs     *services.PdfService
	Keywords *services.KeywordService
	Subs     *services.SubscriptionService
	AI       *services.AIService
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, logger *zap.Logger, deps *Handlers) *Server {
	authHandler := handlers.NewAuthHandler(deps.DB, cfg.JWTSecret, logger)
	projectHandler := handlers.NewProjectHandler(deps.DB, deps.Audits, deps.Keywords, deps.Usage, logger)
	auditHandler := handlers.NewAuditHandler(deps.DB, deps.Audits, logger)
	competitorHandler := handlers.NewCompetitorHandler(deps.DB, deps.Usage, logger)
	todoHandler := handlers.NewTodoHandler(deps.DB, logger)
	notificationHandler := handlers.NewNotificationHandler(deps.DB, logger)
	pdfHandler := handlers.NewPdfHandler(deps.Pdfs, logger)
	aiHandler := handlers.NewAIHandler(deps.AI, logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(deps.Subs, deps.Usage, logger)
	schedulerHandler := handlers.NewSchedulerHandler(deps.Audits, deps.Keywords, deps.Pdfs, deps.Subs, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appMiddleware.Observe(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "https://app.seopulse.io"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)
		api.Post("/subscriptions/webhook", subscriptionHandler.PaypalWebhook)

		// user endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))

			protected.Get("/me", authHandler.Me)
			protected.Get("/usage", subscriptionHandler.Usage)

			protected.Route("/projects", func(p chi.Router) {
				p.Post("/", projectHandler.Create)
				p.Get("/", projectHandler.List)
				p.Route("/{id}", func(pr chi.Router) {
					pr.Get("/", projectHandler.Get)
					pr.Put("/", projectHandler.Update)
					pr.Delete("/", projectHandler.Delete)
					pr.Post("/audit", projectHandler.StartAudit)
					pr.Get("/audits", projectHandler.ListAudits)
					pr.Get("/keywords/history", projectHandler.KeywordHistory)

					pr.Post("/competitors", competitorHandler.Create)
					pr.Get("/competitors", competitorHandler.List)
					pr.Delete("/competitors/{competitorID}", competitorHandler.Delete)

					pr.Post("/todos", todoHandler.Create)
					pr.Get("/todos", todoHandler.List)
					pr.Put("/todos/{todoID}", todoHandler.Update)
				})
			})

			protected.Post("/todos/batch-status", todoHandler.BatchUpdateStatus)
			protected.Post("/todos/batch-priority", todoHandler.BatchUpdatePriority)
			protected.Post("/todos/batch-delete", todoHandler.BatchDelete)

			protected.Get("/audits/{id}", auditHandler.Get)

			protected.Route("/pdf", func(p chi.Router) {
				p.Post("/generate", pdfHandler.Create)
				p.Get("/audit/{auditID}", pdfHandler.ListByAudit)
				p.Get("/{id}", pdfHandler.Get)
				p.Get("/{id}/status", pdfHandler.Status)
				p.Get("/{id}/download", pdfHandler.Download)
				p.Delete("/{id}", pdfHandler.Delete)
			})

			protected.Route("/ai", func(a chi.Router) {
				a.Post("/generate-content", aiHandler.GenerateContent)
				a.Post("/keyword-suggestions", aiHandler.KeywordSuggestions)
				a.Post("/recommendations", aiHandler.Recommendations)
				a.Post("/todo-recommendations", aiHandler.TodoRecommendations)
			})

			protected.Get("/notifications", notificationHandler.List)
			protected.Post("/notifications/{id}/read", notificationHandler.MarkRead)
			protected.Post("/notifications/read-all", notificationHandler.MarkAllRead)
		})

		// crawler/worker callbacks
		api.Group(func(worker chi.Router) {
			worker.Use(appMiddleware.APIKeyAuth(cfg.CrawlerAPIKey))

			worker.Post("/audits/{id}/complete", auditHandler.Complete)
			worker.Post("/pdf/{id}/update-status", pdfHandler.UpdateStatus)
			worker.Post("/pdf/{id}/update-content", pdfHandler.UpdateContent)
			worker.Post("/pdf/{id}/artifact", pdfHandler.UploadArtifact)
			worker.Post("/projects/{id}/competitors/{competitorID}/status", competitorHandler.UpdateStatus)
		})

		// external scheduler
		api.Group(func(sched chi.Router) {
			sched.Use(appMiddleware.APIKeyAuth(cfg.SchedulerAPIKey))

			sched.Get("/scheduler/verify-audits", schedulerHandler.VerifyAudits)
			sched.Post("/scheduler/verify-audits", schedulerHandler.VerifyAudits)
		})

		// cron endpoints
		api.Group(func(cron chi.Router) {
			cron.Use(appMiddleware.CronAuth(cfg.CronSecret))

			cron.Get("/cron/track-keywords", schedulerHandler.TrackKeywords)
			cron.Post("/cron/track-keywords", schedulerHandler.TrackKeywords)
			cron.Post("/cron/cleanup", schedulerHandler.Cleanup)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, logger: logger}
}

// Start runs the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}
