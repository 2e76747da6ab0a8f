package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/services"
)

const sweepTimeout = 10 * time.Minute

// Scheduler runs the periodic sweeps in-process. Deployments that drive the
// sweeps through the HTTP cron endpoints leave SCHEDULER_ENABLED off.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func New(audits *services.AuditService, keywords *services.KeywordService, pdfs *services.PdfService, subs *services.SubscriptionService, logger *zap.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	s := &Scheduler{cron: c, logger: logger}

	jobs := []struct {
		spec string
		name string
		run  func(context.Context) error
	}{
		{"0 6 * * *", "verify-audits", func(ctx context.Context) error {
			_, err := audits.VerifyScheduledAudits(ctx)
			return err
		}},
		{"0 4 * * 1", "track-keywords", func(ctx context.Context) error {
			_, err := keywords.TrackAll(ctx)
			return err
		}},
		{"30 3 * * *", "purge-pdf-jobs", func(ctx context.Context) error {
			_, err := pdfs.PurgeExpired(ctx)
			return err
		}},
		{"0 3 * * *", "downgrade-subscriptions", func(ctx context.Context) error {
			_, err := subs.DowngradeExpired(ctx)
			return err
		}},
	}

	for _, job := range jobs {
		job := job
		if _, err := c.AddFunc(job.spec, func() { s.runJob(job.name, job.run) }); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) runJob(name string, run func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	if err := run(ctx); err != nil {
		s.logger.Error("scheduled job failed",
			zap.String("job", name), zap.Error(err))
		return
	}
	s.logger.Info("scheduled job finished",
		zap.String("job", name), zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
