package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/metrics"
	"github.com/seopulse/seopulse/internal/models"
)

const rankLookupLimit = 100

// KeywordService runs the weekly rank-tracking sweep: for every active
// project with keywords, look up each keyword's organic position and append
// a history row.
type KeywordService struct {
	db     core.DbClient
	ranks  core.RankProvider
	logger *zap.Logger

	now func() time.Time
}

func NewKeywordService(db core.DbClient, ranks core.RankProvider, logger *zap.Logger) *KeywordService {
	return &KeywordService{
		db:     db,
		ranks:  ranks,
		logger: logger,
		now:    time.Now,
	}
}

// TrackSummary is the response payload of a tracking sweep.
type TrackSummary struct {
	ProjectsProcessed int `json:"projects_processed"`
	KeywordsTracked   int `json:"keywords_tracked"`
	FailedLookups     int `json:"failed_lookups"`
}

// TrackAll sweeps every active project. A failed lookup for one keyword
// never stops the remaining keywords or projects.
func (s *KeywordService) TrackAll(ctx context.Context) (*TrackSummary, error) {
	projects, err := s.db.ListActiveProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active projects: %w", err)
	}

	summary := &TrackSummary{}
	for i := range projects {
		project := &projects[i]
		if len(project.Keywords) == 0 {
			continue
		}
		tracked, failed := s.trackProject(ctx, project)
		summary.ProjectsProcessed++
		summary.KeywordsTracked += tracked
		summary.FailedLookups += failed
	}

	s.logger.Info("keyword tracking sweep finished",
		zap.Int("projects", summary.ProjectsProcessed),
		zap.Int("keywords", summary.KeywordsTracked),
		zap.Int("failed", summary.FailedLookups))
	return summary, nil
}

func (s *KeywordService) trackProject(ctx context.Context, project *models.Project) (tracked, failed int) {
	host := hostOf(project.URL)
	checkedAt := s.now().UTC()

	rankings := make([]models.KeywordRanking, 0, len(project.Keywords))
	for _, keyword := range project.Keywords {
		results, err := s.ranks.Search(ctx, keyword, rankLookupLimit)
		if err != nil {
			failed++
			metrics.KeywordLookups.WithLabelValues("failed").Inc()
			s.logger.Warn("rank lookup failed",
				zap.String("project_id", project.ID),
				zap.String("keyword", keyword),
				zap.Error(err))
			continue
		}

		position, link := pickResult(results, host)
		rankings = append(rankings, models.KeywordRanking{
			ID:           uuid.NewString(),
			ProjectID:    project.ID,
			Keyword:      keyword,
			Position:     position,
			URL:          link,
			SearchEngine: "google",
			CheckedAt:    checkedAt,
		})
		tracked++
		metrics.KeywordLookups.WithLabelValues("ok").Inc()
	}

	if len(rankings) > 0 {
		if err := s.db.InsertKeywordRankings(ctx, rankings); err != nil {
			s.logger.Error("failed to insert keyword rankings",
				zap.String("project_id", project.ID), zap.Error(err))
		}
	}
	return tracked, failed
}

// pickResult prefers the first result on the project's own host; when the
// site is not in the results at all, it falls back to the overall first
// result so the history still records what won the keyword.
func pickResult(results []core.RankResult, host string) (int, string) {
	if len(results) == 0 {
		return 0, ""
	}
	if host != "" {
		for _, r := range results {
			if sameHost(hostOf(r.Link), host) {
				return r.Position, r.Link
			}
		}
	}
	return results[0].Position, results[0].Link
}

func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func sameHost(a, b string) bool {
	a = strings.TrimPrefix(a, "www.")
	b = strings.TrimPrefix(b, "www.")
	return a != "" && a == b
}

// History returns recent rank data points for a project the user owns.
func (s *KeywordService) History(ctx context.Context, userID, projectID, keyword string, limit int) ([]models.KeywordRanking, error) {
	project, err := s.db.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil || project.UserID != userID {
		return nil, core.ErrNotFound
	}
	return s.db.ListKeywordHistory(ctx, projectID, keyword, limit)
}
