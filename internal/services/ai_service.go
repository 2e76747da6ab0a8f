package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/metrics"
	"github.com/seopulse/seopulse/internal/models"
)

const reportSystemPrompt = "You are an SEO consultant writing for a non-technical business owner. " +
	"Be specific, reference the provided audit data, and never invent metrics."

// ReportContent is the AI-written section set attached to a PDF report.
type ReportContent struct {
	ExecutiveSummary      string `json:"executive_summary"`
	Recommendations       string `json:"recommendations"`
	TechnicalExplanations string `json:"technical_explanations"`
}

// KeywordSuggestion is one AI-proposed keyword with its rationale.
type KeywordSuggestion struct {
	Keyword   string `json:"keyword"`
	Intent    string `json:"intent"`
	Rationale string `json:"rationale"`
}

// TodoSuggestion is one AI-proposed action item derived from audit findings.
type TodoSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// AIService builds prompts from audit/project data and parses structured
// answers out of the LLM response. Every call is gated by the
// ai_generations usage limit.
type AIService struct {
	db     core.DbClient
	llm    core.LLMProvider
	usage  *UsageService
	logger *zap.Logger
}

func NewAIService(db core.DbClient, llm core.LLMProvider, usage *UsageService, logger *zap.Logger) *AIService {
	return &AIService{db: db, llm: llm, usage: usage, logger: logger}
}

// GenerateReportContent writes the three PDF report sections. The sections
// are independent prompts, so they run concurrently.
func (s *AIService) GenerateReportContent(ctx context.Context, userID, auditID string) (*ReportContent, error) {
	audit, err := s.ownedAudit(ctx, userID, auditID)
	if err != nil {
		return nil, err
	}
	if err := s.usage.Consume(ctx, userID, models.FeatureAIGenerations, 1); err != nil {
		return nil, err
	}

	reportData := string(audit.Report)
	if reportData == "" {
		reportData = "(no report data available yet)"
	}

	content := &ReportContent{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := s.llm.Generate(gctx, reportSystemPrompt,
			"Write a 3-paragraph executive summary of this SEO audit:\n\n"+reportData)
		content.ExecutiveSummary = text
		return err
	})
	g.Go(func() error {
		text, err := s.llm.Generate(gctx, reportSystemPrompt,
			"List the top prioritized recommendations from this SEO audit, most impactful first:\n\n"+reportData)
		content.Recommendations = text
		return err
	})
	g.Go(func() error {
		text, err := s.llm.Generate(gctx, reportSystemPrompt,
			"Explain the technical findings of this SEO audit in plain language:\n\n"+reportData)
		content.TechnicalExplanations = text
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.AIGenerations.WithLabelValues("report_content", "failed").Inc()
		return nil, fmt.Errorf("generate report content: %w", err)
	}
	metrics.AIGenerations.WithLabelValues("report_content", "ok").Inc()
	return content, nil
}

// SuggestKeywords proposes new keywords for a project.
func (s *AIService) SuggestKeywords(ctx context.Context, userID, projectID string, count int) ([]KeywordSuggestion, error) {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.usage.Consume(ctx, userID, models.FeatureAIGenerations, 1); err != nil {
		return nil, err
	}
	if count <= 0 || count > 25 {
		count = 10
	}

	prompt := fmt.Sprintf(
		"Suggest %d SEO keywords for the website %s (currently targeting: %s). "+
			`Respond with a JSON array of objects with fields "keyword", "intent" and "rationale". No prose.`,
		count, project.URL, strings.Join(project.Keywords, ", "))

	raw, err := s.llm.Generate(ctx, reportSystemPrompt, prompt)
	if err != nil {
		metrics.AIGenerations.WithLabelValues("keyword_suggestions", "failed").Inc()
		return nil, fmt.Errorf("generate keyword suggestions: %w", err)
	}

	var suggestions []KeywordSuggestion
	if err := json.Unmarshal(extractJSON(raw), &suggestions); err != nil {
		metrics.AIGenerations.WithLabelValues("keyword_suggestions", "failed").Inc()
		return nil, fmt.Errorf("%w: model returned unparseable suggestions", core.ErrValidation)
	}
	metrics.AIGenerations.WithLabelValues("keyword_suggestions", "ok").Inc()
	return suggestions, nil
}

// Recommendations writes free-form improvement advice for an audit.
func (s *AIService) Recommendations(ctx context.Context, userID, auditID string) (string, error) {
	audit, err := s.ownedAudit(ctx, userID, auditID)
	if err != nil {
		return "", err
	}
	if err := s.usage.Consume(ctx, userID, models.FeatureAIGenerations, 1); err != nil {
		return "", err
	}

	text, err := s.llm.Generate(ctx, reportSystemPrompt,
		"Given this SEO audit, produce a prioritized list of recommendations with expected impact:\n\n"+string(audit.Report))
	if err != nil {
		metrics.AIGenerations.WithLabelValues("recommendations", "failed").Inc()
		return "", fmt.Errorf("generate recommendations: %w", err)
	}
	metrics.AIGenerations.WithLabelValues("recommendations", "ok").Inc()
	return text, nil
}

// SuggestTodos turns audit findings into actionable todo items.
func (s *AIService) SuggestTodos(ctx context.Context, userID, auditID string) ([]TodoSuggestion, error) {
	audit, err := s.ownedAudit(ctx, userID, auditID)
	if err != nil {
		return nil, err
	}
	if err := s.usage.Consume(ctx, userID, models.FeatureAIGenerations, 1); err != nil {
		return nil, err
	}

	prompt := "Turn the issues in this SEO audit into a task list. " +
		`Respond with a JSON array of objects with fields "title", "description" and "priority" (low/medium/high). No prose.` +
		"\n\n" + string(audit.Report)

	raw, err := s.llm.Generate(ctx, reportSystemPrompt, prompt)
	if err != nil {
		metrics.AIGenerations.WithLabelValues("todo_suggestions", "failed").Inc()
		return nil, fmt.Errorf("generate todo suggestions: %w", err)
	}

	var suggestions []TodoSuggestion
	if err := json.Unmarshal(extractJSON(raw), &suggestions); err != nil {
		metrics.AIGenerations.WithLabelValues("todo_suggestions", "failed").Inc()
		return nil, fmt.Errorf("%w: model returned unparseable tasks", core.ErrValidation)
	}
	metrics.AIGenerations.WithLabelValues("todo_suggestions", "ok").Inc()
	return suggestions, nil
}

func (s *AIService) ownedAudit(ctx context.Context, userID, auditID string) (*models.Audit, error) {
	audit, err := s.db.GetAuditByID(ctx, auditID)
	if err != nil {
		return nil, fmt.Errorf("load audit: %w", err)
	}
	if audit == nil || audit.UserID != userID {
		return nil, core.ErrNotFound
	}
	return audit, nil
}

func (s *AIService) ownedProject(ctx context.Context, userID, projectID string) (*models.Project, error) {
	project, err := s.db.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil || project.UserID != userID {
		return nil, core.ErrNotFound
	}
	return project, nil
}

// extractJSON strips markdown code fences and leading prose so the payload
// can be unmarshalled even when the model wraps its answer.
func extractJSON(raw string) []byte {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if idx := strings.LastIndex(raw, "```"); idx >= 0 {
			raw = raw[:idx]
		}
		raw = strings.TrimSpace(raw)
	}
	if start := strings.IndexAny(raw, "[{"); start > 0 {
		raw = raw[start:]
	}
	return []byte(raw)
}
