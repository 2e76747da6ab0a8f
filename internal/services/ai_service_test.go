package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/models"
)

func aiFixture(llm core.LLMProvider) *AIService {
	db := &fakeDB{
		getAuditByID: func(_ context.Context, id string) (*models.Audit, error) {
			return &models.Audit{ID: id, UserID: "u1", Report: []byte(`{"score": 70}`)}, nil
		},
		getProjectByID: func(_ context.Context, id string) (*models.Project, error) {
			return &models.Project{ID: id, UserID: "u1", URL: "https://mysite.example", Keywords: []string{"seo"}}, nil
		},
		getProfileByID: func(_ context.Context, id string) (*models.Profile, error) {
			return &models.Profile{ID: id, SubscriptionTier: models.TierAgency}, nil
		},
		getUsageLimit: func(_ context.Context, _, _ string) (*models.UsageLimit, error) {
			return &models.UsageLimit{MonthlyLimit: -1}, nil
		},
	}
	usage := NewUsageService(db, nil, zap.NewNop(), true)
	return NewAIService(db, llm, usage, zap.NewNop())
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain array", raw: `[{"keyword":"a"}]`, want: `[{"keyword":"a"}]`},
		{name: "json fence", raw: "```json\n[{\"keyword\":\"a\"}]\n```", want: `[{"keyword":"a"}]`},
		{name: "bare fence", raw: "```\n{\"x\":1}\n```", want: `{"x":1}`},
		{name: "leading prose", raw: "Here are your keywords:\n[{\"keyword\":\"a\"}]", want: `[{"keyword":"a"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(extractJSON(tt.raw)))
		})
	}
}

func TestGenerateReportContentFillsAllSections(t *testing.T) {
	svc := aiFixture(&fakeLLM{response: "generated text"})

	content, err := svc.GenerateReportContent(context.Background(), "u1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "generated text", content.ExecutiveSummary)
	assert.Equal(t, "generated text", content.Recommendations)
	assert.Equal(t, "generated text", content.TechnicalExplanations)
}

func TestSuggestKeywordsParsesFencedResponse(t *testing.T) {
	svc := aiFixture(&fakeLLM{
		response: "```json\n[{\"keyword\":\"seo audit tool\",\"intent\":\"commercial\",\"rationale\":\"high intent\"}]\n```",
	})

	suggestions, err := svc.SuggestKeywords(context.Background(), "u1", "p1", 5)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "seo audit tool", suggestions[0].Keyword)
	assert.Equal(t, "commercial", suggestions[0].Intent)
}

func TestSuggestKeywordsUnparseableResponse(t *testing.T) {
	svc := aiFixture(&fakeLLM{response: "sorry, I cannot help with that"})

	_, err := svc.SuggestKeywords(context.Background(), "u1", "p1", 5)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestAICrossTenantReadsAsNotFound(t *testing.T) {
	db := &fakeDB{
		getAuditByID: func(_ context.Context, id string) (*models.Audit, error) {
			return &models.Audit{ID: id, UserID: "someone-else"}, nil
		},
	}
	svc := NewAIService(db, &fakeLLM{}, nil, zap.NewNop())

	_, err := svc.Recommendations(context.Background(), "u1", "a1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestAIGenerationGatedByUsage(t *testing.T) {
	db := &fakeDB{
		getAuditByID: func(_ context.Context, id string) (*models.Audit, error) {
			return &models.Audit{ID: id, UserID: "u1"}, nil
		},
		getProfileByID: func(_ context.Context, id string) (*models.Profile, error) {
			return &models.Profile{ID: id, SubscriptionTier: models.TierFree}, nil
		},
		getUsageLimit: func(_ context.Context, _, _ string) (*models.UsageLimit, error) {
			return &models.UsageLimit{MonthlyLimit: 5}, nil
		},
		countUsageSince: func(_ context.Context, _, _ string, _ time.Time) (int, error) { return 5, nil },
	}
	usage := NewUsageService(db, nil, zap.NewNop(), true)
	svc := NewAIService(db, &fakeLLM{response: "x"}, usage, zap.NewNop())

	_, err := svc.Recommendations(context.Background(), "u1", "a1")
	var limitErr *core.LimitExceededError
	assert.ErrorAs(t, err, &limitErr)
}
