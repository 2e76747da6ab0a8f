package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/core"
	"github.com/seopulse/seopulse/internal/models"
)

func TestPickResult(t *testing.T) {
	results := []core.RankResult{
		{Position: 1, Link: "https://competitor.example/page"},
		{Position: 4, Link: "https://www.mysite.example/pricing"},
		{Position: 9, Link: "https://mysite.example/blog"},
	}

	pos, link := pickResult(results, "mysite.example")
	assert.Equal(t, 4, pos)
	assert.Equal(t, "https://www.mysite.example/pricing", link)

	// Site absent from results: record the overall winner.
	pos, link = pickResult(results, "elsewhere.example")
	assert.Equal(t, 1, pos)
	assert.Equal(t, "https://competitor.example/page", link)

	pos, link = pickResult(nil, "mysite.example")
	assert.Equal(t, 0, pos)
	assert.Empty(t, link)
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "example.com", hostOf("https://example.com/path"))
	assert.Equal(t, "example.com", hostOf("example.com"))
	assert.Equal(t, "example.com", hostOf("EXAMPLE.com:8080"))
	assert.Empty(t, hostOf(""))
}

func TestTrackAllIsolatesLookupFailures(t *testing.T) {
	projects := []models.Project{
		{ID: "p1", URL: "https://mysite.example", Keywords: []string{"good kw", "bad kw", "other kw"}},
		{ID: "p2", URL: "https://other.example", Keywords: nil}, // skipped, no keywords
	}

	var inserted []models.KeywordRanking
	db := &fakeDB{
		listActiveProjects: func(_ context.Context) ([]models.Project, error) { return projects, nil },
		insertKeywordRankings: func(_ context.Context, rankings []models.KeywordRanking) error {
			inserted = append(inserted, rankings...)
			return nil
		},
	}
	ranks := &fakeRanks{
		results: map[string][]core.RankResult{
			"good kw":  {{Position: 2, Link: "https://mysite.example/a"}},
			"other kw": {{Position: 7, Link: "https://mysite.example/b"}},
		},
		errs: map[string]error{"bad kw": errors.New("serper 500")},
	}

	svc := NewKeywordService(db, ranks, zap.NewNop())
	summary, err := svc.TrackAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ProjectsProcessed)
	assert.Equal(t, 2, summary.KeywordsTracked)
	assert.Equal(t, 1, summary.FailedLookups)

	require.Len(t, inserted, 2)
	assert.Equal(t, "good kw", inserted[0].Keyword)
	assert.Equal(t, 2, inserted[0].Position)
	assert.Equal(t, "google", inserted[0].SearchEngine)
}

func TestHistoryEnforcesOwnership(t *testing.T) {
	db := &fakeDB{
		getProjectByID: func(_ context.Context, id string) (*models.Project, error) {
			return &models.Project{ID: id, UserID: "owner"}, nil
		},
	}
	svc := NewKeywordService(db, nil, zap.NewNop())

	_, err := svc.History(context.Background(), "intruder", "p1", "", 10)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
