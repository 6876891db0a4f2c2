package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charity-matcher/models"
	"charity-matcher/similarity"
)

func TestFindSimilarCharitiesScoresFromDistance(t *testing.T) {
	index := environmentIndex()
	index.queryResults["charities"] = &similarity.QueryResult{
		IDs:       []string{"ch-1"},
		Documents: []string{`{"name":"World Wildlife Fund","mission_statement":"Conservation of nature"}`},
		Distances: []float64{0.2},
	}
	m := newTestMatcher(t, &fakeLLM{}, &fakeLLM{}, index, &fakeCharityStore{}, &fakeWallet{})

	candidates := m.FindSimilarCharities(context.Background(), models.Article{Title: "Wildfires"}, "Environment", 5)
	require.Len(t, candidates, 1)
	assert.Equal(t, "World Wildlife Fund", candidates[0].Name)
	assert.Equal(t, "Conservation of nature", candidates[0].Mission)
	assert.InDelta(t, 0.9, candidates[0].SimilarityScore, 1e-9)

	// the query must be scoped to the resolved category id
	assert.Equal(t, map[string]string{"category_id": "cat-1"}, index.lastWhere)
	assert.Equal(t, 5, index.lastN)
}

func TestFindSimilarCharitiesRelationalFallback(t *testing.T) {
	index := environmentIndex() // charity query returns zero hits
	cs := &fakeCharityStore{charitiesBySlug: map[string][]models.Charity{
		"environment": {
			{Name: "Rainforest Trust", Mission: "Protect rainforests"},
			{Name: "Ocean Cleanup", Mission: "Remove plastic"},
		},
	}}
	m := newTestMatcher(t, &fakeLLM{}, &fakeLLM{}, index, cs, &fakeWallet{})

	candidates := m.FindSimilarCharities(context.Background(), models.Article{Title: "t"}, "Environment", 5)
	require.Len(t, candidates, 2)
	for _, c := range candidates {
		assert.Equal(t, 0.8, c.SimilarityScore)
	}
	assert.Equal(t, "environment", cs.lastSlug)
}

func TestFindSimilarCharitiesLowercaseSlugHeuristic(t *testing.T) {
	index := environmentIndex()
	index.getResults["categories"] = &similarity.QueryResult{
		IDs:       []string{"cat-9"},
		Documents: []string{"Oceans"},
	}
	cs := &fakeCharityStore{}
	m := newTestMatcher(t, &fakeLLM{}, &fakeLLM{}, index, cs, &fakeWallet{})

	m.FindSimilarCharities(context.Background(), models.Article{Title: "t"}, "Oceans", 5)
	// "Oceans" has no configured slug, so the lookup lowercases it
	assert.Equal(t, "oceans", cs.lastSlug)
}

func TestFindSimilarCharitiesNoCategory(t *testing.T) {
	m := newTestMatcher(t, &fakeLLM{}, &fakeLLM{}, environmentIndex(), &fakeCharityStore{}, &fakeWallet{})
	assert.Empty(t, m.FindSimilarCharities(context.Background(), models.Article{Title: "t"}, "", 5))
}
