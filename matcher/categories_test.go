package matcher

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charity-matcher/models"
	"charity-matcher/similarity"
)

func TestMatchCategoriesNormalization(t *testing.T) {
	index := environmentIndex()
	index.queryResults["categories"] = &similarity.QueryResult{
		IDs:       []string{"cat-1", "cat-2", "cat-3"},
		Documents: []string{"Environment", "Disaster Relief", "Animals"},
		Distances: []float64{0.2, 0.5, 0.8},
	}
	cs := &fakeCharityStore{subscribers: map[string][]models.Subscription{
		"Environment": {{UserID: "user-1", Category: "Environment"}},
	}}
	m := newTestMatcher(t, &fakeLLM{}, &fakeLLM{}, index, cs, &fakeWallet{})

	matches, subs := m.MatchCategories(context.Background(), models.Article{Title: "Wildfires rage"})
	require.Len(t, matches, 3)

	// similarities stay in [0,1] and preserve ascending distance order
	assert.Equal(t, 1.0, matches[0].Similarity)
	assert.InDelta(t, 0.5, matches[1].Similarity, 1e-9)
	assert.Equal(t, 0.0, matches[2].Similarity)
	for _, match := range matches {
		assert.GreaterOrEqual(t, match.Similarity, 0.0)
		assert.LessOrEqual(t, match.Similarity, 1.0)
	}
	assert.Equal(t, "Environment", matches[0].Category)

	require.Len(t, subs, 1)
	assert.Equal(t, "user-1", subs[0].UserID)
}

func TestMatchCategoriesSingleDistance(t *testing.T) {
	index := environmentIndex()
	index.queryResults["categories"] = &similarity.QueryResult{
		IDs:       []string{"cat-1"},
		Documents: []string{"Environment"},
		Distances: []float64{0.3},
	}
	cs := &fakeCharityStore{subscribers: map[string][]models.Subscription{
		"Environment": {{UserID: "user-1", Category: "Environment"}},
	}}
	m := newTestMatcher(t, &fakeLLM{}, &fakeLLM{}, index, cs, &fakeWallet{})

	matches, _ := m.MatchCategories(context.Background(), models.Article{Title: "t"})
	require.Len(t, matches, 1)
	// divisor pins to 1 when max == min
	assert.Equal(t, 1.0, matches[0].Similarity)
}

func TestMatchCategoriesAllUsersFallback(t *testing.T) {
	index := environmentIndex()
	index.queryResults["categories"] = &similarity.QueryResult{
		IDs:       []string{"cat-1"},
		Documents: []string{"Environment"},
		Distances: []float64{0.3},
	}
	cs := &fakeCharityStore{
		users: []models.User{{UserID: "user-1"}, {UserID: "user-2"}},
	}
	m := newTestMatcher(t, &fakeLLM{}, &fakeLLM{}, index, cs, &fakeWallet{})

	_, subs := m.MatchCategories(context.Background(), models.Article{Title: "t"})
	require.Len(t, subs, 2)
	assert.Equal(t, "Environment", subs[0].Category)
	assert.Equal(t, "Environment", subs[1].Category)
}

func TestMatchCategoriesErrorYieldsEmpty(t *testing.T) {
	index := environmentIndex()
	index.queryErr = fmt.Errorf("index unreachable")
	m := newTestMatcher(t, &fakeLLM{}, &fakeLLM{}, index, &fakeCharityStore{}, &fakeWallet{})

	matches, subs := m.MatchCategories(context.Background(), models.Article{Title: "t"})
	assert.Empty(t, matches)
	assert.Empty(t, subs)
}
