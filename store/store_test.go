package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charity-matcher/models"
	"charity-matcher/store"
)

func TestLedgerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")

	l := store.OpenLedger(path)
	assert.False(t, l.Contains("https://example.com/a"))

	require.NoError(t, l.MarkProcessed("https://example.com/a"))
	require.NoError(t, l.MarkProcessed("https://example.com/b"))
	assert.True(t, l.Contains("https://example.com/a"))

	reloaded := store.OpenLedger(path)
	assert.True(t, reloaded.Contains("https://example.com/a"))
	assert.True(t, reloaded.Contains("https://example.com/b"))
	assert.Equal(t, 2, reloaded.Len())
}

func TestLedgerCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	l := store.OpenLedger(path)
	assert.Equal(t, 0, l.Len())
}

func TestRecommendationRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recommendations.json")

	s := store.OpenRecommendationStore(path)
	require.NoError(t, s.Store(store.StoreInput{
		UserID:         "user-1",
		CharityName:    "World Wildlife Fund",
		CharityMission: "Conservation of nature and wildlife",
		Category:       "Environment",
		Article: models.Article{
			Title:       "Climate Change Crisis",
			Description: "Wildfires spread",
			Link:        "https://x/1",
		},
		UrgencyScore:   8,
		Reason:         "Based on recent news: Climate Change Crisis",
		RelevanceScore: 0.91,
	}))

	reloaded := store.OpenRecommendationStore(path)
	recs := reloaded.Get("user-1")
	require.Len(t, recs, 1)
	assert.Equal(t, "World Wildlife Fund", recs[0].Charity.Name)
	assert.Equal(t, "https://worldwildlifefund.org", recs[0].Charity.URL)
	assert.Equal(t, "https://x/1", recs[0].NewsArticle.URL)
	assert.Equal(t, 0.91, recs[0].RelevanceScore)
	assert.False(t, recs[0].GeneratedAt.IsZero())
}

func TestRecommendationsUnknownUserIsEmpty(t *testing.T) {
	s := store.OpenRecommendationStore(filepath.Join(t.TempDir(), "r.json"))
	assert.Empty(t, s.Get("nobody"))
}

func TestRecommendationsAppendOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recommendations.json")
	s := store.OpenRecommendationStore(path)

	for _, name := range []string{"Red Cross", "Oxfam", "UNICEF"} {
		require.NoError(t, s.Store(store.StoreInput{
			UserID:      "user-1",
			CharityName: name,
			Article:     models.Article{Title: "t", Link: "https://x/2"},
		}))
	}

	recs := s.Get("user-1")
	require.Len(t, recs, 3)
	assert.Equal(t, "Red Cross", recs[0].Charity.Name)
	assert.Equal(t, "Oxfam", recs[1].Charity.Name)
	assert.Equal(t, "UNICEF", recs[2].Charity.Name)
}
