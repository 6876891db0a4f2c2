package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"charity-matcher/logger"
	"charity-matcher/models"
)

// RecommendationStore holds the append-only per-user recommendation history.
// The whole map is rewritten to disk on every append, matching the simple
// read/overwrite persistence contract of the rest of the pipeline state.
type RecommendationStore struct {
	mu   sync.Mutex
	path string
	byID map[string][]models.Recommendation
}

// OpenRecommendationStore loads the store file. Missing or unreadable files
// start an empty map; that is logged, not fatal.
func OpenRecommendationStore(path string) *RecommendationStore {
	s := &RecommendationStore{path: path, byID: map[string][]models.Recommendation{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Log.Warnf("failed to read recommendations file %s: %v", path, err)
		}
		return s
	}
	if err := json.Unmarshal(data, &s.byID); err != nil {
		logger.Log.Warnf("failed to parse recommendations file %s: %v", path, err)
		s.byID = map[string][]models.Recommendation{}
		return s
	}

	total := 0
	for _, recs := range s.byID {
		total += len(recs)
	}
	logger.Log.Infof("loaded %d recommendations from %s", total, path)
	return s
}

// StoreInput carries everything needed to build one recommendation entry.
type StoreInput struct {
	UserID         string
	CharityName    string
	CharityMission string
	Category       string
	Article        models.Article
	UrgencyScore   float64
	Reason         string
	RelevanceScore float64
}

// Store appends a recommendation for the user and persists immediately.
func (s *RecommendationStore) Store(in StoreInput) error {
	mission := in.CharityMission
	if mission == "" {
		mission = "Charity mission statement"
	}
	category := in.Category
	if category == "" {
		category = "general"
	}

	rec := models.Recommendation{
		Charity: models.CharitySnapshot{
			Name:     in.CharityName,
			Mission:  mission,
			URL:      fmt.Sprintf("https://%s.org", strings.ReplaceAll(strings.ToLower(in.CharityName), " ", "")),
			Category: category,
		},
		NewsArticle: models.ArticleSnapshot{
			Title:        in.Article.Title,
			Description:  in.Article.Description,
			URL:          in.Article.Link,
			Category:     category,
			UrgencyScore: in.UrgencyScore,
			PublishedAt:  in.Article.PublishedAt,
		},
		Reason:         in.Reason,
		RelevanceScore: in.RelevanceScore,
		GeneratedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[in.UserID] = append(s.byID[in.UserID], rec)
	return s.save()
}

// Get returns the user's recommendations, empty when none exist.
func (s *RecommendationStore) Get(userID string) []models.Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.byID[userID]
	out := make([]models.Recommendation, len(recs))
	copy(out, recs)
	return out
}

// Flush rewrites the file; used at shutdown.
func (s *RecommendationStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *RecommendationStore) save() error {
	data, err := json.MarshalIndent(s.byID, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write recommendations: %w", err)
	}
	return nil
}
