package matcher

import (
	"context"
	"encoding/json"
	"strings"

	"charity-matcher/logger"
	"charity-matcher/models"
)

// fallbackSimilarity is assigned to relational-fallback candidates, which
// carry no vector distance.
const fallbackSimilarity = 0.8

// charityDocument is the payload stored per charity in the similarity index.
type charityDocument struct {
	Name             string `json:"name"`
	MissionStatement string `json:"mission_statement"`
}

// FindSimilarCharities searches the charity index for candidates matching
// the article, scoped to the top category. Zero index hits fall back to the
// relational store with a fixed similarity score. Errors degrade to whatever
// was accumulated so far.
func (m *Matcher) FindSimilarCharities(ctx context.Context, article models.Article, topCategory string, topK int) []models.CharityCandidate {
	if topCategory == "" {
		return nil
	}

	categoryID, ok := m.categoryIDs[topCategory]
	if !ok {
		logger.Log.Warnf("no category id for %q", topCategory)
		return nil
	}

	res, err := m.index.Query(ctx, m.charitiesCollection, article.Text(),
		map[string]string{"category_id": categoryID}, topK)
	if err != nil {
		logger.Log.Errorf("charity query failed for category %s: %v", topCategory, err)
		return nil
	}

	var candidates []models.CharityCandidate
	if res != nil && len(res.Documents) > 0 {
		for i, raw := range res.Documents {
			var doc charityDocument
			if err := json.Unmarshal([]byte(raw), &doc); err != nil {
				logger.Log.Warnf("skipping malformed charity document: %v", err)
				continue
			}
			var distance float64
			if i < len(res.Distances) {
				distance = res.Distances[i]
			}
			candidates = append(candidates, models.CharityCandidate{
				Name:            doc.Name,
				Mission:         doc.MissionStatement,
				SimilarityScore: 1 - distance/2,
			})
		}
		return candidates
	}

	// Relational fallback for categories the index has no charities for.
	slug := m.categorySlug(topCategory)
	logger.Log.Infof("no index hits for category %s, falling back to relational slug %s", topCategory, slug)

	charities, err := m.charities.CharitiesForCategory(ctx, slug)
	if err != nil {
		logger.Log.Errorf("relational charity fallback failed for %s: %v", slug, err)
		return candidates
	}
	for _, c := range charities {
		candidates = append(candidates, models.CharityCandidate{
			Name:            c.Name,
			Mission:         c.Mission,
			SimilarityScore: fallbackSimilarity,
		})
	}
	return candidates
}

// categorySlug maps a similarity-index category name to its relational slug.
// Unknown names lowercase as a heuristic default.
func (m *Matcher) categorySlug(name string) string {
	if slug, ok := m.categorySlugs[name]; ok {
		return slug
	}
	return strings.ToLower(name)
}
