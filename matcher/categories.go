package matcher

import (
	"context"
	"fmt"

	"charity-matcher/logger"
	"charity-matcher/models"
)

// loadCategoryIDs pulls every category document from the similarity service
// so charity queries can filter by category id later. Called once at startup.
func (m *Matcher) loadCategoryIDs(ctx context.Context) error {
	res, err := m.index.Get(ctx, m.categoriesCollection)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	ids := make(map[string]string, len(res.Documents))
	for i, doc := range res.Documents {
		if i < len(res.IDs) {
			ids[doc] = res.IDs[i]
		}
	}
	m.categoryIDs = ids
	logger.Log.Infof("loaded %d categories from similarity index", len(ids))
	return nil
}

// MatchCategories ranks the top 3 categories for an article and resolves the
// subscribers of the top one. Distances are min-max normalized into [0,1]
// similarities; the divisor is pinned to 1 when all distances are equal.
// Any failure yields empty results, which the caller treats as nothing to do.
func (m *Matcher) MatchCategories(ctx context.Context, article models.Article) ([]models.CategoryMatch, []models.Subscription) {
	res, err := m.index.Query(ctx, m.categoriesCollection, article.Text(), nil, 3)
	if err != nil {
		logger.Log.Errorf("category query failed: %v", err)
		return nil, nil
	}
	if res == nil || len(res.Documents) == 0 || len(res.Distances) != len(res.Documents) {
		logger.Log.Warnf("no matching categories for article %q", article.Title)
		return nil, nil
	}

	minDist, maxDist := res.Distances[0], res.Distances[0]
	for _, d := range res.Distances[1:] {
		if d < minDist {
			minDist = d
		}
		if d > maxDist {
			maxDist = d
		}
	}
	rangeDist := maxDist - minDist
	if rangeDist == 0 {
		rangeDist = 1
	}

	matches := make([]models.CategoryMatch, 0, len(res.Documents))
	for i, doc := range res.Documents {
		matches = append(matches, models.CategoryMatch{
			Category:   doc,
			Similarity: 1 - (res.Distances[i]-minDist)/rangeDist,
		})
	}

	top := matches[0].Category
	subscribers, err := m.charities.UsersForCategory(ctx, top)
	if err != nil {
		logger.Log.Errorf("subscriber lookup failed for category %s: %v", top, err)
		return nil, nil
	}

	if len(subscribers) == 0 {
		// Under-subscribed categories still produce recommendations: fall
		// back to treating every known user as a subscriber.
		logger.Log.Infof("no subscribers for category %s, falling back to all users", top)
		users, err := m.charities.AllUsers(ctx)
		if err != nil {
			logger.Log.Errorf("all-users fallback failed: %v", err)
			return nil, nil
		}
		for _, u := range users {
			subscribers = append(subscribers, models.Subscription{UserID: u.UserID, Category: top})
		}
	}

	return matches, subscribers
}
