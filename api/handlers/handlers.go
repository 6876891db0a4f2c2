package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"charity-matcher/models"
	"charity-matcher/store"
)

// Directory is the slice of the relational store the API reads from.
type Directory interface {
	CharitiesForCategory(ctx context.Context, slug string) ([]models.Charity, error)
	UsersForCategory(ctx context.Context, category string) ([]models.Subscription, error)
}

// GetRecommendationsHandler returns the stored recommendation history for a
// user. Unknown users get an empty list, not a 404; the mobile client polls
// this before any recommendation exists.
func GetRecommendationsHandler(recs *store.RecommendationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		items := recs.Get(userID)
		if items == nil {
			items = []models.Recommendation{}
		}
		c.JSON(http.StatusOK, items)
	}
}

// ListCharitiesHandler returns the charities tagged with a relational
// category slug.
func ListCharitiesHandler(dir Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		category := c.Param("category")
		charities, err := dir.CharitiesForCategory(c.Request.Context(), category)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if charities == nil {
			charities = []models.Charity{}
		}
		c.JSON(http.StatusOK, charities)
	}
}

// ListSubscribersHandler returns the users subscribed to a category.
func ListSubscribersHandler(dir Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		category := c.Param("category")
		subscribers, err := dir.UsersForCategory(c.Request.Context(), category)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if subscribers == nil {
			subscribers = []models.Subscription{}
		}
		c.JSON(http.StatusOK, subscribers)
	}
}
