package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"charity-matcher/api/handlers"
	"charity-matcher/db"
	"charity-matcher/store"
)

// New builds the API engine. Collaborators are passed in explicitly; the
// router holds no state of its own.
func New(recs *store.RecommendationStore, dir handlers.Directory) *gin.Engine {
	r := gin.Default()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		if database := db.Database(); database != nil {
			if err := database.RunCommand(context.Background(), bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "mongo": "down", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// v1 routes
	api := r.Group("/api/v1")
	{
		api.GET("/recommendations/:userId", handlers.GetRecommendationsHandler(recs))
		api.GET("/charities/:category", handlers.ListCharitiesHandler(dir))
		api.GET("/subscribers/:category", handlers.ListSubscribersHandler(dir))
	}

	return r
}
