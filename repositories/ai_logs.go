package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"charity-matcher/models"
)

type AILogRepository struct {
	col *mongo.Collection
}

// NewAILogRepository returns nil when no database is configured so callers
// can treat telemetry as optional.
func NewAILogRepository(db *mongo.Database) *AILogRepository {
	if db == nil {
		return nil
	}
	return &AILogRepository{col: db.Collection("ai_logs")}
}

func (r *AILogRepository) Insert(ctx context.Context, l models.AILog) error {
	_, err := r.col.InsertOne(ctx, l)
	return err
}

// Recent returns the most recent logs, newest first.
func (r *AILogRepository) Recent(ctx context.Context, limit int64) ([]models.AILog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "requested_at", Value: -1}}).
		SetLimit(limit)
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AILog
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
