package db

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	db         *mongo.Database
)

// Init initializes the global Mongo client and database. Mongo only holds
// LLM telemetry, so a missing MONGO_URI is tolerated: Database() returns nil
// and callers skip log persistence.
func Init(ctx context.Context) error {
	var initErr error
	clientOnce.Do(func() {
		uri := os.Getenv("MONGO_URI")
		if uri == "" {
			log.Println("MONGO_URI not set, AI request logging disabled")
			return
		}
		dbName := os.Getenv("MONGO_DB_NAME")
		if dbName == "" {
			dbName = "charitymatcher"
		}

		cl, err := mongo.NewClient(options.Client().ApplyURI(uri))
		if err != nil {
			initErr = err
			return
		}
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := cl.Connect(ctx); err != nil {
			initErr = err
			return
		}
		// Ping to verify connection
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			initErr = err
			return
		}
		client = cl
		db = client.Database(dbName)

		if err := ensureIndexes(ctx, db); err != nil {
			initErr = err
			return
		}
		log.Println("MongoDB connected and indexes ensured")
	})
	return initErr
}

func Client() *mongo.Client     { return client }
func Database() *mongo.Database { return db }

// Close disconnects the global client if one was created.
func Close(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	// ai_logs: requested_at desc for recent-first monitoring queries
	if _, err := d.Collection("ai_logs").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "requested_at", Value: -1}},
		Options: options.Index().SetName("idx_requested_at_desc"),
	}); err != nil {
		return err
	}
	// ai_logs: model_name for per-model usage breakdowns
	if _, err := d.Collection("ai_logs").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "model_name", Value: 1}},
		Options: options.Index().SetName("idx_model_name"),
	}); err != nil {
		return err
	}
	return nil
}
