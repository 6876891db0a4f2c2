package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/cors"

	"charity-matcher/api/router"
	"charity-matcher/config"
	"charity-matcher/db"
	"charity-matcher/logger"
	"charity-matcher/pgstore"
	"charity-matcher/store"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	ctx := context.Background()
	if err := db.Init(ctx); err != nil {
		log.Fatal("failed to initialize MongoDB: ", err)
	}
	defer db.Close(context.Background())

	dsn := cfg.Postgres.DSN
	if env := os.Getenv("POSTGRES_DSN"); env != "" {
		dsn = env
	}
	dir, err := pgstore.New(ctx, dsn)
	if err != nil {
		log.Fatal("failed to initialize Postgres: ", err)
	}
	defer dir.Close()

	recs := store.OpenRecommendationStore(filepath.Join(config.GetBasePath(), cfg.Storage.RecommendationsFile))
	r := router.New(recs, dir)

	// The mobile client is served from a different origin.
	handler := cors.AllowAll().Handler(r)

	logger.Log.Infof("api listening on %s", cfg.API.Addr)
	if err := http.ListenAndServe(cfg.API.Addr, handler); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
