package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"charity-matcher/config"
	"charity-matcher/db"
	"charity-matcher/eventbus"
	"charity-matcher/llm"
	"charity-matcher/logger"
	"charity-matcher/matcher"
	"charity-matcher/pgstore"
	"charity-matcher/repositories"
	"charity-matcher/similarity"
	"charity-matcher/store"
	"charity-matcher/wallet"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Init(ctx); err != nil {
		log.Fatal("failed to initialize MongoDB: ", err)
	}
	defer db.Close(context.Background())

	gemini, err := llm.NewGemini(ctx, os.Getenv("GEMINI_API_KEY"), cfg.GeminiModel)
	if err != nil {
		log.Fatal("failed to initialize Gemini client: ", err)
	}
	if repo := repositories.NewAILogRepository(db.Database()); repo != nil {
		gemini.SetUsageSink(repo)
	}
	agent := gemini.WithPurpose("agent")
	urgency := gemini.WithModel(cfg.UrgencyModel).WithPurpose("urgency").WithTemperature(0.3)

	index := similarity.NewChroma(similarity.ChromaConfig{
		BaseURL:  cfg.Chroma.BaseURL,
		Tenant:   cfg.Chroma.Tenant,
		Database: cfg.Chroma.Database,
		APIKey:   os.Getenv("CHROMA_API_KEY"),
	})

	dsn := cfg.Postgres.DSN
	if env := os.Getenv("POSTGRES_DSN"); env != "" {
		dsn = env
	}
	charities, err := pgstore.New(ctx, dsn)
	if err != nil {
		log.Fatal("failed to initialize Postgres: ", err)
	}
	defer charities.Close()

	var bus eventbus.Publisher = eventbus.Noop{}
	if cfg.Kafka.Enabled {
		kb, err := eventbus.NewKafkaPublisher(cfg.Kafka.Brokers)
		if err != nil {
			log.Fatal("failed to initialize Kafka producer: ", err)
		}
		bus = kb
	}

	base := config.GetBasePath()
	m, err := matcher.New(ctx, matcher.Options{
		Agent:                agent,
		Urgency:              urgency,
		Index:                index,
		Charities:            charities,
		Wallet:               wallet.New(cfg.Wallet.BaseURL),
		Processed:            store.OpenLedger(filepath.Join(base, cfg.Storage.ProcessedArticlesFile)),
		Recommendations:      store.OpenRecommendationStore(filepath.Join(base, cfg.Storage.RecommendationsFile)),
		Bus:                  bus,
		Feeds:                cfg.Feeds,
		MaxRounds:            cfg.Agent.MaxRounds,
		CategoriesCollection: cfg.Chroma.CategoriesCollection,
		CharitiesCollection:  cfg.Chroma.CharitiesCollection,
		CategorySlugs:        cfg.CategorySlugs,
		PollInterval:         time.Duration(cfg.Poll.IntervalSeconds) * time.Second,
		RetryBackoff:         time.Duration(cfg.Poll.RetryBackoffSeconds) * time.Second,
		Topic:                cfg.Kafka.Topic,
	})
	if err != nil {
		log.Fatal("failed to initialize matcher: ", err)
	}
	defer m.Close()

	logger.Log.Info("charity matcher started")
	m.Run(ctx)
	logger.Log.Info("charity matcher stopped")
}
