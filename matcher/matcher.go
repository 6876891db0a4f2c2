package matcher

import (
	"context"
	"time"

	"charity-matcher/eventbus"
	"charity-matcher/events"
	"charity-matcher/feeder"
	"charity-matcher/llm"
	"charity-matcher/logger"
	"charity-matcher/models"
	"charity-matcher/similarity"
	"charity-matcher/store"
)

const topKCharities = 5

// CharityStore is the relational collaborator: charity, subscription and
// address records. Read-only from the pipeline's perspective.
type CharityStore interface {
	CharitiesForCategory(ctx context.Context, slug string) ([]models.Charity, error)
	UsersForCategory(ctx context.Context, category string) ([]models.Subscription, error)
	AllUsers(ctx context.Context) ([]models.User, error)
	CharityNamesByAddress(ctx context.Context, addresses []string) ([]string, error)
	CharityAddressesByName(ctx context.Context, names []string) ([]models.CharityAddress, error)
}

// PortfolioLedger is the blockchain collaborator. It is the sole source of
// truth for allocations; the pipeline never persists them itself.
type PortfolioLedger interface {
	GetUserPortfolio(ctx context.Context, userID string) (*models.Portfolio, error)
	SetCharities(ctx context.Context, userID string, addresses []string, percentages []float64) error
	DistributeFunds(ctx context.Context, userID string) error
}

// Options wires all collaborators and tunables of the pipeline.
type Options struct {
	Agent   llm.Client // tool-calling dialogues (relevance, portfolio)
	Urgency llm.Client // single-shot urgency scoring

	Index     similarity.Index
	Charities CharityStore
	Wallet    PortfolioLedger

	Processed       *store.Ledger
	Recommendations *store.RecommendationStore
	Bus             eventbus.Publisher

	Feeds []string

	MaxRounds            int
	CategoriesCollection string
	CharitiesCollection  string
	CategorySlugs        map[string]string

	PollInterval time.Duration
	RetryBackoff time.Duration
	Topic        string
}

// Matcher holds the full pipeline state for one process. Construct it once
// with New, run it with Run, and tear it down with Close.
type Matcher struct {
	agent   llm.Client
	urgency llm.Client

	index     similarity.Index
	charities CharityStore
	wallet    PortfolioLedger

	processed *store.Ledger
	recs      *store.RecommendationStore
	bus       eventbus.Publisher

	ingester *feeder.Ingester

	maxRounds            int
	categoriesCollection string
	charitiesCollection  string
	categorySlugs        map[string]string
	categoryIDs          map[string]string

	pollInterval time.Duration
	retryBackoff time.Duration
	topic        string
}

// New builds the pipeline and loads the category index. An unreachable
// similarity service at startup is fatal; every later failure degrades per
// call site instead.
func New(ctx context.Context, opts Options) (*Matcher, error) {
	m := &Matcher{
		agent:                opts.Agent,
		urgency:              opts.Urgency,
		index:                opts.Index,
		charities:            opts.Charities,
		wallet:               opts.Wallet,
		processed:            opts.Processed,
		recs:                 opts.Recommendations,
		bus:                  opts.Bus,
		maxRounds:            opts.MaxRounds,
		categoriesCollection: opts.CategoriesCollection,
		charitiesCollection:  opts.CharitiesCollection,
		categorySlugs:        opts.CategorySlugs,
		pollInterval:         opts.PollInterval,
		retryBackoff:         opts.RetryBackoff,
		topic:                opts.Topic,
	}
	if m.urgency == nil {
		m.urgency = m.agent
	}
	if m.bus == nil {
		m.bus = eventbus.Noop{}
	}
	if m.maxRounds <= 0 {
		m.maxRounds = 8
	}
	if m.categoriesCollection == "" {
		m.categoriesCollection = "categories"
	}
	if m.charitiesCollection == "" {
		m.charitiesCollection = "charities"
	}
	if m.pollInterval <= 0 {
		m.pollInterval = 5 * time.Minute
	}
	if m.retryBackoff <= 0 {
		m.retryBackoff = time.Minute
	}

	if err := m.loadCategoryIDs(ctx); err != nil {
		return nil, err
	}

	m.ingester = feeder.New(opts.Feeds, opts.Processed)
	return m, nil
}

// Close flushes persisted state and releases the event bus.
func (m *Matcher) Close() {
	if m.recs != nil {
		if err := m.recs.Flush(); err != nil {
			logger.Log.Errorf("failed to flush recommendations: %v", err)
		}
	}
	m.bus.Close()
}

// Recommendations exposes the store for the API layer.
func (m *Matcher) Recommendations() *store.RecommendationStore {
	return m.recs
}

// Run polls the feeds until the context is cancelled. A failed pass is
// logged and retried after the backoff; a successful pass sleeps the normal
// interval.
func (m *Matcher) Run(ctx context.Context) {
	for {
		err := m.runPass(ctx)
		if ctx.Err() != nil {
			return
		}

		wait := m.pollInterval
		if err != nil {
			logger.Log.Errorf("pipeline pass failed: %v", err)
			wait = m.retryBackoff
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (m *Matcher) runPass(ctx context.Context) error {
	logger.Log.Info("checking for new articles")
	articles := m.ingester.Fetch(ctx)
	logger.Log.Infof("fetched %d new articles", len(articles))

	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.processArticle(ctx, article)
	}
	return ctx.Err()
}

// processArticle runs one article through the full pipeline and marks it
// processed at the end, whatever the outcome of the classification stages.
func (m *Matcher) processArticle(ctx context.Context, article models.Article) {
	logger.InfoWithFields("processing article", logger.Fields{
		"title": article.Title,
		"link":  article.Link,
	})

	relevant := m.IsRelevant(ctx, article.Title, article.Description)

	var topCategory string
	var urgencyScore float64

	if relevant {
		matches, subscribers := m.MatchCategories(ctx, article)
		if len(matches) > 0 {
			topCategory = matches[0].Category
		}

		candidates := m.FindSimilarCharities(ctx, article, topCategory, topKCharities)

		if len(candidates) > 0 && len(subscribers) > 0 {
			urgencyScore = m.UpdatePortfolios(ctx, subscribers, topCategory, candidates, article)
			m.storeRecommendations(ctx, subscribers, candidates, matches[0], article, urgencyScore)
		} else {
			logger.InfoWithFields("no charities or subscribers matched", logger.Fields{
				"link":     article.Link,
				"category": topCategory,
			})
		}
	} else {
		logger.InfoWithFields("article not relevant, skipping", logger.Fields{"link": article.Link})
	}

	if err := m.processed.MarkProcessed(article.Link); err != nil {
		logger.Log.Errorf("failed to mark article processed: %v", err)
	}

	evt := events.ArticleProcessedEvent{
		BaseEvent:    events.NewBaseEvent(events.ArticleProcessed, "matcher"),
		ArticleLink:  article.Link,
		ArticleTitle: article.Title,
		Relevant:     relevant,
		TopCategory:  topCategory,
		UrgencyScore: urgencyScore,
	}
	if err := m.bus.Publish(ctx, m.topic, evt.ID, evt); err != nil {
		logger.Log.Errorf("failed to publish article event: %v", err)
	}
}

// storeRecommendations appends one entry per (subscriber, candidate) pair in
// iteration order.
func (m *Matcher) storeRecommendations(ctx context.Context, subscribers []models.Subscription, candidates []models.CharityCandidate, top models.CategoryMatch, article models.Article, urgencyScore float64) {
	reason := "Based on recent news: " + article.Title
	for _, sub := range subscribers {
		for _, cand := range candidates {
			err := m.recs.Store(store.StoreInput{
				UserID:         sub.UserID,
				CharityName:    cand.Name,
				CharityMission: cand.Mission,
				Category:       top.Category,
				Article:        article,
				UrgencyScore:   urgencyScore,
				Reason:         reason,
				RelevanceScore: top.Similarity,
			})
			if err != nil {
				logger.Log.Errorf("failed to store recommendation for user %s: %v", sub.UserID, err)
				continue
			}

			evt := events.RecommendationCreatedEvent{
				BaseEvent:      events.NewBaseEvent(events.RecommendationCreated, "matcher"),
				UserID:         sub.UserID,
				CharityName:    cand.Name,
				Category:       top.Category,
				ArticleLink:    article.Link,
				RelevanceScore: top.Similarity,
			}
			if err := m.bus.Publish(ctx, m.topic, evt.ID, evt); err != nil {
				logger.Log.Errorf("failed to publish recommendation event: %v", err)
			}
		}
	}
}
