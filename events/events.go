package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	ArticleProcessed      EventType = "article.processed"
	RecommendationCreated EventType = "recommendation.created"
	PortfolioUpdated      EventType = "portfolio.updated"
	FundsDistributed      EventType = "funds.distributed"
)

// BaseEvent carries the envelope shared by every pipeline event.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

func (e BaseEvent) GetID() string {
	return e.ID
}

func (e BaseEvent) GetType() EventType {
	return e.Type
}

// NewBaseEvent stamps a fresh envelope for the given type and source.
func NewBaseEvent(eventType EventType, source string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Version:   "1.0",
	}
}

// ArticleProcessedEvent is published once an article has finished the full
// pipeline, whether or not it produced recommendations.
type ArticleProcessedEvent struct {
	BaseEvent
	ArticleLink  string  `json:"article_link"`
	ArticleTitle string  `json:"article_title"`
	Relevant     bool    `json:"relevant"`
	TopCategory  string  `json:"top_category,omitempty"`
	UrgencyScore float64 `json:"urgency_score,omitempty"`
}

// RecommendationCreatedEvent is published for every stored recommendation.
type RecommendationCreatedEvent struct {
	BaseEvent
	UserID         string  `json:"user_id"`
	CharityName    string  `json:"charity_name"`
	Category       string  `json:"category"`
	ArticleLink    string  `json:"article_link"`
	RelevanceScore float64 `json:"relevance_score"`
}

// PortfolioUpdatedEvent is published after a user's on-chain allocation has
// been replaced.
type PortfolioUpdatedEvent struct {
	BaseEvent
	UserID      string    `json:"user_id"`
	Charities   []string  `json:"charities"`
	Percentages []float64 `json:"percentages"`
}

// FundsDistributedEvent is published after a distribution has been triggered
// for a user.
type FundsDistributedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}
