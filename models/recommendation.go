package models

import "time"

// CharitySnapshot is the charity part of a stored recommendation. Mission and
// URL may be placeholders when the source data did not carry them.
type CharitySnapshot struct {
	Name     string `json:"name"`
	Mission  string `json:"mission"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// ArticleSnapshot freezes the triggering article inside a recommendation.
type ArticleSnapshot struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`
	Category     string    `json:"category"`
	UrgencyScore float64   `json:"urgencyScore"`
	PublishedAt  time.Time `json:"publishedAt"`
}

// Recommendation is one append-only history entry for a user. Never mutated
// after creation.
type Recommendation struct {
	Charity        CharitySnapshot `json:"charity"`
	NewsArticle    ArticleSnapshot `json:"news_article"`
	Reason         string          `json:"reason"`
	RelevanceScore float64         `json:"relevance_score"`
	GeneratedAt    time.Time       `json:"generated_at"`
}
