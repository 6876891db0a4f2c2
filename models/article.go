package models

import "time"

// Article is a single news entry pulled from an RSS source. The link is the
// identity used for deduplication; an article is immutable once fetched.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
}

// Text returns the free-text form used for similarity queries.
func (a Article) Text() string {
	if a.Description == "" {
		return a.Title
	}
	return a.Title + " " + a.Description
}
