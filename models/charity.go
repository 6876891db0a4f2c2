package models

// CategoryMatch is one ranked category for an article. Similarity is a
// min-max normalized score in [0,1]; higher is closer.
type CategoryMatch struct {
	Category   string  `json:"category"`
	Similarity float64 `json:"similarity"`
}

// CharityCandidate is a transient per-article match from the charity index.
type CharityCandidate struct {
	Name            string  `json:"name"`
	Mission         string  `json:"mission"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Charity is a relational charity record.
type Charity struct {
	Name    string `json:"name"`
	Mission string `json:"mission"`
	URL     string `json:"url"`
}

// CharityAddress pairs a charity name with its on-chain donation address.
type CharityAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Subscription links a user to a category they follow.
type Subscription struct {
	UserID   string `json:"user_id"`
	Category string `json:"category"`
}

// User is the minimal relational user record the pipeline needs.
type User struct {
	UserID string `json:"user_id"`
}
