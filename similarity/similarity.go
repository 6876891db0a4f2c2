package similarity

import "context"

// QueryResult carries parallel id/document/distance arrays for one query.
// Distances is empty for plain Get calls.
type QueryResult struct {
	IDs       []string
	Documents []string
	Distances []float64
}

// Index is the vector-similarity service boundary. Two logical collections
// exist in practice: "categories" (documents are plain category names) and
// "charities" (documents are JSON payloads with name and mission fields).
// The index itself is an opaque external service; the pipeline only relies
// on ranked results with distances.
type Index interface {
	// Get returns every document in a collection.
	Get(ctx context.Context, collection string) (*QueryResult, error)

	// Query runs a free-text nearest-neighbour search, optionally filtered
	// by metadata equality, returning up to n results ranked by distance.
	Query(ctx context.Context, collection, text string, where map[string]string, n int) (*QueryResult, error)
}
