// Package core defines the data model and collaborator interfaces shared by
// the memory engine's components. The engine never owns durable state: a
// Record belongs to the MemoryStore, a SimilarityResult lives for one
// pipeline pass, and everything else is cache.
package core

import "time"

// Record is a persisted memory fact about a user. Content is a short,
// self-contained first-person statement ("I moved to Barcelona in August").
type Record struct {
	ID        string
	UserID    string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SimilarityResult pairs a memory with its relevance to a query.
// Relevance is the cosine similarity of the (normalized) embeddings,
// so it falls in [-1, 1]. Produced fresh each pipeline run, never persisted.
type SimilarityResult struct {
	ID        string
	Content   string
	Relevance float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
