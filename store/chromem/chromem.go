// Package chromem implements the memory store over chromem-go, a pure Go
// embedded vector database. Each user gets an isolated collection; record
// metadata lives alongside the vectors so the store is self-contained.
package chromem

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/mnemoai/mnemo-go-sdk/core"
)

// Store keeps memory records in per-user chromem collections and
// implements core.MemoryStore.
type Store struct {
	db    *chromem.DB
	embed chromem.EmbeddingFunc

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
	records     map[string]core.Record // id -> record
	vectors     map[string][]float32   // id -> embedding, kept for rollback
}

// New creates an in-memory store. The embedder produces the document
// vectors chromem indexes for Search.
func New(embedder core.Embedder) *Store {
	return &Store{
		db:          chromem.NewDB(),
		embed:       embeddingFunc(embedder),
		collections: make(map[string]*chromem.Collection),
		records:     make(map[string]core.Record),
		vectors:     make(map[string][]float32),
	}
}

// embeddingFunc adapts the batch embedder to chromem's per-document hook.
func embeddingFunc(embedder core.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := embedder.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vectors) != 1 {
			return nil, fmt.Errorf("embedder returned %d vectors for one text", len(vectors))
		}
		return vectors[0], nil
	}
}

// ListByUser returns all records of a user, oldest first.
func (s *Store) ListByUser(_ context.Context, userID string) ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Record
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Create stores a new record and returns its id.
func (s *Store) Create(ctx context.Context, userID, content string) (string, error) {
	if userID == "" {
		return "", core.NewError(core.CodeInvalidInput, "empty user id")
	}
	embedding, err := s.embed(ctx, content)
	if err != nil {
		return "", core.WrapError(core.CodeStoreFailed, "embed content", err)
	}
	record := core.Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.add(ctx, record, embedding); err != nil {
		return "", err
	}
	log.Printf("[CHROMEM] created memory %s for user %s", record.ID, userID)
	return record.ID, nil
}

// Update replaces the content of an existing record. The creation time is
// kept so recency stays meaningful across rewrites. The new content is
// embedded before any stored state changes, and a failed re-add restores
// the previous document, so the record survives any failure mode.
func (s *Store) Update(ctx context.Context, id, userID, content string) error {
	s.mu.RLock()
	old, ok := s.records[id]
	oldVector := s.vectors[id]
	s.mu.RUnlock()
	if !ok || old.UserID != userID {
		return core.NewError(core.CodeInvalidInput, fmt.Sprintf("memory %s not found for user %s", id, userID))
	}

	embedding, err := s.embed(ctx, content)
	if err != nil {
		return core.WrapError(core.CodeStoreFailed, "embed updated content", err)
	}

	if err := s.remove(ctx, old); err != nil {
		return err
	}
	updated := old
	updated.Content = content
	updated.UpdatedAt = time.Now().UTC()
	if err := s.add(ctx, updated, embedding); err != nil {
		if restoreErr := s.add(ctx, old, oldVector); restoreErr != nil {
			log.Printf("[CHROMEM] restore of memory %s after failed update also failed: %v", id, restoreErr)
		}
		return err
	}
	log.Printf("[CHROMEM] updated memory %s for user %s", id, userID)
	return nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id, userID string) error {
	s.mu.RLock()
	record, ok := s.records[id]
	s.mu.RUnlock()
	if !ok || record.UserID != userID {
		return core.NewError(core.CodeInvalidInput, fmt.Sprintf("memory %s not found for user %s", id, userID))
	}

	if err := s.remove(ctx, record); err != nil {
		return err
	}
	log.Printf("[CHROMEM] deleted memory %s for user %s", id, userID)
	return nil
}

// Search returns up to limit records of a user ranked by vector similarity
// to the query. The engine does its own scoring through the cache; Search
// is for hosts that want direct store-side retrieval.
func (s *Store) Search(ctx context.Context, userID, query string, limit int) ([]core.SimilarityResult, error) {
	col, err := s.collection(userID)
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection.
	if count := col.Count(); limit > count {
		limit = count
	}
	if limit <= 0 {
		return nil, nil
	}

	results, err := col.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, core.WrapError(core.CodeStoreFailed, "chromem query", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.SimilarityResult, 0, len(results))
	for _, res := range results {
		record, ok := s.records[res.ID]
		if !ok {
			continue
		}
		out = append(out, core.SimilarityResult{
			ID:        record.ID,
			Content:   record.Content,
			Relevance: float64(res.Similarity),
			CreatedAt: record.CreatedAt,
			UpdatedAt: record.UpdatedAt,
		})
	}
	return out, nil
}

// Len reports the number of stored records for a user.
func (s *Store) Len(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.records {
		if r.UserID == userID {
			n++
		}
	}
	return n
}

func (s *Store) add(ctx context.Context, record core.Record, embedding []float32) error {
	col, err := s.collection(record.UserID)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:        record.ID,
		Content:   record.Content,
		Embedding: embedding,
		Metadata: map[string]string{
			"user_id":    record.UserID,
			"created_at": record.CreatedAt.Format(time.RFC3339),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return core.WrapError(core.CodeStoreFailed, "add document", err)
	}

	s.mu.Lock()
	s.records[record.ID] = record
	s.vectors[record.ID] = embedding
	s.mu.Unlock()
	return nil
}

func (s *Store) remove(ctx context.Context, record core.Record) error {
	col, err := s.collection(record.UserID)
	if err != nil {
		return err
	}
	if err := col.Delete(ctx, nil, nil, record.ID); err != nil {
		return core.WrapError(core.CodeStoreFailed, "delete document", err)
	}

	s.mu.Lock()
	delete(s.records, record.ID)
	delete(s.vectors, record.ID)
	s.mu.Unlock()
	return nil
}

// collection returns the user's collection, creating it on first use.
func (s *Store) collection(userID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, ok := s.collections[userID]
	s.mu.RUnlock()
	if ok {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[userID]; ok {
		return col, nil
	}

	col, err := s.db.CreateCollection("user_"+userID, nil, s.embed)
	if err != nil {
		return nil, core.WrapError(core.CodeStoreFailed, "create collection", err)
	}
	s.collections[userID] = col
	return col, nil
}
