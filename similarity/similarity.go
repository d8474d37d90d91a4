// Package similarity scores memory records against a query by embedding
// cosine similarity. Embeddings are cached per user keyed by content hash,
// and uncached contents are embedded in a single batch.
package similarity

import (
	"context"
	"fmt"
	"sort"

	"github.com/mnemoai/mnemo-go-sdk/cache"
	"github.com/mnemoai/mnemo-go-sdk/core"
)

// Config tunes retrieval thresholds.
type Config struct {
	// BaseThreshold is the minimum relevance for retrieval.
	BaseThreshold float64

	// RelaxedMultiplier widens the net for consolidation candidates;
	// it must be below 1.
	RelaxedMultiplier float64
}

// DefaultConfig suits general-purpose sentence embedding models.
var DefaultConfig = Config{
	BaseThreshold:     0.25,
	RelaxedMultiplier: 0.8,
}

// Engine computes cached similarity scores.
type Engine struct {
	embedder core.Embedder
	cache    *cache.Manager
	cfg      Config
}

// New creates a similarity engine over the given embedder and cache.
func New(embedder core.Embedder, c *cache.Manager, cfg Config) *Engine {
	if cfg.BaseThreshold == 0 {
		cfg.BaseThreshold = DefaultConfig.BaseThreshold
	}
	if cfg.RelaxedMultiplier == 0 {
		cfg.RelaxedMultiplier = DefaultConfig.RelaxedMultiplier
	}
	return &Engine{embedder: embedder, cache: c, cfg: cfg}
}

// RetrievalThreshold is the relevance floor for context injection.
func (e *Engine) RetrievalThreshold() float64 {
	return e.cfg.BaseThreshold
}

// ConsolidationThreshold is the relaxed floor used when collecting
// consolidation candidates.
func (e *Engine) ConsolidationThreshold() float64 {
	return e.cfg.BaseThreshold * e.cfg.RelaxedMultiplier
}

// Score embeds the query and every record content, then returns one result
// per record ordered by descending relevance. Ties are broken by record ID
// so the ordering is deterministic. Record embeddings come from the user's
// cache when present; everything missing is embedded in one batch.
func (e *Engine) Score(ctx context.Context, userID, query string, records []core.Record) ([]core.SimilarityResult, error) {
	if len(records) == 0 {
		return nil, nil
	}

	texts := make([]string, 0, len(records)+1)
	texts = append(texts, query)
	for _, r := range records {
		texts = append(texts, r.Content)
	}

	vecs, err := e.EmbedCached(ctx, userID, texts)
	if err != nil {
		return nil, err
	}
	queryVec := vecs[0]

	results := make([]core.SimilarityResult, len(records))
	for i, r := range records {
		results[i] = core.SimilarityResult{
			ID:        r.ID,
			Content:   r.Content,
			Relevance: core.Dot(queryVec, vecs[i+1]),
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// Filter returns the results at or above the threshold, preserving order.
func Filter(results []core.SimilarityResult, threshold float64) []core.SimilarityResult {
	var out []core.SimilarityResult
	for _, r := range results {
		if r.Relevance >= threshold {
			out = append(out, r)
		}
	}
	return out
}

// EmbedCached returns a normalized embedding per text, serving cache hits
// from the user's embedding cache and batching the misses into one embedder
// call. Fresh embeddings are written back to the cache.
func (e *Engine) EmbedCached(ctx context.Context, userID string, texts []string) ([]core.Vector, error) {
	out := make([]core.Vector, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		key := core.HashText(text)
		if v, ok := e.cache.Get(userID, cache.KindEmbedding, key); ok {
			out[i] = v.(core.Vector)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		vecs, err := e.embedder.Embed(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("embed batch: %w", err)
		}
		if len(vecs) != len(missing) {
			return nil, core.NewError(core.CodeValidationFailed, "embedder returned wrong batch size")
		}
		for j, v := range vecs {
			normalized := core.Normalize(v)
			out[missingIdx[j]] = normalized
			e.cache.Put(userID, cache.KindEmbedding, core.HashText(missing[j]), normalized)
		}
	}

	return out, nil
}
