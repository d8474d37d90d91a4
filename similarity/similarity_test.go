package similarity

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mnemoai/mnemo-go-sdk/cache"
	"github.com/mnemoai/mnemo-go-sdk/core"
)

// planeEmbedder maps texts onto fixed 3-dim vectors so relevance values are
// predictable. Unknown texts land on the z axis.
type planeEmbedder struct {
	vectors map[string]core.Vector
	batches int
	embeds  int
}

func (e *planeEmbedder) Embed(_ context.Context, texts []string) ([]core.Vector, error) {
	e.batches++
	e.embeds += len(texts)
	out := make([]core.Vector, len(texts))
	for i, text := range texts {
		if v, ok := e.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = core.Vector{0, 0, 1}
		}
	}
	return out, nil
}

func (e *planeEmbedder) Dimensions() int { return 3 }

func records(contents ...string) []core.Record {
	now := time.Now()
	out := make([]core.Record, len(contents))
	for i, c := range contents {
		out[i] = core.Record{
			ID:        "mem-" + string(rune('a'+i)),
			UserID:    "u1",
			Content:   c,
			CreatedAt: now,
		}
	}
	return out
}

func TestScoreOrdersByRelevance(t *testing.T) {
	embedder := &planeEmbedder{vectors: map[string]core.Vector{
		"query":  {1, 0, 0},
		"close":  {0.9, 0.1, 0},
		"medium": {0.5, 0.5, 0},
		"far":    {0, 1, 0},
	}}
	e := New(embedder, cache.New(cache.DefaultConfig), DefaultConfig)

	results, err := e.Score(context.Background(), "u1", "query", records("far", "close", "medium"))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	var contents []string
	for _, r := range results {
		contents = append(contents, r.Content)
	}
	want := []string{"close", "medium", "far"}
	if !reflect.DeepEqual(contents, want) {
		t.Fatalf("order = %v, want %v", contents, want)
	}

	if results[0].Relevance <= results[1].Relevance || results[1].Relevance <= results[2].Relevance {
		t.Fatalf("relevance not descending: %v", results)
	}
	for _, r := range results {
		if r.Relevance < -1.0001 || r.Relevance > 1.0001 {
			t.Fatalf("relevance %f out of range", r.Relevance)
		}
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	embedder := &planeEmbedder{vectors: map[string]core.Vector{
		"query": {1, 0, 0},
		"tied":  {0.5, 0.5, 0},
		"also":  {0.5, 0.5, 0},
	}}
	e := New(embedder, cache.New(cache.DefaultConfig), DefaultConfig)

	recs := records("tied", "also")
	first, err := e.Score(context.Background(), "u1", "query", recs)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Score(context.Background(), "u1", "query", recs)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("scores differ across runs:\n%v\n%v", first, second)
	}
}

func TestScoreEmptyRecords(t *testing.T) {
	e := New(&planeEmbedder{}, cache.New(cache.DefaultConfig), DefaultConfig)
	results, err := e.Score(context.Background(), "u1", "query", nil)
	if err != nil {
		t.Fatal(err)
	}
	if results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
}

func TestEmbedCachedBatchesMissesOnly(t *testing.T) {
	embedder := &planeEmbedder{vectors: map[string]core.Vector{}}
	c := cache.New(cache.DefaultConfig)
	e := New(embedder, c, DefaultConfig)

	if _, err := e.EmbedCached(context.Background(), "u1", []string{"a", "b", "c"}); err != nil {
		t.Fatal(err)
	}
	if embedder.batches != 1 || embedder.embeds != 3 {
		t.Fatalf("first call: %d batches / %d embeds, want 1/3", embedder.batches, embedder.embeds)
	}

	// Two hits, one miss: only the miss reaches the embedder.
	if _, err := e.EmbedCached(context.Background(), "u1", []string{"a", "d", "c"}); err != nil {
		t.Fatal(err)
	}
	if embedder.batches != 2 || embedder.embeds != 4 {
		t.Fatalf("second call: %d batches / %d embeds, want 2/4", embedder.batches, embedder.embeds)
	}

	// Full hit: no embedder call at all.
	if _, err := e.EmbedCached(context.Background(), "u1", []string{"a", "b", "c", "d"}); err != nil {
		t.Fatal(err)
	}
	if embedder.batches != 2 {
		t.Fatalf("full cache hit still called embedder (%d batches)", embedder.batches)
	}
}

func TestEmbedCacheIsPerUser(t *testing.T) {
	embedder := &planeEmbedder{}
	e := New(embedder, cache.New(cache.DefaultConfig), DefaultConfig)

	e.EmbedCached(context.Background(), "u1", []string{"shared text"})
	e.EmbedCached(context.Background(), "u2", []string{"shared text"})
	if embedder.batches != 2 {
		t.Fatalf("embeddings leaked across users (%d batches, want 2)", embedder.batches)
	}
}

type brokenEmbedder struct{}

func (brokenEmbedder) Embed(context.Context, []string) ([]core.Vector, error) {
	return nil, errors.New("offline")
}
func (brokenEmbedder) Dimensions() int { return 3 }

func TestScorePropagatesEmbedError(t *testing.T) {
	e := New(brokenEmbedder{}, cache.New(cache.DefaultConfig), DefaultConfig)
	if _, err := e.Score(context.Background(), "u1", "query", records("x")); err == nil {
		t.Fatal("expected error")
	}
}

func TestFilter(t *testing.T) {
	results := []core.SimilarityResult{
		{ID: "a", Relevance: 0.9},
		{ID: "b", Relevance: 0.25},
		{ID: "c", Relevance: 0.1},
	}
	kept := Filter(results, 0.25)
	if len(kept) != 2 || kept[0].ID != "a" || kept[1].ID != "b" {
		t.Fatalf("unexpected filter result: %v", kept)
	}
	if Filter(nil, 0.5) != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestThresholds(t *testing.T) {
	e := New(&planeEmbedder{}, cache.New(cache.DefaultConfig), Config{BaseThreshold: 0.25, RelaxedMultiplier: 0.8})
	if got := e.RetrievalThreshold(); got != 0.25 {
		t.Fatalf("retrieval threshold = %f", got)
	}
	if got := e.ConsolidationThreshold(); got <= 0.19 || got >= 0.21 {
		t.Fatalf("consolidation threshold = %f, want 0.2", got)
	}
	if e.ConsolidationThreshold() >= e.RetrievalThreshold() {
		t.Fatal("relaxed threshold must sit below retrieval threshold")
	}
}
