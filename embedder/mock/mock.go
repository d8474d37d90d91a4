// Package mock provides a deterministic embedder for tests and local
// development. Vectors are derived from a text hash, so equal texts always
// embed identically and distinct texts are effectively uncorrelated.
package mock

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/mnemoai/mnemo-go-sdk/core"
)

// Embedder generates hash-based unit vectors.
type Embedder struct {
	dimensions int
}

// New creates a mock embedder. Dimensions match all-MiniLM-L6-v2 so the
// mock can stand in for the ONNX embedder.
func New() *Embedder {
	return &Embedder{dimensions: 384}
}

// Embed returns one deterministic vector per text, in order.
func (e *Embedder) Embed(_ context.Context, texts []string) ([]core.Vector, error) {
	out := make([]core.Vector, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func (e *Embedder) vector(text string) core.Vector {
	h := fnv.New64a()
	h.Write([]byte(text))

	// LCG seeded with the text hash.
	seed := h.Sum64()
	v := make(core.Vector, e.dimensions)
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return core.Normalize(v)
}
