package engine

import (
	"time"

	"github.com/mnemoai/mnemo-go-sdk/cache"
	"github.com/mnemoai/mnemo-go-sdk/classify"
	"github.com/mnemoai/mnemo-go-sdk/consolidate"
	"github.com/mnemoai/mnemo-go-sdk/rerank"
	"github.com/mnemoai/mnemo-go-sdk/similarity"
)

// Config aggregates the per-component configurations.
type Config struct {
	Cache       cache.Config
	Classify    classify.Config
	Similarity  similarity.Config
	Rerank      rerank.Config
	Consolidate consolidate.Config

	// StoreTimeout bounds memory listings issued by the engine itself.
	StoreTimeout time.Duration
}

// DefaultConfig composes every component's defaults.
var DefaultConfig = Config{
	Cache:        cache.DefaultConfig,
	Classify:     classify.DefaultConfig,
	Similarity:   similarity.DefaultConfig,
	Rerank:       rerank.DefaultConfig,
	Consolidate:  consolidate.DefaultConfig,
	StoreTimeout: 10 * time.Second,
}
