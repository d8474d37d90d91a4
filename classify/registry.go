package classify

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto"

	"github.com/mnemoai/mnemo-go-sdk/core"
)

// The exemplar table depends only on the embedding model, not on the user,
// so construction is shared process-wide: every engine built on the same
// embedder reuses one table instead of re-embedding all exemplars.

var (
	registryMu sync.Mutex
	registry   *ristretto.Cache
)

func init() {
	// Sized for a handful of distinct embedders per process.
	registry, _ = ristretto.NewCache(&ristretto.Config{
		NumCounters: 64,
		MaxCost:     16,
		BufferItems: 64,
	})
}

// embedderKey identifies an embedding model well enough for table reuse.
// Embedders may expose a Signature method to disambiguate beyond their
// type and dimension count.
func embedderKey(embedder core.Embedder) string {
	if s, ok := embedder.(interface{ Signature() string }); ok {
		return s.Signature()
	}
	return fmt.Sprintf("%T/%d", embedder, embedder.Dimensions())
}

// sharedReferences returns the exemplar table for the embedder, building
// and caching it on first use. The mutex makes concurrent first builds for
// the same embedder collapse into one; ristretto admission is best-effort,
// so a rejected entry just means a rebuild on some later New.
func sharedReferences(ctx context.Context, embedder core.Embedder) (*referenceTable, error) {
	key := embedderKey(embedder)

	if v, ok := registry.Get(key); ok {
		return v.(*referenceTable), nil
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if v, ok := registry.Get(key); ok {
		return v.(*referenceTable), nil
	}

	refs, err := buildReferences(ctx, embedder)
	if err != nil {
		return nil, err
	}
	registry.Set(key, refs, 1)
	registry.Wait()
	return refs, nil
}
