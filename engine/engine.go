package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mnemoai/mnemo-go-sdk/cache"
	"github.com/mnemoai/mnemo-go-sdk/classify"
	"github.com/mnemoai/mnemo-go-sdk/consolidate"
	"github.com/mnemoai/mnemo-go-sdk/core"
	"github.com/mnemoai/mnemo-go-sdk/rerank"
	"github.com/mnemoai/mnemo-go-sdk/similarity"
)

// Engine is the per-process memory pipeline. OnIncoming retrieves and
// formats relevant memories for a user message; OnOutgoing schedules
// background consolidation of the same message. One Engine serves many
// users concurrently; all per-user state lives in the bounded cache.
type Engine struct {
	store     core.MemoryStore
	embedder  core.Embedder
	completer core.Completer
	sink      core.StatusSink

	cache        *cache.Manager
	classifier   *classify.Classifier
	sim          *similarity.Engine
	reranker     *rerank.Service
	consolidator *consolidate.Service

	cfg   Config
	tasks *taskSet
}

// Option configures the engine.
type Option func(*Engine)

// WithStatusSink sets the sink that receives progress events.
func WithStatusSink(sink core.StatusSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithClassifier overrides the default content classifier.
func WithClassifier(c *classify.Classifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// New creates an engine over a store, an embedder and a completer.
// A nil cfg uses DefaultConfig.
func New(store core.MemoryStore, embedder core.Embedder, completer core.Completer, cfg *Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	e := &Engine{
		store:     store,
		embedder:  embedder,
		completer: completer,
		cfg:       *cfg,
		tasks:     newTaskSet(),
	}
	if e.cfg.StoreTimeout <= 0 {
		e.cfg.StoreTimeout = DefaultConfig.StoreTimeout
	}
	for _, opt := range opts {
		opt(e)
	}

	e.cache = cache.New(e.cfg.Cache)
	e.sim = similarity.New(embedder, e.cache, e.cfg.Similarity)
	e.reranker = rerank.New(completer, e.cfg.Rerank)
	e.consolidator = consolidate.New(store, e.sim, completer, e.cache, e.sink, e.cfg.Consolidate)
	if e.classifier == nil {
		e.classifier = classify.New(context.Background(), embedder, e.cfg.Classify)
	}
	return e
}

// OnIncoming runs retrieval for a user message and returns the context
// block to splice into the conversation. It returns "" when the message is
// skipped or no relevant memories exist. Hosts typically pass the result to
// InjectSystemContext.
func (e *Engine) OnIncoming(ctx context.Context, userID, message string) (string, error) {
	if userID == "" {
		return "", core.NewError(core.CodeInvalidInput, "empty user id")
	}

	verdict := e.verdict(ctx, userID, message)
	if !verdict.Allow {
		e.emitSkip(verdict)
		return "", nil
	}

	records, err := e.userMemories(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("memory retrieval failed: %w", err)
	}
	if len(records) == 0 {
		log.Printf("[ENGINE] no memories stored for user %s", userID)
		return "", nil
	}

	sims, err := e.similarities(ctx, userID, message, records)
	if err != nil {
		return "", fmt.Errorf("memory retrieval failed: %w", err)
	}

	relevant := similarity.Filter(sims, e.sim.RetrievalThreshold())
	selected := e.reranker.Select(ctx, message, relevant)
	if len(selected) == 0 {
		core.EmitStatus(e.sink, "No relevant memories found", true)
		return "", nil
	}

	for i, m := range selected {
		core.EmitStatus(e.sink, fmt.Sprintf("%d/%d: %s", i+1, len(selected), core.Truncate(m.Content, 60)), false)
	}
	noun := "memories"
	if len(selected) == 1 {
		noun = "memory"
	}
	core.EmitStatus(e.sink, fmt.Sprintf("Injected %d %s to context", len(selected), noun), true)

	return ContextBlock(selected, time.Now()), nil
}

// OnOutgoing schedules background consolidation for a user message. The
// request context only guards scheduling; the pipeline itself runs under
// the engine's root context until Shutdown. Returns the task id, or "" when
// the message was skipped or the engine is shutting down.
func (e *Engine) OnOutgoing(ctx context.Context, userID, message string) (string, error) {
	if userID == "" {
		return "", core.NewError(core.CodeInvalidInput, "empty user id")
	}

	verdict := e.verdict(ctx, userID, message)
	if !verdict.Allow {
		return "", nil
	}

	// Reuse the similarity set computed during retrieval of this message.
	var cachedSims []core.SimilarityResult
	if v, ok := e.cache.Get(userID, cache.KindRetrieval, core.HashText(message)); ok {
		cachedSims = v.([]core.SimilarityResult)
	}

	id := e.tasks.spawn("consolidate", func(taskCtx context.Context) {
		if _, err := e.consolidator.Run(taskCtx, userID, message, cachedSims); err != nil {
			log.Printf("[ENGINE] background consolidation failed for user %s: %v", userID, err)
		}
	})
	if id != "" {
		log.Printf("[ENGINE] scheduled consolidation task %s for user %s", id, userID)
	}
	return id, nil
}

// PendingTasks reports the number of live background tasks.
func (e *Engine) PendingTasks() int {
	return e.tasks.count()
}

// Shutdown stops accepting background work, cancels the running tasks at
// their next stage boundary, and waits for them to finish. The ctx bounds
// the wait. Caches are dropped afterwards.
func (e *Engine) Shutdown(ctx context.Context) error {
	err := e.tasks.shutdown(ctx)
	e.cache.ClearAll()
	return err
}

// verdict classifies a message, reusing the cached verdict for repeated
// sightings of the same message (OnIncoming followed by OnOutgoing).
func (e *Engine) verdict(ctx context.Context, userID, message string) classify.Verdict {
	key := core.HashText(message)
	if v, ok := e.cache.Get(userID, cache.KindVerdict, key); ok {
		return v.(classify.Verdict)
	}
	verdict := e.classifier.Classify(ctx, message)
	e.cache.Put(userID, cache.KindVerdict, key, verdict)
	return verdict
}

func (e *Engine) emitSkip(v classify.Verdict) {
	switch v.Reason {
	case classify.ReasonSize:
		core.EmitStatus(e.sink, "Message length out of limits, skipping memory operations", true)
	default:
		core.EmitStatus(e.sink, "Non-personal content detected, skipping memory operations", true)
	}
}

// userMemories returns the user's records, from cache when fresh.
func (e *Engine) userMemories(ctx context.Context, userID string) ([]core.Record, error) {
	if v, ok := e.cache.Get(userID, cache.KindMemoryList, cache.MemoryListKey); ok {
		return v.([]core.Record), nil
	}

	listCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()
	records, err := e.store.ListByUser(listCtx, userID)
	if err != nil {
		return nil, core.WrapError(core.CodeStoreFailed, "list memories", err)
	}
	e.cache.Put(userID, cache.KindMemoryList, cache.MemoryListKey, records)
	return records, nil
}

// similarities returns the scored memory set for a message, from cache when
// the same message was scored before.
func (e *Engine) similarities(ctx context.Context, userID, message string, records []core.Record) ([]core.SimilarityResult, error) {
	key := core.HashText(message)
	if v, ok := e.cache.Get(userID, cache.KindRetrieval, key); ok {
		return v.([]core.SimilarityResult), nil
	}
	sims, err := e.sim.Score(ctx, userID, message, records)
	if err != nil {
		return nil, err
	}
	if len(sims) > 0 {
		e.cache.Put(userID, cache.KindRetrieval, key, sims)
	}
	return sims, nil
}
