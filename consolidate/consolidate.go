// Package consolidate turns a user message into memory store mutations.
// A language model plans CREATE/UPDATE/DELETE operations against the
// relevant existing memories; the plan is then validated, safety-checked,
// deduplicated against the store, and executed with bounded concurrency.
// Every stage degrades on failure: a broken model call yields an empty
// plan, a failed operation never aborts its siblings.
package consolidate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mnemoai/mnemo-go-sdk/cache"
	"github.com/mnemoai/mnemo-go-sdk/core"
	"github.com/mnemoai/mnemo-go-sdk/llm"
	"github.com/mnemoai/mnemo-go-sdk/similarity"
)

// Config tunes the consolidation pipeline.
type Config struct {
	// MaxReturned is the retrieval cap; the candidate window is
	// MaxReturned × ExtensionMultiplier.
	MaxReturned         int
	ExtensionMultiplier float64

	// MaxDeleteRatio rejects a whole plan when deletes exceed this share
	// and the plan has at least MinOpsForRatioCheck operations.
	MaxDeleteRatio      float64
	MinOpsForRatioCheck int

	// DedupThreshold is the cosine similarity at which new content counts
	// as a duplicate of an existing memory.
	DedupThreshold float64

	// MinContentChars excludes trivially short memories from duplicate
	// comparison.
	MinContentChars int

	// Concurrency bounds the per-group fan-out during execution.
	Concurrency int

	// LLMTimeout bounds the planning call; OpTimeout bounds each store call.
	LLMTimeout time.Duration
	OpTimeout  time.Duration
}

// DefaultConfig mirrors the retrieval defaults.
var DefaultConfig = Config{
	MaxReturned:         10,
	ExtensionMultiplier: 1.6,
	MaxDeleteRatio:      0.6,
	MinOpsForRatioCheck: 6,
	DedupThreshold:      0.90,
	MinContentChars:     10,
	Concurrency:         4,
	LLMTimeout:          60 * time.Second,
	OpTimeout:           10 * time.Second,
}

// Tally counts the outcome of one executed plan.
type Tally struct {
	Created int
	Updated int
	Deleted int
	Failed  int
}

// Mutations is the number of operations that changed the store.
func (t Tally) Mutations() int {
	return t.Created + t.Updated + t.Deleted
}

// Details renders the non-zero counters for logs and status lines.
func (t Tally) Details() string {
	var parts []string
	if t.Created > 0 {
		parts = append(parts, fmt.Sprintf("Created %d", t.Created))
	}
	if t.Updated > 0 {
		parts = append(parts, fmt.Sprintf("Updated %d", t.Updated))
	}
	if t.Deleted > 0 {
		parts = append(parts, fmt.Sprintf("Deleted %d", t.Deleted))
	}
	if len(parts) == 0 {
		return "No Changes"
	}
	return strings.Join(parts, ", ")
}

// Service runs consolidation pipelines for one store/model pairing.
type Service struct {
	store     core.MemoryStore
	sim       *similarity.Engine
	completer core.Completer
	cache     *cache.Manager
	sink      core.StatusSink
	cfg       Config
}

// New creates a consolidation service. The sink may be nil.
func New(store core.MemoryStore, sim *similarity.Engine, completer core.Completer, c *cache.Manager, sink core.StatusSink, cfg Config) *Service {
	if cfg.MaxReturned <= 0 {
		cfg.MaxReturned = DefaultConfig.MaxReturned
	}
	if cfg.ExtensionMultiplier <= 0 {
		cfg.ExtensionMultiplier = DefaultConfig.ExtensionMultiplier
	}
	if cfg.MaxDeleteRatio <= 0 {
		cfg.MaxDeleteRatio = DefaultConfig.MaxDeleteRatio
	}
	if cfg.MinOpsForRatioCheck <= 0 {
		cfg.MinOpsForRatioCheck = DefaultConfig.MinOpsForRatioCheck
	}
	if cfg.DedupThreshold <= 0 {
		cfg.DedupThreshold = DefaultConfig.DedupThreshold
	}
	if cfg.MinContentChars <= 0 {
		cfg.MinContentChars = DefaultConfig.MinContentChars
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig.Concurrency
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = DefaultConfig.LLMTimeout
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultConfig.OpTimeout
	}
	return &Service{store: store, sim: sim, completer: completer, cache: c, sink: sink, cfg: cfg}
}

// Run executes the full pipeline for one message. cachedSims, when non-nil,
// is the similarity set already computed during retrieval and saves a store
// round-trip. Cancellation is honored between stages; a cancelled context
// returns the work done so far.
func (s *Service) Run(ctx context.Context, userID, message string, cachedSims []core.SimilarityResult) (Tally, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return Tally{}, err
	}
	candidates := s.collectCandidates(ctx, userID, message, cachedSims)

	if err := ctx.Err(); err != nil {
		return Tally{}, err
	}
	ops := s.generatePlan(ctx, message, candidates)
	if len(ops) == 0 {
		return Tally{}, nil
	}

	if err := ctx.Err(); err != nil {
		return Tally{}, err
	}
	ops = s.dedupeAgainstStore(ctx, userID, ops)
	if len(ops) == 0 {
		return Tally{}, nil
	}

	if err := ctx.Err(); err != nil {
		return Tally{}, err
	}
	tally := s.execute(ctx, userID, ops)

	if tally.Mutations() > 0 {
		s.refreshCache(ctx, userID)
		duration := time.Since(start)
		log.Printf("[CONSOLIDATE] completed %d/%d operations in %.2fs (%s, %d failed)",
			tally.Mutations(), len(ops), duration.Seconds(), tally.Details(), tally.Failed)
		core.EmitStatus(s.sink, fmt.Sprintf("Memory consolidation complete in %.2fs", duration.Seconds()), false)
		summary := tally.Details()
		if tally.Failed > 0 {
			summary += fmt.Sprintf(" (%d failed)", tally.Failed)
		}
		core.EmitStatus(s.sink, summary, true)
	}
	return tally, nil
}

// collectCandidates returns the memories worth showing the planner: the
// similarity set filtered at the relaxed threshold and capped at the
// extended window. Failures return an empty set so planning still sees the
// message itself.
func (s *Service) collectCandidates(ctx context.Context, userID, message string, cachedSims []core.SimilarityResult) []core.SimilarityResult {
	if cachedSims == nil {
		records, err := s.listRecords(ctx, userID)
		if err != nil {
			log.Printf("[CONSOLIDATE] memory listing failed, planning without candidates: %v", err)
			return nil
		}
		if len(records) == 0 {
			return nil
		}
		cachedSims, err = s.sim.Score(ctx, userID, message, records)
		if err != nil {
			log.Printf("[CONSOLIDATE] similarity scoring failed, planning without candidates: %v", err)
			return nil
		}
	}

	candidates := similarity.Filter(cachedSims, s.sim.ConsolidationThreshold())
	if window := int(float64(s.cfg.MaxReturned) * s.cfg.ExtensionMultiplier); len(candidates) > window {
		candidates = candidates[:window]
	}
	log.Printf("[CONSOLIDATE] %d candidate memories (threshold %.3f)",
		len(candidates), s.sim.ConsolidationThreshold())
	return candidates
}

var opsSchema = llm.ObjectSchema(map[string]interface{}{
	"ops": llm.ArrayProperty(
		"Memory operations to apply, in order.",
		llm.ObjectSchema(map[string]interface{}{
			"operation": llm.StringEnumProperty("operation kind", "CREATE", "UPDATE", "DELETE"),
			"id":        llm.StringProperty("target memory id; empty for CREATE"),
			"content":   llm.StringProperty("memory content; empty for DELETE"),
		}, "operation"),
	),
}, "ops")

type wireOp struct {
	Operation string `json:"operation"`
	ID        string `json:"id"`
	Content   string `json:"content"`
}

// generatePlan asks the model for operations and reduces them to a safe,
// validated, internally deduplicated plan. Any model failure yields an
// empty plan.
func (s *Service) generatePlan(ctx context.Context, message string, candidates []core.SimilarityResult) []core.Operation {
	memoryContext := "EXISTING MEMORIES FOR CONSOLIDATION:\n[]\n\nNote: No existing memories found - Focus on extracting new memories from the user message below.\n\n"
	if len(candidates) > 0 {
		memoryContext = "EXISTING MEMORIES FOR CONSOLIDATION:\n" + core.PromptLines(candidates) + "\n\n"
	}
	prompt := fmt.Sprintf("CURRENT DATE/TIME: %s\n\n%sUSER MESSAGE: %s",
		core.ClockLine(time.Now()), memoryContext, message)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()

	raw, err := s.completer.Complete(callCtx, core.CompletionRequest{
		System: consolidationPrompt,
		Prompt: prompt,
		Schema: opsSchema,
	})
	if err != nil {
		log.Printf("[CONSOLIDATE] planning call failed: %v", err)
		core.EmitStatus(s.sink, "Memory consolidation failed", true)
		return nil
	}

	var response struct {
		Ops []wireOp `json:"ops"`
	}
	if err := json.Unmarshal([]byte(raw), &response); err != nil {
		log.Printf("[CONSOLIDATE] planning response is not valid JSON: %v", err)
		core.EmitStatus(s.sink, "Memory consolidation failed", true)
		return nil
	}

	var parsed []core.Operation
	for _, w := range response.Ops {
		kind, err := core.ParseOpKind(w.Operation)
		if err != nil {
			log.Printf("[CONSOLIDATE] dropping operation: %v", err)
			continue
		}
		parsed = append(parsed, core.Operation{Kind: kind, MemoryID: strings.TrimSpace(w.ID), Content: w.Content})
	}

	// A plan that mostly deletes is more likely a hallucination than a
	// genuine contradiction sweep; reject it wholesale.
	if len(parsed) >= s.cfg.MinOpsForRatioCheck {
		deletes := 0
		for _, op := range parsed {
			if op.Kind == core.OpDelete {
				deletes++
			}
		}
		if ratio := float64(deletes) / float64(len(parsed)); ratio > s.cfg.MaxDeleteRatio {
			log.Printf("[CONSOLIDATE] safety: %d/%d operations are deletes (%.0f%%), rejecting plan",
				deletes, len(parsed), ratio*100)
			return nil
		}
	}

	knownIDs := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		knownIDs[c.ID] = true
	}

	var plan []core.Operation
	seenContents := make(map[string]bool)
	seenUpdateIDs := make(map[string]bool)
	for _, op := range parsed {
		if err := op.Validate(knownIDs); err != nil {
			log.Printf("[CONSOLIDATE] dropping invalid operation: %v", err)
			continue
		}
		if op.Kind == core.OpUpdate && seenUpdateIDs[op.MemoryID] {
			log.Printf("[CONSOLIDATE] dropping repeated UPDATE for %s", op.MemoryID)
			continue
		}
		if op.Kind == core.OpCreate || op.Kind == core.OpUpdate {
			normalized := strings.ToLower(strings.TrimSpace(op.Content))
			if seenContents[normalized] {
				log.Printf("[CONSOLIDATE] dropping duplicate %s: %s", op.Kind, core.Truncate(op.Content, 60))
				continue
			}
			seenContents[normalized] = true
		}
		if op.Kind == core.OpUpdate {
			seenUpdateIDs[op.MemoryID] = true
		}
		plan = append(plan, op)
	}

	if len(plan) > 0 {
		log.Printf("[CONSOLIDATE] planned %d memory operations", len(plan))
	} else {
		log.Printf("[CONSOLIDATE] no valid memory operations planned")
	}
	return plan
}

// dedupeAgainstStore compares planned CREATE/UPDATE content with the
// current store records. A CREATE that duplicates an existing memory is
// dropped; an UPDATE whose new content duplicates another memory keeps its
// enriched content and a DELETE of the duplicate is appended instead.
// Failures keep the plan unchanged.
func (s *Service) dedupeAgainstStore(ctx context.Context, userID string, ops []core.Operation) []core.Operation {
	hasContentOps := false
	for _, op := range ops {
		if op.Kind == core.OpCreate || op.Kind == core.OpUpdate {
			hasContentOps = true
			break
		}
	}
	if !hasContentOps {
		return ops
	}

	records, err := s.listRecords(ctx, userID)
	if err != nil {
		log.Printf("[CONSOLIDATE] duplicate check skipped, listing failed: %v", err)
		return ops
	}

	var out []core.Operation
	var appendedDeletes []core.Operation
	deleteTargets := make(map[string]bool)
	for _, op := range ops {
		if op.Kind == core.OpDelete {
			deleteTargets[op.MemoryID] = true
		}
	}

	for _, op := range ops {
		if op.Kind == core.OpDelete {
			out = append(out, op)
			continue
		}

		dupID, err := s.findDuplicate(ctx, userID, op, records)
		if err != nil {
			log.Printf("[CONSOLIDATE] duplicate check failed, keeping operation: %v", err)
			out = append(out, op)
			continue
		}
		if dupID == "" {
			out = append(out, op)
			continue
		}

		switch op.Kind {
		case core.OpCreate:
			log.Printf("[CONSOLIDATE] dropping CREATE, duplicates memory %s: %s",
				dupID, core.Truncate(op.Content, 60))
		case core.OpUpdate:
			log.Printf("[CONSOLIDATE] UPDATE %s duplicates memory %s, keeping enriched content and deleting duplicate",
				op.MemoryID, dupID)
			out = append(out, op)
			if !deleteTargets[dupID] {
				deleteTargets[dupID] = true
				appendedDeletes = append(appendedDeletes, core.Operation{Kind: core.OpDelete, MemoryID: dupID})
			}
		}
	}
	return append(out, appendedDeletes...)
}

// findDuplicate returns the id of a stored memory whose embedding matches
// the operation content at or above the dedup threshold. Updates never
// match their own record.
func (s *Service) findDuplicate(ctx context.Context, userID string, op core.Operation, records []core.Record) (string, error) {
	var comparable []core.Record
	for _, r := range records {
		if op.Kind == core.OpUpdate && r.ID == op.MemoryID {
			continue
		}
		if len(strings.TrimSpace(r.Content)) < s.cfg.MinContentChars {
			continue
		}
		comparable = append(comparable, r)
	}
	if len(comparable) == 0 {
		return "", nil
	}

	texts := make([]string, 0, len(comparable)+1)
	texts = append(texts, op.Content)
	for _, r := range comparable {
		texts = append(texts, r.Content)
	}
	vecs, err := s.sim.EmbedCached(ctx, userID, texts)
	if err != nil {
		return "", err
	}

	for i, r := range comparable {
		if sim := core.Dot(vecs[0], vecs[i+1]); sim >= s.cfg.DedupThreshold {
			log.Printf("[CONSOLIDATE] semantic duplicate: similarity %.3f with memory %s", sim, r.ID)
			return r.ID, nil
		}
	}
	return "", nil
}

// execute applies the plan grouped by kind: creates, then updates, then
// deletes, each group fanned out under the concurrency bound. Individual
// failures count toward the tally and never stop the rest.
func (s *Service) execute(ctx context.Context, userID string, ops []core.Operation) Tally {
	groups := map[core.OpKind][]core.Operation{}
	for _, op := range ops {
		groups[op.Kind] = append(groups[op.Kind], op)
	}

	// Content previews for delete status lines.
	deleteContents := make(map[string]string)
	if len(groups[core.OpDelete]) > 0 {
		if records, err := s.listRecords(ctx, userID); err == nil {
			for _, r := range records {
				deleteContents[r.ID] = r.Content
			}
		} else {
			log.Printf("[CONSOLIDATE] delete preview listing failed: %v", err)
		}
	}

	var mu sync.Mutex
	var tally Tally
	sem := make(chan struct{}, s.cfg.Concurrency)

	for _, kind := range []core.OpKind{core.OpCreate, core.OpUpdate, core.OpDelete} {
		var wg sync.WaitGroup
		for _, op := range groups[kind] {
			wg.Add(1)
			sem <- struct{}{}
			go func(op core.Operation) {
				defer wg.Done()
				defer func() { <-sem }()

				err := s.applyOperation(ctx, userID, op)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					tally.Failed++
					log.Printf("[CONSOLIDATE] %s failed: %v", op.Kind, err)
					core.EmitStatus(s.sink, fmt.Sprintf("Failed %s", op.Kind), false)
					return
				}
				switch op.Kind {
				case core.OpCreate:
					tally.Created++
					core.EmitStatus(s.sink, "Created: "+core.Truncate(op.Content, 60), false)
				case core.OpUpdate:
					tally.Updated++
					core.EmitStatus(s.sink, "Updated: "+core.Truncate(op.Content, 60), false)
				case core.OpDelete:
					preview := op.MemoryID
					if content, ok := deleteContents[op.MemoryID]; ok && content != "" {
						preview = core.Truncate(content, 60)
					}
					tally.Deleted++
					core.EmitStatus(s.sink, "Deleted: "+preview, false)
				}
			}(op)
		}
		wg.Wait()
	}
	return tally
}

func (s *Service) applyOperation(ctx context.Context, userID string, op core.Operation) error {
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	switch op.Kind {
	case core.OpCreate:
		_, err := s.store.Create(opCtx, userID, strings.TrimSpace(op.Content))
		return err
	case core.OpUpdate:
		return s.store.Update(opCtx, op.MemoryID, userID, strings.TrimSpace(op.Content))
	case core.OpDelete:
		return s.store.Delete(opCtx, op.MemoryID, userID)
	default:
		return core.NewError(core.CodeUnsupported, "unsupported operation kind")
	}
}

// refreshCache drops everything invalidated by the mutations, refills the
// memory list, and warms the embedding cache for the new contents.
func (s *Service) refreshCache(ctx context.Context, userID string) {
	retrievalCleared := s.cache.ClearUser(userID, cache.KindRetrieval)
	embeddingCleared := s.cache.ClearUser(userID, cache.KindEmbedding)
	verdictCleared := s.cache.ClearUser(userID, cache.KindVerdict)
	log.Printf("[CONSOLIDATE] cleared %d retrieval + %d embedding + %d verdict cache entries for user %s",
		retrievalCleared, embeddingCleared, verdictCleared, userID)

	records, err := s.listRecords(ctx, userID)
	if err != nil {
		log.Printf("[CONSOLIDATE] cache refresh listing failed for user %s: %v", userID, err)
		return
	}
	s.cache.Put(userID, cache.KindMemoryList, cache.MemoryListKey, records)

	var contents []string
	for _, r := range records {
		if len(strings.TrimSpace(r.Content)) >= s.cfg.MinContentChars {
			contents = append(contents, r.Content)
		}
	}
	if len(contents) == 0 {
		return
	}
	if _, err := s.sim.EmbedCached(ctx, userID, contents); err != nil {
		log.Printf("[CONSOLIDATE] cache warm-up embedding failed for user %s: %v", userID, err)
		return
	}
	log.Printf("[CONSOLIDATE] cache refreshed with %d embeddings for user %s", len(contents), userID)
}

func (s *Service) listRecords(ctx context.Context, userID string) ([]core.Record, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()
	records, err := s.store.ListByUser(opCtx, userID)
	if err != nil {
		return nil, core.WrapError(core.CodeStoreFailed, "list memories", err)
	}
	return records, nil
}
