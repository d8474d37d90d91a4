// Package rerank narrows a candidate memory set down to the most relevant
// few by asking a language model to pick ids. It is a pure read path: the
// store is never touched and failures fall back to similarity-order
// truncation.
package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/mnemoai/mnemo-go-sdk/core"
	"github.com/mnemoai/mnemo-go-sdk/llm"
)

// Config tunes the reranking stage.
type Config struct {
	// Enabled turns the model call on. When false Select degenerates to
	// truncation.
	Enabled bool

	// MaxReturned caps the final selection.
	MaxReturned int

	// TriggerMultiplier sets the candidate count (MaxReturned × multiplier)
	// above which the model is consulted at all.
	TriggerMultiplier float64

	// ExtensionMultiplier widens the candidate window shown to the model
	// (MaxReturned × multiplier).
	ExtensionMultiplier float64

	// Timeout bounds the model call.
	Timeout time.Duration
}

// DefaultConfig matches the retrieval defaults.
var DefaultConfig = Config{
	Enabled:             true,
	MaxReturned:         10,
	TriggerMultiplier:   0.8,
	ExtensionMultiplier: 1.6,
	Timeout:             60 * time.Second,
}

// Service selects relevant memories from retrieval candidates.
type Service struct {
	completer core.Completer
	cfg       Config
}

// New creates a reranking service. A nil completer disables reranking.
func New(completer core.Completer, cfg Config) *Service {
	if cfg.MaxReturned <= 0 {
		cfg.MaxReturned = DefaultConfig.MaxReturned
	}
	if cfg.TriggerMultiplier <= 0 {
		cfg.TriggerMultiplier = DefaultConfig.TriggerMultiplier
	}
	if cfg.ExtensionMultiplier <= 0 {
		cfg.ExtensionMultiplier = DefaultConfig.ExtensionMultiplier
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig.Timeout
	}
	return &Service{completer: completer, cfg: cfg}
}

var idsSchema = llm.ObjectSchema(map[string]interface{}{
	"ids": llm.ArrayProperty(
		"Selected memory ids ordered by relevance, most relevant first.",
		llm.StringProperty("memory id"),
	),
}, "ids")

// Select returns at most MaxReturned memories from candidates, which must
// arrive sorted by descending relevance. Small candidate sets and disabled
// or failing reranking all reduce to taking the top MaxReturned as-is.
func (s *Service) Select(ctx context.Context, query string, candidates []core.SimilarityResult) []core.SimilarityResult {
	trigger := int(float64(s.cfg.MaxReturned) * s.cfg.TriggerMultiplier)
	if !s.cfg.Enabled || s.completer == nil || len(candidates) <= trigger {
		return truncate(candidates, s.cfg.MaxReturned)
	}

	window := candidates
	if extended := int(float64(s.cfg.MaxReturned) * s.cfg.ExtensionMultiplier); len(window) > extended {
		window = window[:extended]
	}

	selected, err := s.selectByModel(ctx, query, window)
	if err != nil {
		log.Printf("[RERANK] model selection failed, falling back to similarity order: %v", err)
		return truncate(candidates, s.cfg.MaxReturned)
	}
	log.Printf("[RERANK] model selected %d of %d candidates", len(selected), len(window))
	return selected
}

func (s *Service) selectByModel(ctx context.Context, query string, window []core.SimilarityResult) ([]core.SimilarityResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	prompt := fmt.Sprintf("CURRENT DATE/TIME: %s\n\nUSER MESSAGE: %s\n\nCANDIDATE MEMORIES:\n%s",
		core.ClockLine(time.Now()), query, core.PromptLines(window))

	raw, err := s.completer.Complete(ctx, core.CompletionRequest{
		System: rerankingPrompt,
		Prompt: prompt,
		Schema: idsSchema,
	})
	if err != nil {
		return nil, err
	}

	var response struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal([]byte(raw), &response); err != nil {
		return nil, core.WrapError(core.CodeValidationFailed, "reranking response is not valid JSON", err)
	}

	byID := make(map[string]core.SimilarityResult, len(window))
	for _, c := range window {
		byID[c.ID] = c
	}

	// The model's ordering is the relevance ordering; unknown or repeated
	// ids are dropped.
	var selected []core.SimilarityResult
	seen := make(map[string]bool)
	for _, id := range response.IDs {
		if len(selected) >= s.cfg.MaxReturned {
			break
		}
		c, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, c)
	}
	return selected, nil
}

func truncate(candidates []core.SimilarityResult, max int) []core.SimilarityResult {
	if len(candidates) <= max {
		return candidates
	}
	return candidates[:max]
}
