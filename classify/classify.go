// Package classify decides whether a message carries durable personal
// signal worth remembering. Classification runs three stages in order of
// cost: a size check, deterministic structural pattern checks, and finally
// semantic comparison against embedded exemplar categories. Only the last
// stage touches the embedder.
package classify

import (
	"context"
	"log"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mnemoai/mnemo-go-sdk/core"
)

// Reason identifies which stage produced a skip verdict.
type Reason string

const (
	ReasonSize       Reason = "size"
	ReasonStructural Reason = "structural"
	ReasonSemantic   Reason = "semantic"
)

// Verdict is a classification result. Category is the label of the winning
// skip category when Reason is ReasonSemantic, empty otherwise.
type Verdict struct {
	Allow    bool
	Reason   Reason
	Category string
}

// Config tunes the classifier.
type Config struct {
	// MinChars and MaxChars bound message length after trimming; messages
	// outside the range are skipped without further analysis.
	MinChars int
	MaxChars int

	// SkipMargin is how far a skip category's best cosine similarity must
	// exceed the best personal similarity before the message is skipped.
	SkipMargin float64
}

// DefaultConfig is tuned for short-to-medium chat messages.
var DefaultConfig = Config{
	MinChars:   10,
	MaxChars:   2500,
	SkipMargin: 0.20,
}

// referenceTable holds the exemplar embeddings, normalized, grouped by
// category. Read-only after construction and safe to share across users.
type referenceTable struct {
	personal []core.Vector
	skip     []skipGroup
}

type skipGroup struct {
	label   string
	vectors []core.Vector
}

// Classifier classifies messages against a fixed exemplar table.
type Classifier struct {
	embedder core.Embedder
	cfg      Config

	mu   sync.Mutex
	refs *referenceTable
}

// New builds a Classifier, embedding the exemplar categories through the
// shared registry (or directly on registry miss). If exemplar embedding
// fails the classifier still works: the semantic stage degrades to Allow
// and the table build is retried on later Classify calls.
func New(ctx context.Context, embedder core.Embedder, cfg Config) *Classifier {
	if cfg.MinChars <= 0 {
		cfg.MinChars = DefaultConfig.MinChars
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultConfig.MaxChars
	}
	if cfg.SkipMargin <= 0 {
		cfg.SkipMargin = DefaultConfig.SkipMargin
	}

	c := &Classifier{embedder: embedder, cfg: cfg}
	if refs := c.references(ctx); refs != nil {
		log.Printf("[CLASSIFY] initialized with %d skip categories, %d personal exemplars",
			len(refs.skip), len(refs.personal))
	}
	return c
}

// references returns the exemplar table, building it on first use. A build
// failure is not pinned: the next call tries again.
func (c *Classifier) references(ctx context.Context) *referenceTable {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs == nil {
		refs, err := sharedReferences(ctx, c.embedder)
		if err != nil {
			log.Printf("[CLASSIFY] exemplar embedding failed, semantic stage degraded: %v", err)
			return nil
		}
		c.refs = refs
	}
	return c.refs
}

// Classify runs the three stages and returns a verdict. It never returns
// an error: any failure in the semantic stage allows the message through.
func (c *Classifier) Classify(ctx context.Context, message string) Verdict {
	trimmed := strings.TrimSpace(message)
	if chars := utf8.RuneCountInString(trimmed); chars < c.cfg.MinChars || chars > c.cfg.MaxChars {
		return Verdict{Reason: ReasonSize}
	}

	if looksStructural(message) {
		return Verdict{Reason: ReasonStructural}
	}

	refs := c.references(ctx)
	if refs == nil {
		return Verdict{Allow: true}
	}

	vecs, err := c.embedder.Embed(ctx, []string{trimmed})
	if err != nil || len(vecs) == 0 {
		log.Printf("[CLASSIFY] message embedding failed, allowing through: %v", err)
		return Verdict{Allow: true}
	}
	v := core.Normalize(vecs[0])

	personalBest := maxSimilarity(v, refs.personal)

	skipBest := float64(-1)
	skipLabel := ""
	for _, group := range refs.skip {
		if s := maxSimilarity(v, group.vectors); s > skipBest {
			skipBest = s
			skipLabel = group.label
		}
	}

	if skipBest-personalBest > c.cfg.SkipMargin {
		log.Printf("[CLASSIFY] non-personal content (%s: %.3f vs personal %.3f)",
			skipLabel, skipBest, personalBest)
		return Verdict{Reason: ReasonSemantic, Category: skipLabel}
	}

	return Verdict{Allow: true}
}

func maxSimilarity(v core.Vector, refs []core.Vector) float64 {
	best := float64(-1)
	for _, r := range refs {
		if d := core.Dot(v, r); d > best {
			best = d
		}
	}
	return best
}

// buildReferences embeds every exemplar in one batch per category set.
func buildReferences(ctx context.Context, embedder core.Embedder) (*referenceTable, error) {
	refs := &referenceTable{}

	personal, err := embedNormalized(ctx, embedder, PersonalExemplars)
	if err != nil {
		return nil, err
	}
	refs.personal = personal

	for _, cat := range SkipCategories {
		vecs, err := embedNormalized(ctx, embedder, cat.Exemplars)
		if err != nil {
			return nil, err
		}
		refs.skip = append(refs.skip, skipGroup{label: cat.Label, vectors: vecs})
	}
	return refs, nil
}

func embedNormalized(ctx context.Context, embedder core.Embedder, texts []string) ([]core.Vector, error) {
	vecs, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	out := make([]core.Vector, len(vecs))
	for i, v := range vecs {
		out[i] = core.Normalize(v)
	}
	return out, nil
}
