package core

import "context"

// Embedder converts texts to embedding vectors in one batch.
// Implementations: embedder/mock (testing), embedder/onnx (local),
// or any API-backed embedder supplied by the host.
type Embedder interface {
	// Embed returns one vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([]Vector, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// CompletionRequest describes one language-model call.
type CompletionRequest struct {
	// System is the system prompt.
	System string

	// Prompt is the user-turn prompt.
	Prompt string

	// Schema, when non-nil, is a JSON Schema the result must conform to.
	// The Completer returns the conforming JSON document as a string; a
	// response that cannot be made to conform is a failed call.
	Schema map[string]interface{}

	// MaxTokens caps the response size. Zero means the implementation default.
	MaxTokens int64
}

// Completer is the language-model transport.
// Implementations: llm/anthropic (production), test doubles elsewhere.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// MemoryStore is the durable record store. The engine reads, creates,
// updates and deletes records by id but never holds them beyond one
// pipeline pass. Callers apply their own timeouts via ctx.
type MemoryStore interface {
	ListByUser(ctx context.Context, userID string) ([]Record, error)
	Create(ctx context.Context, userID, content string) (string, error)
	Update(ctx context.Context, id, userID, content string) error
	Delete(ctx context.Context, id, userID string) error
}

// Event is a fire-and-forget progress/status notification
// ("created: ...", "no relevant memories found").
type Event struct {
	Description string
	Done        bool
}

// StatusSink receives progress events. Implementations must be cheap;
// the engine never waits on a sink.
type StatusSink interface {
	Emit(Event)
}

// EmitStatus delivers an event to an optional sink. A nil sink is a no-op
// and a panicking sink is swallowed: status emission must never take down
// a pipeline.
func EmitStatus(sink StatusSink, description string, done bool) {
	if sink == nil {
		return
	}
	defer func() { _ = recover() }()
	sink.Emit(Event{Description: description, Done: done})
}
