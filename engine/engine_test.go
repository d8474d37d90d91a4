package engine

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mnemoai/mnemo-go-sdk/core"
)

// markerEmbedder projects texts onto two axes: technical marker words load
// axis 0, first-person phrasing loads axis 1. Deterministic, so personal
// messages classify as personal and score close to personal memories.
type markerEmbedder struct {
	mu      sync.Mutex
	batches int
}

func (e *markerEmbedder) Embed(_ context.Context, texts []string) ([]core.Vector, error) {
	e.mu.Lock()
	e.batches++
	e.mu.Unlock()
	out := make([]core.Vector, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		v := core.Vector{0, 0, 1}
		for _, m := range []string{"sql", "programming", "http", "regex", "json", "terminal"} {
			if strings.Contains(lower, m) {
				v[0] += 10
			}
		}
		if strings.Contains(lower, "my ") {
			v[1] += 10
		}
		out[i] = v
	}
	return out, nil
}

func (e *markerEmbedder) Dimensions() int { return 3 }

func (e *markerEmbedder) batchCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batches
}

type memStore struct {
	mu      sync.Mutex
	lists   int
	records map[string]core.Record
}

func newMemStore(records ...core.Record) *memStore {
	s := &memStore{records: make(map[string]core.Record)}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *memStore) ListByUser(_ context.Context, userID string) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	var out []core.Record
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) Create(_ context.Context, userID, content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := "mem-new"
	s.records[id] = core.Record{ID: id, UserID: userID, Content: content}
	return id, nil
}

func (s *memStore) Update(_ context.Context, id, userID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return errors.New("not found")
	}
	r.Content = content
	s.records[id] = r
	return nil
}

func (s *memStore) Delete(_ context.Context, id, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *memStore) listCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists
}

type scriptedCompleter struct {
	mu       sync.Mutex
	response string
	block    bool
	calls    int
}

func (c *scriptedCompleter) Complete(ctx context.Context, _ core.CompletionRequest) (string, error) {
	c.mu.Lock()
	c.calls++
	block := c.block
	c.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return c.response, nil
}

func (c *scriptedCompleter) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type eventRecorder struct {
	mu     sync.Mutex
	events []core.Event
}

func (r *eventRecorder) Emit(e core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) descriptions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Description)
	}
	return out
}

func personalRecords() []core.Record {
	return []core.Record{
		{ID: "mem-001", UserID: "u1", Content: "My dog is called Rex and he is a beagle", CreatedAt: time.Now()},
		{ID: "mem-002", UserID: "u1", Content: "My favorite food is ramen", CreatedAt: time.Now()},
	}
}

func waitForTasks(t *testing.T, e *Engine) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for e.PendingTasks() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("background tasks did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEmptyMessageSkipsCheaply(t *testing.T) {
	embedder := &markerEmbedder{}
	store := newMemStore(personalRecords()...)
	sink := &eventRecorder{}
	e := New(store, embedder, &scriptedCompleter{}, nil, WithStatusSink(sink))

	before := embedder.batchCount()
	storeCalls := store.listCalls()

	block, err := e.OnIncoming(context.Background(), "u1", "")
	if err != nil {
		t.Fatal(err)
	}
	if block != "" {
		t.Fatalf("expected empty context block, got %q", block)
	}
	if embedder.batchCount() != before {
		t.Error("size skip reached the embedder")
	}
	if store.listCalls() != storeCalls {
		t.Error("size skip reached the store")
	}

	found := false
	for _, d := range sink.descriptions() {
		if strings.Contains(d, "skipping memory operations") {
			found = true
		}
	}
	if !found {
		t.Errorf("no skip status emitted; events: %v", sink.descriptions())
	}
}

func TestRetrievalBuildsContextBlock(t *testing.T) {
	store := newMemStore(personalRecords()...)
	sink := &eventRecorder{}
	e := New(store, &markerEmbedder{}, &scriptedCompleter{}, nil, WithStatusSink(sink))

	block, err := e.OnIncoming(context.Background(), "u1", "Any tips for traveling with my dog Rex?")
	if err != nil {
		t.Fatal(err)
	}
	if block == "" {
		t.Fatal("expected a context block")
	}
	for _, want := range []string{
		"Current Date/Time:",
		"CONTEXT:",
		"- My dog is called Rex and he is a beagle",
		"Do not mention or imply",
	} {
		if !strings.Contains(block, want) {
			t.Errorf("context block missing %q:\n%s", want, block)
		}
	}

	injected := false
	for _, d := range sink.descriptions() {
		if strings.Contains(d, "Injected") {
			injected = true
		}
	}
	if !injected {
		t.Errorf("no injection status emitted; events: %v", sink.descriptions())
	}
}

func TestInjectSystemContext(t *testing.T) {
	block := "Current Date/Time: now"

	messages := InjectSystemContext([]Message{{Role: "user", Content: "hi"}}, block)
	if len(messages) != 2 || messages[0].Role != "system" || messages[0].Content != block {
		t.Fatalf("expected prepended system message, got %v", messages)
	}

	messages = InjectSystemContext([]Message{{Role: "system", Content: "base"}, {Role: "user", Content: "hi"}}, block)
	if len(messages) != 2 || !strings.HasPrefix(messages[0].Content, "base") || !strings.Contains(messages[0].Content, block) {
		t.Fatalf("expected appended system content, got %v", messages)
	}

	same := []Message{{Role: "user", Content: "hi"}}
	if got := InjectSystemContext(same, ""); len(got) != 1 {
		t.Fatal("empty block must not alter the conversation")
	}
}

func TestRepeatedMessageServedFromCache(t *testing.T) {
	embedder := &markerEmbedder{}
	store := newMemStore(personalRecords()...)
	e := New(store, embedder, &scriptedCompleter{}, nil)

	message := "Any tips for traveling with my dog Rex?"
	if _, err := e.OnIncoming(context.Background(), "u1", message); err != nil {
		t.Fatal(err)
	}
	batches := embedder.batchCount()
	storeCalls := store.listCalls()

	if _, err := e.OnIncoming(context.Background(), "u1", message); err != nil {
		t.Fatal(err)
	}
	if embedder.batchCount() != batches {
		t.Error("second retrieval re-embedded a cached message")
	}
	if store.listCalls() != storeCalls {
		t.Error("second retrieval re-listed memories")
	}
}

func TestOutgoingReusesVerdictAndSimilarities(t *testing.T) {
	embedder := &markerEmbedder{}
	store := newMemStore(personalRecords()...)
	completer := &scriptedCompleter{response: `{"ops": []}`}
	e := New(store, embedder, completer, nil)

	message := "Any tips for traveling with my dog Rex?"
	if _, err := e.OnIncoming(context.Background(), "u1", message); err != nil {
		t.Fatal(err)
	}
	batches := embedder.batchCount()

	id, err := e.OnOutgoing(context.Background(), "u1", message)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("expected a scheduled task id")
	}
	waitForTasks(t, e)

	// Verdict and similarity sets are cached, so the only model activity is
	// the planning call, and nothing new is embedded.
	if embedder.batchCount() != batches {
		t.Error("consolidation re-embedded cached content")
	}
	if completer.callCount() != 1 {
		t.Errorf("completer called %d times, want 1 planning call", completer.callCount())
	}
}

func TestOutgoingSkipsNonPersonalMessage(t *testing.T) {
	e := New(newMemStore(), &markerEmbedder{}, &scriptedCompleter{}, nil)

	id, err := e.OnOutgoing(context.Background(), "u1", "---\nsection\n---\nanother")
	if err != nil {
		t.Fatal(err)
	}
	if id != "" {
		t.Fatal("structural content must not schedule consolidation")
	}
}

func TestShutdownDrainsTasks(t *testing.T) {
	store := newMemStore(personalRecords()...)
	completer := &scriptedCompleter{block: true}
	e := New(store, &markerEmbedder{}, completer, nil)

	message := "Any tips for traveling with my dog Rex?"
	if _, err := e.OnIncoming(context.Background(), "u1", message); err != nil {
		t.Fatal(err)
	}
	if _, err := e.OnOutgoing(context.Background(), "u1", message); err != nil {
		t.Fatal(err)
	}

	if err := e.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if got := e.PendingTasks(); got != 0 {
		t.Fatalf("%d tasks still pending after shutdown", got)
	}

	// New work is refused after shutdown.
	id, err := e.OnOutgoing(context.Background(), "u1", message)
	if err != nil {
		t.Fatal(err)
	}
	if id != "" {
		t.Fatal("task scheduled after shutdown")
	}
}

func TestShutdownTimeout(t *testing.T) {
	e := New(newMemStore(), &markerEmbedder{}, &scriptedCompleter{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown with no tasks: %v", err)
	}
}

func TestEmptyUserIDRejected(t *testing.T) {
	e := New(newMemStore(), &markerEmbedder{}, &scriptedCompleter{}, nil)

	_, err := e.OnIncoming(context.Background(), "", "I moved to Oslo last month")
	if core.ErrCode(err) != core.CodeInvalidInput {
		t.Fatalf("err = %v, want %s", err, core.CodeInvalidInput)
	}
	_, err = e.OnOutgoing(context.Background(), "", "I moved to Oslo last month")
	if core.ErrCode(err) != core.CodeInvalidInput {
		t.Fatalf("err = %v, want %s", err, core.CodeInvalidInput)
	}
}

func TestNoStoredMemoriesYieldsEmptyBlock(t *testing.T) {
	e := New(newMemStore(), &markerEmbedder{}, &scriptedCompleter{}, nil)

	block, err := e.OnIncoming(context.Background(), "u1", "Any tips for traveling with my dog Rex?")
	if err != nil {
		t.Fatal(err)
	}
	if block != "" {
		t.Fatalf("expected empty block, got %q", block)
	}
}
