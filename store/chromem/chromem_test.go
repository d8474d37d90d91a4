package chromem

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mnemoai/mnemo-go-sdk/core"
	"github.com/mnemoai/mnemo-go-sdk/embedder/mock"
)

func newStore() *Store {
	return New(mock.New())
}

// outageEmbedder wraps the mock embedder with a switchable failure mode.
type outageEmbedder struct {
	inner *mock.Embedder
	mu    sync.Mutex
	down  bool
}

func (e *outageEmbedder) Embed(ctx context.Context, texts []string) ([]core.Vector, error) {
	e.mu.Lock()
	down := e.down
	e.mu.Unlock()
	if down {
		return nil, errors.New("embedding backend unavailable")
	}
	return e.inner.Embed(ctx, texts)
}

func (e *outageEmbedder) Dimensions() int { return e.inner.Dimensions() }

func (e *outageEmbedder) setDown(down bool) {
	e.mu.Lock()
	e.down = down
	e.mu.Unlock()
}

func TestCreateAndList(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	id1, err := s.Create(ctx, "u1", "I live in Oslo")
	if err != nil {
		t.Fatal(err)
	}
	id2, err := s.Create(ctx, "u1", "My cat is called Miso")
	if err != nil {
		t.Fatal(err)
	}
	if id1 == "" || id2 == "" || id1 == id2 {
		t.Fatalf("bad ids: %q, %q", id1, id2)
	}

	records, err := s.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("listed %d records, want 2", len(records))
	}
	for _, r := range records {
		if r.UserID != "u1" || r.CreatedAt.IsZero() {
			t.Errorf("bad record %+v", r)
		}
	}
}

func TestUsersAreIsolated(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	if _, err := s.Create(ctx, "u1", "I live in Oslo"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, "u2", "I live in Lima"); err != nil {
		t.Fatal(err)
	}

	records, err := s.ListByUser(ctx, "u2")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Content != "I live in Lima" {
		t.Fatalf("u2 records = %+v", records)
	}

	empty, err := s.ListByUser(ctx, "u3")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Fatalf("unknown user has %d records", len(empty))
	}
}

func TestUpdatePreservesCreationTime(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	id, err := s.Create(ctx, "u1", "I work as a teacher")
	if err != nil {
		t.Fatal(err)
	}
	original, _ := s.ListByUser(ctx, "u1")

	if err := s.Update(ctx, id, "u1", "I work as a high school teacher"); err != nil {
		t.Fatal(err)
	}

	records, _ := s.ListByUser(ctx, "u1")
	if len(records) != 1 {
		t.Fatalf("listed %d records after update, want 1", len(records))
	}
	if records[0].Content != "I work as a high school teacher" {
		t.Errorf("content = %q", records[0].Content)
	}
	if !records[0].CreatedAt.Equal(original[0].CreatedAt) {
		t.Error("update changed the creation time")
	}
}

func TestFailedUpdateKeepsRecord(t *testing.T) {
	embedder := &outageEmbedder{inner: mock.New()}
	s := New(embedder)
	ctx := context.Background()

	id, err := s.Create(ctx, "u1", "I live in Oslo")
	if err != nil {
		t.Fatal(err)
	}

	embedder.setDown(true)
	if err := s.Update(ctx, id, "u1", "I live in Bergen"); err == nil {
		t.Fatal("update succeeded with the embedder down")
	}

	records, err := s.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("record lost after failed update: %d records remain, want 1", len(records))
	}
	if records[0].Content != "I live in Oslo" {
		t.Errorf("content = %q, want the original preserved", records[0].Content)
	}

	// The store recovers once the embedder is back.
	embedder.setDown(false)
	if err := s.Update(ctx, id, "u1", "I live in Bergen"); err != nil {
		t.Fatal(err)
	}
	records, _ = s.ListByUser(ctx, "u1")
	if len(records) != 1 || records[0].Content != "I live in Bergen" {
		t.Fatalf("records after recovered update = %+v", records)
	}
}

func TestCreateFailsCleanlyWithEmbedderDown(t *testing.T) {
	embedder := &outageEmbedder{inner: mock.New(), down: true}
	s := New(embedder)

	if _, err := s.Create(context.Background(), "u1", "I live in Oslo"); err == nil {
		t.Fatal("create succeeded with the embedder down")
	}
	records, _ := s.ListByUser(context.Background(), "u1")
	if len(records) != 0 {
		t.Fatalf("%d records stored by a failed create", len(records))
	}
}

func TestUpdateWrongOwnerRejected(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	id, err := s.Create(ctx, "u1", "I live in Oslo")
	if err != nil {
		t.Fatal(err)
	}

	err = s.Update(ctx, id, "u2", "hijacked")
	if core.ErrCode(err) != core.CodeInvalidInput {
		t.Fatalf("err = %v, want %s", err, core.CodeInvalidInput)
	}
	err = s.Delete(ctx, id, "u2")
	if core.ErrCode(err) != core.CodeInvalidInput {
		t.Fatalf("err = %v, want %s", err, core.CodeInvalidInput)
	}
}

func TestDelete(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	id, err := s.Create(ctx, "u1", "I live in Oslo")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, id, "u1"); err != nil {
		t.Fatal(err)
	}

	records, _ := s.ListByUser(ctx, "u1")
	if len(records) != 0 {
		t.Fatalf("%d records remain after delete", len(records))
	}
	if err := s.Delete(ctx, id, "u1"); core.ErrCode(err) != core.CodeInvalidInput {
		t.Fatalf("double delete err = %v, want %s", err, core.CodeInvalidInput)
	}
}

func TestEmptyUserIDRejected(t *testing.T) {
	s := newStore()
	_, err := s.Create(context.Background(), "", "orphan fact")
	if core.ErrCode(err) != core.CodeInvalidInput {
		t.Fatalf("err = %v, want %s", err, core.CodeInvalidInput)
	}
}

func TestSearchFindsExactContent(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	if _, err := s.Create(ctx, "u1", "I live in Oslo"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, "u1", "My cat is called Miso"); err != nil {
		t.Fatal(err)
	}

	// The mock embedder maps equal texts to equal vectors, so an exact
	// query must rank its record first.
	results, err := s.Search(ctx, "u1", "My cat is called Miso", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Content != "My cat is called Miso" {
		t.Errorf("top result = %q", results[0].Content)
	}

	// Limit larger than the collection is clamped, not an error.
	results, err = s.Search(ctx, "u1", "anything", 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("clamped search returned %d results", len(results))
	}

	// Unknown user searches come back empty.
	results, err = s.Search(ctx, "nobody", "anything", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("unknown user returned %d results", len(results))
	}
}
