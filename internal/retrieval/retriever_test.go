package retrieval

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/smartheat/heatbot/internal/corpus"
)

func TestRetriever_LazyLoadsOnce(t *testing.T) {
	idx := buildTestIndex(t, 4, "one", "two", "three")
	dir := t.TempDir()
	if err := idx.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r := NewRetriever(dir, &fakeProvider{dims: 4})

	var wg sync.WaitGroup
	loaded := make([]*Index, 8)
	for i := range loaded {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := r.Index()
			if err != nil {
				t.Errorf("Index: %v", err)
				return
			}
			loaded[i] = got
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(loaded); i++ {
		if loaded[i] != loaded[0] {
			t.Fatal("concurrent callers got different index instances")
		}
	}
}

func TestRetriever_FailedLoadRetries(t *testing.T) {
	dir := t.TempDir()
	r := NewRetriever(dir, &fakeProvider{dims: 4})

	if _, err := r.Retrieve(context.Background(), "anything", 1); !errors.Is(err, ErrIndexNotFound) {
		t.Fatalf("Retrieve before ingest: %v, want ErrIndexNotFound", err)
	}

	// Ingest after the failed attempt; the retriever must pick it up
	// without being recreated.
	idx := buildTestIndex(t, 4, "one")
	if err := idx.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	results, err := r.Retrieve(context.Background(), "anything", 1)
	if err != nil {
		t.Fatalf("Retrieve after ingest: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestRetriever_RoundTrip(t *testing.T) {
	const text = "The thermostat resets after 10 seconds of no input."
	docs := []corpus.Document{{Source: "a.txt", Text: text}}

	provider := &fakeProvider{dims: 8}
	builder := NewBuilder(mustSplitter(t, 100, 10), provider)
	idx, stats, err := builder.Build(context.Background(), docs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if stats.Chunks != 1 {
		t.Fatalf("chunks = %d, want 1", stats.Chunks)
	}

	dir := t.TempDir()
	if err := idx.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r := NewRetriever(dir, provider)
	results, err := r.Retrieve(context.Background(), text, 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Source != "a.txt" {
		t.Errorf("source = %q, want a.txt", results[0].Source)
	}
	if results[0].Text != text {
		t.Errorf("text = %q, want original chunk text", results[0].Text)
	}
	// Query identical to the stored chunk scores as an exact match.
	if math.Abs(float64(results[0].Score)-1) > 1e-4 {
		t.Errorf("score = %v, want ~1", results[0].Score)
	}
}

func TestRetriever_EmbedErrorKeepsIndexCached(t *testing.T) {
	idx := buildTestIndex(t, 4, "one", "two")
	dir := t.TempDir()
	if err := idx.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	provider := &fakeProvider{dims: 4}
	r := NewRetriever(dir, provider)
	if _, err := r.Index(); err != nil {
		t.Fatalf("Index: %v", err)
	}

	provider.err = errors.New("backend down")
	if _, err := r.Retrieve(context.Background(), "query", 1); err == nil {
		t.Fatal("Retrieve with failing backend succeeded, want error")
	}

	provider.err = nil
	results, err := r.Retrieve(context.Background(), "query", 1)
	if err != nil {
		t.Fatalf("Retrieve after recovery: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}

func TestRetriever_EmptyIndex(t *testing.T) {
	idx := buildTestIndex(t, 4)
	dir := t.TempDir()
	if err := idx.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r := NewRetriever(dir, &fakeProvider{dims: 4})
	results, err := r.Retrieve(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results from empty index, want 0", len(results))
	}
}
