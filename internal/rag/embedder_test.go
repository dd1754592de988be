package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matiasleandrokruk/mfgops/internal/infra/llm"
)

// fakeProvider embeds texts deterministically: one dimension per keyword,
// counting occurrences. failures>0 makes the next N Embed calls fail.
type fakeProvider struct {
	keywords []string
	failures int
	calls    int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{keywords: []string{"hydraulic", "conveyor", "spindle", "press"}}
}

func (p *fakeProvider) Embed(_ context.Context, req llm.EmbedRequest) (*llm.EmbedResponse, error) {
	p.calls++
	if p.failures > 0 {
		p.failures--
		return nil, errors.New("embedding backend unavailable")
	}
	out := make([][]float32, len(req.Texts))
	for i, text := range req.Texts {
		vec := make([]float32, len(p.keywords))
		lower := strings.ToLower(text)
		for d, kw := range p.keywords {
			vec[d] = float32(strings.Count(lower, kw))
		}
		out[i] = vec
	}
	return &llm.EmbedResponse{Embeddings: out}, nil
}

func (p *fakeProvider) ChatCompletion(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
	return nil, errors.New("chat not supported by fake provider")
}

func (p *fakeProvider) ModelInfo() llm.ModelMeta {
	return llm.ModelMeta{ID: "fake-embed", Provider: "test"}
}

func (p *fakeProvider) HealthCheck(context.Context) error { return nil }

func TestEmbedderDrain(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedDocument(t, store, "doc-1", CollectionDocs, "a.md", "hydraulic press", "conveyor belt")
	seedDocument(t, store, "doc-2", CollectionMaintenance, "maintenance/b.md", "spindle bearing")

	emb := NewEmbedder(store, newFakeProvider(), nil)
	if err := emb.Drain(context.Background()); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	pending, err := store.PendingChunks(context.Background(), 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("PendingChunks() = %d after drain, want 0", len(pending))
	}
	embedded, err := store.embeddedChunks(context.Background(), CollectionDocs)
	if err != nil {
		t.Fatal(err)
	}
	if len(embedded) != 2 {
		t.Errorf("embeddedChunks(docs) = %d, want 2", len(embedded))
	}
}

func TestEmbedderRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedDocument(t, store, "doc-1", CollectionDocs, "a.md", "hydraulic press")

	provider := newFakeProvider()
	provider.failures = 2 // third attempt succeeds
	emb := NewEmbedder(store, provider, nil)
	emb.backoff = time.Millisecond

	if err := emb.Drain(context.Background()); err != nil {
		t.Fatalf("Drain() error = %v, want success after retries", err)
	}
	if provider.calls != 3 {
		t.Errorf("provider called %d times, want 3", provider.calls)
	}
}

func TestEmbedderGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	seedDocument(t, store, "doc-1", CollectionDocs, "a.md", "hydraulic press")

	provider := newFakeProvider()
	provider.failures = embedMaxRetries
	emb := NewEmbedder(store, provider, nil)
	emb.backoff = time.Millisecond

	if err := emb.Drain(context.Background()); err == nil {
		t.Fatal("Drain() succeeded, want error after exhausted retries")
	}
	pending, err := store.PendingChunks(context.Background(), 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Errorf("PendingChunks() = %d, chunk must stay pending for the next drain", len(pending))
	}
}
