package rag

import (
	"context"
	"log/slog"
	"time"

	"github.com/matiasleandrokruk/mfgops/internal/infra/eventbus"
	"github.com/matiasleandrokruk/mfgops/internal/infra/llm"
)

const (
	embedBatchSize  = 32
	embedMaxRetries = 3
	embedBackoff    = 2 * time.Second
)

// Embedder is the background worker that turns stored chunks into vectors.
// It wakes on TopicChunksStored events and drains the pending-chunk queue,
// so a restart picks up whatever an earlier run left unembedded.
type Embedder struct {
	store    *Store
	provider llm.LLMProvider
	logger   *slog.Logger

	// Overridable in tests.
	backoff time.Duration
}

// NewEmbedder builds the worker. A nil logger falls back to slog.Default.
func NewEmbedder(store *Store, provider llm.LLMProvider, logger *slog.Logger) *Embedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{store: store, provider: provider, logger: logger, backoff: embedBackoff}
}

// Run consumes bus events until ctx is cancelled. An initial drain catches
// chunks stored before the worker started.
func (e *Embedder) Run(ctx context.Context, bus eventbus.EventBus) {
	events := bus.Subscribe(TopicChunksStored)

	if err := e.Drain(ctx); err != nil {
		e.logger.Warn("initial embedding drain failed", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-events:
			if err := e.Drain(ctx); err != nil {
				e.logger.Warn("embedding drain failed", "error", err)
			}
		}
	}
}

// Drain embeds pending chunks in batches until none remain.
func (e *Embedder) Drain(ctx context.Context) error {
	for {
		pending, err := e.store.PendingChunks(ctx, embedBatchSize)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}
		if err := e.embedBatch(ctx, pending); err != nil {
			return err
		}
	}
}

// embedBatch embeds one batch with bounded retries; transient provider
// failures back off before the next attempt.
func (e *Embedder) embedBatch(ctx context.Context, chunks []Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	var resp *llm.EmbedResponse
	var err error
	for attempt := 1; attempt <= embedMaxRetries; attempt++ {
		resp, err = e.provider.Embed(ctx, llm.EmbedRequest{Texts: texts})
		if err == nil {
			break
		}
		e.logger.Warn("embed attempt failed",
			"attempt", attempt, "chunks", len(chunks), "error", err)
		if attempt == embedMaxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.backoff * time.Duration(attempt)):
		}
	}

	model := e.provider.ModelInfo().ID
	for i, c := range chunks {
		if i >= len(resp.Embeddings) {
			break
		}
		if err := e.store.SaveEmbedding(ctx, c.ID, model, resp.Embeddings[i]); err != nil {
			return err
		}
	}
	e.logger.Debug("embedded chunk batch", "count", len(chunks), "model", model)
	return nil
}
