package rag

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/matiasleandrokruk/mfgops/internal/infra/llm"
)

const (
	// rrfK is the reciprocal-rank-fusion constant; 60 is the standard value
	// from the original RRF paper.
	rrfK = 60

	// candidateFactor widens both candidate lists before fusion.
	candidateFactor = 3

	DefaultSearchLimit = 5
)

// Searcher runs hybrid retrieval: BM25 full-text and cosine-similarity
// vector search fused with reciprocal rank fusion. When the embedding
// provider is unavailable the vector leg is skipped and results are
// lexical-only rather than failing the search.
type Searcher struct {
	store    *Store
	provider llm.LLMProvider
	logger   *slog.Logger
}

// NewSearcher builds a searcher. provider may be nil for lexical-only use.
func NewSearcher(store *Store, provider llm.LLMProvider, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{store: store, provider: provider, logger: logger}
}

// Search returns the top limit hits for query within a collection.
func (s *Searcher) Search(ctx context.Context, collection, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	candidates := limit * candidateFactor

	lexical, err := s.store.SearchLexical(ctx, collection, query, candidates)
	if err != nil {
		return nil, err
	}

	vector := s.vectorLeg(ctx, collection, query, candidates)
	if vector == nil {
		// Lexical-only degradation.
		if len(lexical) > limit {
			lexical = lexical[:limit]
		}
		return lexical, nil
	}

	fused := fuseRRF(lexical, vector)
	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused, nil
}

// vectorLeg ranks embedded chunks by cosine similarity to the query
// embedding. Any failure returns nil so the caller degrades to lexical.
func (s *Searcher) vectorLeg(ctx context.Context, collection, query string, limit int) []SearchResult {
	if s.provider == nil {
		return nil
	}
	resp, err := s.provider.Embed(ctx, llm.EmbedRequest{Texts: []string{query}})
	if err != nil || len(resp.Embeddings) == 0 {
		s.logger.Warn("query embedding unavailable, lexical-only search", "error", err)
		return nil
	}
	queryVec := resp.Embeddings[0]

	embedded, err := s.store.embeddedChunks(ctx, collection)
	if err != nil {
		s.logger.Warn("embedded chunk scan failed, lexical-only search", "error", err)
		return nil
	}
	if len(embedded) == 0 {
		return nil
	}

	type scored struct {
		result SearchResult
		sim    float64
	}
	hits := make([]scored, 0, len(embedded))
	for _, ec := range embedded {
		hits = append(hits, scored{result: ec.result, sim: cosine(queryVec, ec.vector)})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].sim > hits[j].sim })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]SearchResult, len(hits))
	for i, h := range hits {
		out[i] = h.result
	}
	return out
}

// fuseRRF merges two ranked lists with reciprocal rank fusion, re-scoring
// every hit by the sum of 1/(rrfK+rank) over the lists it appears in.
func fuseRRF(lists ...[]SearchResult) []SearchResult {
	scores := make(map[string]float64)
	byID := make(map[string]SearchResult)
	for _, list := range lists {
		for rank, r := range list {
			scores[r.ChunkID] += 1.0 / float64(rrfK+rank+1)
			if _, seen := byID[r.ChunkID]; !seen {
				byID[r.ChunkID] = r
			}
		}
	}

	out := make([]SearchResult, 0, len(byID))
	for id, r := range byID {
		r.Score = scores[id]
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out
}

// cosine computes cosine similarity; mismatched lengths score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
