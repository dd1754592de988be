// Package rag implements document retrieval for the agents: ingestion of
// plant documentation into SQLite, background embedding, and hybrid
// lexical+vector search exposed as a tool backend.
package rag

// Collection names. Manufacturing docs hold SOPs and equipment manuals;
// maintenance logs hold historical repair records.
const (
	CollectionDocs        = "manufacturing_docs"
	CollectionMaintenance = "maintenance_logs"
)

// Topic published on the event bus after a document's chunks are stored.
const TopicChunksStored = "rag.chunks_stored"

// Document is one ingested source file.
type Document struct {
	ID         string
	Collection string
	Path       string
	Title      string
	SHA256     string
}

// Chunk is one retrievable slice of a document.
type Chunk struct {
	ID         string
	DocumentID string
	Seq        int
	Content    string
}

// SearchResult is one ranked hit returned by the searcher.
type SearchResult struct {
	ChunkID    string  `json:"chunk_id"`
	Collection string  `json:"collection"`
	Path       string  `json:"path"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// ChunksStored is the event payload for TopicChunksStored.
type ChunksStored struct {
	DocumentID string
	Collection string
	ChunkIDs   []string
}
