package rag

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
)

// Store persists documents, chunks, and embeddings in SQLite. It assumes the
// schema created by the sqlite package's migrations.
type Store struct {
	db *sql.DB
}

// NewStore wraps a migrated database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DocumentSHA returns the stored content hash for a (collection, path), or
// empty string when the document has never been ingested.
func (s *Store) DocumentSHA(ctx context.Context, collection, path string) (string, error) {
	var sha string
	err := s.db.QueryRowContext(ctx,
		"SELECT sha256 FROM documents WHERE collection = ? AND path = ?",
		collection, path,
	).Scan(&sha)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("rag: query document sha: %w", err)
	}
	return sha, nil
}

// ReplaceDocument upserts a document and replaces its chunks in one
// transaction. Existing chunks (and their embeddings, via FK cascade) are
// removed first.
func (s *Store) ReplaceDocument(ctx context.Context, doc Document, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rag: begin replace: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Drop any previous version of this document.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND path = ?",
		doc.Collection, doc.Path,
	); err != nil {
		return fmt.Errorf("rag: delete previous document: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO documents (id, collection, path, title, sha256) VALUES (?, ?, ?, ?, ?)",
		doc.ID, doc.Collection, doc.Path, doc.Title, doc.SHA256,
	); err != nil {
		return fmt.Errorf("rag: insert document: %w", err)
	}

	for _, c := range chunks {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (id, document_id, seq, content) VALUES (?, ?, ?, ?)",
			c.ID, c.DocumentID, c.Seq, c.Content,
		); err != nil {
			return fmt.Errorf("rag: insert chunk %d: %w", c.Seq, err)
		}
	}

	return tx.Commit()
}

// PendingChunks returns up to limit chunks that have no embedding yet.
func (s *Store) PendingChunks(ctx context.Context, limit int) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, c.seq, c.content
		FROM chunks c
		LEFT JOIN embeddings e ON e.chunk_id = c.id
		WHERE e.chunk_id IS NULL
		ORDER BY c.document_id, c.seq
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("rag: query pending chunks: %w", err)
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Seq, &c.Content); err != nil {
			return nil, fmt.Errorf("rag: scan pending chunk: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveEmbedding stores (or replaces) the embedding of one chunk.
func (s *Store) SaveEmbedding(ctx context.Context, chunkID, model string, vector []float32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO embeddings (chunk_id, model, dims, vector) VALUES (?, ?, ?, ?)",
		chunkID, model, len(vector), encodeVector(vector),
	)
	if err != nil {
		return fmt.Errorf("rag: save embedding for %s: %w", chunkID, err)
	}
	return nil
}

// lexicalHit is one BM25-ranked full-text match.
type lexicalHit struct {
	result SearchResult
	rank   int
}

// SearchLexical runs an FTS5 match scoped to a collection, best-first.
func (s *Store) SearchLexical(ctx context.Context, collection, query string, limit int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, d.collection, d.path, d.title, c.content
		FROM chunks_fts f
		JOIN chunks c ON c.rowid = f.rowid
		JOIN documents d ON d.id = c.document_id
		WHERE chunks_fts MATCH ? AND d.collection = ?
		ORDER BY bm25(chunks_fts)
		LIMIT ?`, ftsQuery(query), collection, limit)
	if err != nil {
		return nil, fmt.Errorf("rag: lexical search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ChunkID, &r.Collection, &r.Path, &r.Title, &r.Content); err != nil {
			return nil, fmt.Errorf("rag: scan lexical hit: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// embeddedChunk pairs a chunk with its stored vector for similarity scans.
type embeddedChunk struct {
	result SearchResult
	vector []float32
}

// embeddedChunks loads every embedded chunk of a collection. The corpus is
// plant documentation, small enough for a full scan.
func (s *Store) embeddedChunks(ctx context.Context, collection string) ([]embeddedChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, d.collection, d.path, d.title, c.content, e.vector
		FROM embeddings e
		JOIN chunks c ON c.id = e.chunk_id
		JOIN documents d ON d.id = c.document_id
		WHERE d.collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("rag: load embeddings: %w", err)
	}
	defer rows.Close()

	var out []embeddedChunk
	for rows.Next() {
		var ec embeddedChunk
		var blob []byte
		if err := rows.Scan(&ec.result.ChunkID, &ec.result.Collection, &ec.result.Path,
			&ec.result.Title, &ec.result.Content, &blob); err != nil {
			return nil, fmt.Errorf("rag: scan embedded chunk: %w", err)
		}
		ec.vector = decodeVector(blob)
		out = append(out, ec)
	}
	return out, rows.Err()
}

// CountDocuments returns the number of documents in a collection.
func (s *Store) CountDocuments(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE collection = ?", collection,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("rag: count documents: %w", err)
	}
	return n, nil
}

// ftsQuery quotes each search term so user input cannot inject FTS5 operators.
func ftsQuery(query string) string {
	terms := splitWords(query)
	out := ""
	for i, t := range terms {
		if i > 0 {
			out += " "
		}
		out += `"` + t + `"`
	}
	return out
}

// encodeVector packs float32s into a little-endian blob.
func encodeVector(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// decodeVector unpacks a little-endian float32 blob. Trailing bytes that do
// not form a full float32 are ignored.
func decodeVector(b []byte) []float32 {
	out := make([]float32, 0, len(b)/4)
	for i := 0; i+4 <= len(b); i += 4 {
		out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(b[i:])))
	}
	return out
}
