package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/matiasleandrokruk/mfgops/internal/infra/eventbus"
	"github.com/matiasleandrokruk/mfgops/pkg/uuid"
)

// Ingestor walks a documentation directory and loads .md and .txt files into
// the store. Files whose content hash is unchanged are skipped. After each
// stored document it publishes TopicChunksStored so the embedding worker can
// pick the new chunks up.
type Ingestor struct {
	store        *Store
	bus          eventbus.EventBus
	chunkSize    int
	chunkOverlap int
}

// NewIngestor builds an ingestor. Non-positive chunk parameters fall back to
// the package defaults.
func NewIngestor(store *Store, bus eventbus.EventBus, chunkSize, chunkOverlap int) *Ingestor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Ingestor{store: store, bus: bus, chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// IngestStats summarizes one ingestion pass.
type IngestStats struct {
	Ingested int `json:"ingested"`
	Skipped  int `json:"skipped"`
	Chunks   int `json:"chunks"`
}

// IngestDir ingests every .md and .txt file under root. Paths containing a
// "maintenance" segment land in the maintenance-logs collection, everything
// else in manufacturing docs.
func (in *Ingestor) IngestDir(ctx context.Context, root string) (IngestStats, error) {
	var stats IngestStats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !isDocFile(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		ingested, chunks, err := in.ingestFile(ctx, path, rel)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", rel, err)
		}
		if ingested {
			stats.Ingested++
			stats.Chunks += chunks
		} else {
			stats.Skipped++
		}
		return nil
	})
	if err != nil {
		return IngestStats{}, err
	}
	return stats, nil
}

// ingestFile loads one file; reports whether it was (re)ingested and how many
// chunks were stored.
func (in *Ingestor) ingestFile(ctx context.Context, path, rel string) (bool, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, 0, err
	}

	collection := collectionFor(rel)
	sum := sha256.Sum256(raw)
	sha := hex.EncodeToString(sum[:])

	existing, err := in.store.DocumentSHA(ctx, collection, rel)
	if err != nil {
		return false, 0, err
	}
	if existing == sha {
		return false, 0, nil
	}

	doc := Document{
		ID:         uuid.NewV7().String(),
		Collection: collection,
		Path:       rel,
		Title:      titleFor(rel, string(raw)),
		SHA256:     sha,
	}
	pieces := SplitText(string(raw), in.chunkSize, in.chunkOverlap)
	chunks := make([]Chunk, len(pieces))
	chunkIDs := make([]string, len(pieces))
	for i, content := range pieces {
		id := uuid.NewV7().String()
		chunks[i] = Chunk{ID: id, DocumentID: doc.ID, Seq: i, Content: content}
		chunkIDs[i] = id
	}

	if err := in.store.ReplaceDocument(ctx, doc, chunks); err != nil {
		return false, 0, err
	}
	if in.bus != nil {
		in.bus.Publish(TopicChunksStored, ChunksStored{
			DocumentID: doc.ID,
			Collection: collection,
			ChunkIDs:   chunkIDs,
		})
	}
	return true, len(chunks), nil
}

func isDocFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt":
		return true
	}
	return false
}

// collectionFor routes a relative path to its collection.
func collectionFor(rel string) string {
	lower := strings.ToLower(filepath.ToSlash(rel))
	for _, seg := range strings.Split(lower, "/") {
		if strings.Contains(seg, "maintenance") {
			return CollectionMaintenance
		}
	}
	return CollectionDocs
}

// titleFor prefers the first markdown heading, falling back to the filename.
func titleFor(rel, content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
		if line != "" {
			break
		}
	}
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
