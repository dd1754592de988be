package rag

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matiasleandrokruk/mfgops/internal/infra/eventbus"
)

func writeDocTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"sop/press-startup.md":   "# Press Startup\n\nBleed the hydraulic line before engaging the ram.",
		"manuals/conveyor.txt":   "Conveyor belt tensioning procedure and motor specs.",
		"maintenance/2024-06.md": "# June Log\n\nReplaced bearing on CNC-Machine-2 spindle.",
		"maintenance/notes.json": `{"ignored": true}`,
		"sop/ignore.pdf":         "binary-ish",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestIngestDir(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	bus := eventbus.New()
	events := bus.Subscribe(TopicChunksStored)
	ing := NewIngestor(store, bus, 512, 50)
	ctx := context.Background()

	stats, err := ing.IngestDir(ctx, writeDocTree(t))
	if err != nil {
		t.Fatalf("IngestDir() error = %v", err)
	}
	if stats.Ingested != 3 {
		t.Errorf("Ingested = %d, want 3 (.json and .pdf skipped entirely)", stats.Ingested)
	}
	if stats.Chunks == 0 {
		t.Error("Chunks = 0, want > 0")
	}

	docs, err := store.CountDocuments(ctx, CollectionDocs)
	if err != nil {
		t.Fatal(err)
	}
	maint, err := store.CountDocuments(ctx, CollectionMaintenance)
	if err != nil {
		t.Fatal(err)
	}
	if docs != 2 || maint != 1 {
		t.Errorf("documents = %d docs / %d maintenance, want 2 / 1", docs, maint)
	}

	// One event per ingested document.
	for i := 0; i < 3; i++ {
		select {
		case evt := <-events:
			payload, ok := evt.Payload.(ChunksStored)
			if !ok {
				t.Fatalf("event payload = %T, want ChunksStored", evt.Payload)
			}
			if payload.DocumentID == "" || len(payload.ChunkIDs) == 0 {
				t.Errorf("event payload incomplete: %+v", payload)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event %d of 3", i+1)
		}
	}
}

func TestIngestDir_SkipsUnchanged(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ing := NewIngestor(store, eventbus.New(), 512, 50)
	root := writeDocTree(t)
	ctx := context.Background()

	if _, err := ing.IngestDir(ctx, root); err != nil {
		t.Fatalf("first IngestDir() error = %v", err)
	}
	stats, err := ing.IngestDir(ctx, root)
	if err != nil {
		t.Fatalf("second IngestDir() error = %v", err)
	}
	if stats.Ingested != 0 || stats.Skipped != 3 {
		t.Errorf("second pass = %+v, want 0 ingested / 3 skipped", stats)
	}

	// Touching one file re-ingests only that file.
	path := filepath.Join(root, "sop", "press-startup.md")
	if err := os.WriteFile(path, []byte("# Press Startup\n\nRevised procedure."), 0o600); err != nil {
		t.Fatal(err)
	}
	stats, err = ing.IngestDir(ctx, root)
	if err != nil {
		t.Fatalf("third IngestDir() error = %v", err)
	}
	if stats.Ingested != 1 || stats.Skipped != 2 {
		t.Errorf("third pass = %+v, want 1 ingested / 2 skipped", stats)
	}
}

func TestCollectionFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"maintenance/2024.md", CollectionMaintenance},
		{"logs/Maintenance-Records/jan.txt", CollectionMaintenance},
		{"sop/startup.md", CollectionDocs},
		{"manual.txt", CollectionDocs},
	}
	for _, tc := range tests {
		if got := collectionFor(tc.path); got != tc.want {
			t.Errorf("collectionFor(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestTitleFor(t *testing.T) {
	t.Parallel()

	if got := titleFor("a/b.md", "# Press Startup\n\nbody"); got != "Press Startup" {
		t.Errorf("titleFor(heading) = %q", got)
	}
	if got := titleFor("a/conveyor-manual.txt", "plain first line\nmore"); got != "conveyor-manual" {
		t.Errorf("titleFor(no heading) = %q", got)
	}
}
