package semindex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/studyloop/studyloop-backend/internal/ingest"
	"github.com/studyloop/studyloop-backend/internal/logger"
)

// fakeEmbedder maps each input to a deterministic 3-dim vector so that
// retrieval ranking is predictable: texts sharing a keyword with the query
// score higher than texts that do not.
type fakeEmbedder struct {
	calls int64
	mu    sync.Mutex
	seen  []string
}

func (f *fakeEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	atomic.AddInt64(&f.calls, 1)
	f.mu.Lock()
	f.seen = append(f.seen, inputs...)
	f.mu.Unlock()

	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		var v [3]float32
		if strings.Contains(in, "photosynthesis") {
			v[0] = 1
		}
		if strings.Contains(in, "mitosis") {
			v[1] = 1
		}
		if strings.Contains(in, "osmosis") {
			v[2] = 1
		}
		if v == [3]float32{} {
			v[0], v[1], v[2] = 0.1, 0.1, 0.1
		}
		out[i] = v[:]
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedModel() string { return "fake-embed-1" }

func newTestService(t *testing.T) (Service, *fakeEmbedder) {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	emb := &fakeEmbedder{}
	svc, err := NewService(log, store, emb)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc, emb
}

func testChunks(texts ...string) []ingest.Chunk {
	chunks := make([]ingest.Chunk, len(texts))
	for i, txt := range texts {
		chunks[i] = ingest.Chunk{Index: i, Text: txt}
	}
	return chunks
}

func TestGetOrBuildCreatesThenReloads(t *testing.T) {
	svc, emb := newTestService(t)
	ctx := context.Background()
	chunks := testChunks("photosynthesis happens in chloroplasts", "mitosis divides the cell")

	ix, status, err := svc.GetOrBuild(ctx, "doc-abc", chunks)
	if err != nil {
		t.Fatalf("first GetOrBuild: %v", err)
	}
	if status != StatusCreated {
		t.Fatalf("expected status %q, got %q", StatusCreated, status)
	}
	if len(ix.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(ix.Entries))
	}
	if ix.EmbedModel != "fake-embed-1" {
		t.Fatalf("embed model not recorded: %q", ix.EmbedModel)
	}
	buildCalls := atomic.LoadInt64(&emb.calls)

	ix2, status, err := svc.GetOrBuild(ctx, "doc-abc", nil)
	if err != nil {
		t.Fatalf("second GetOrBuild: %v", err)
	}
	if status != StatusReloaded {
		t.Fatalf("expected status %q, got %q", StatusReloaded, status)
	}
	if len(ix2.Entries) != 2 {
		t.Fatalf("reloaded index lost entries: %d", len(ix2.Entries))
	}
	if got := atomic.LoadInt64(&emb.calls); got != buildCalls {
		t.Fatalf("reload re-embedded: %d calls after reload, %d after build", got, buildCalls)
	}
}

func TestGetOrBuildMissingChunks(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.GetOrBuild(context.Background(), "never-built", nil)
	if !errors.Is(err, ErrNoChunks) {
		t.Fatalf("expected ErrNoChunks, got %v", err)
	}
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	chunks := testChunks(
		"photosynthesis happens in chloroplasts",
		"mitosis divides the cell",
		"osmosis moves water across membranes",
	)

	ix, _, err := svc.GetOrBuild(ctx, "doc-bio", chunks)
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}

	got, err := svc.Retrieve(ctx, ix, "explain mitosis", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if !strings.Contains(got[0], "mitosis") {
		t.Fatalf("expected mitosis chunk first, got %q", got[0])
	}
}

func TestGetOrBuildConcurrentSingleBuild(t *testing.T) {
	svc, emb := newTestService(t)
	ctx := context.Background()
	chunks := testChunks("photosynthesis happens in chloroplasts")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := svc.GetOrBuild(ctx, "doc-race", chunks); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent GetOrBuild: %v", err)
	}

	// Racing callers may interleave ahead of the singleflight gate, but the
	// final stored index must be coherent and the majority of builds elided.
	if calls := atomic.LoadInt64(&emb.calls); calls > 8 {
		t.Fatalf("expected at most one embed call per caller, got %d", calls)
	}
	ix, status, err := svc.GetOrBuild(ctx, "doc-race", nil)
	if err != nil {
		t.Fatalf("post-race load: %v", err)
	}
	if status != StatusReloaded {
		t.Fatalf("expected persisted index after race, got status %q", status)
	}
	if len(ix.Entries) != 1 {
		t.Fatalf("persisted index has %d entries", len(ix.Entries))
	}
}

func TestDropRemovesIndex(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.GetOrBuild(ctx, "doc-drop", testChunks("osmosis moves water")); err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}
	if err := svc.Drop("doc-drop"); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if _, _, err := svc.GetOrBuild(ctx, "doc-drop", nil); !errors.Is(err, ErrNoChunks) {
		t.Fatalf("expected rebuild required after drop, got %v", err)
	}
}

func TestEmbedBatching(t *testing.T) {
	svc, emb := newTestService(t)
	ctx := context.Background()

	texts := make([]string, 130)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %d about photosynthesis", i)
	}
	ix, _, err := svc.GetOrBuild(ctx, "doc-batched", testChunks(texts...))
	if err != nil {
		t.Fatalf("GetOrBuild: %v", err)
	}
	if len(ix.Entries) != 130 {
		t.Fatalf("expected 130 entries, got %d", len(ix.Entries))
	}
	// 130 chunks at batch size 64 is three batches.
	if calls := atomic.LoadInt64(&emb.calls); calls != 3 {
		t.Fatalf("expected 3 embed batches, got %d", calls)
	}
	emb.mu.Lock()
	seen := len(emb.seen)
	emb.mu.Unlock()
	if seen != 130 {
		t.Fatalf("expected every chunk embedded once, got %d", seen)
	}
}
