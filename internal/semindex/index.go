package semindex

import (
	"math"
	"sort"
	"time"

	"github.com/studyloop/studyloop-backend/internal/ingest"
)

// Entry pairs a chunk with its embedding vector.
type Entry struct {
	Chunk  ingest.Chunk `json:"chunk"`
	Vector []float32    `json:"vector"`
}

// Index is the persisted semantic index for one document fingerprint.
type Index struct {
	Key        string    `json:"key"`
	EmbedModel string    `json:"embed_model"`
	Entries    []Entry   `json:"entries"`
	CreatedAt  time.Time `json:"created_at"`
}

// TopK returns up to k chunks ranked by cosine similarity to q.
func (ix *Index) TopK(q []float32, k int) []ingest.Chunk {
	if ix == nil || k <= 0 {
		return []ingest.Chunk{}
	}
	type scored struct {
		entry Entry
		score float64
	}
	arr := make([]scored, 0, len(ix.Entries))
	for _, e := range ix.Entries {
		arr = append(arr, scored{entry: e, score: cosine(e.Vector, q)})
	}
	sort.SliceStable(arr, func(i, j int) bool { return arr[i].score > arr[j].score })
	if k > len(arr) {
		k = len(arr)
	}
	out := make([]ingest.Chunk, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, arr[i].entry.Chunk)
	}
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return -1
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
