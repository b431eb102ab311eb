package semindex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/studyloop/studyloop-backend/internal/ingest"
	"github.com/studyloop/studyloop-backend/internal/logger"
)

// ErrNoChunks is returned when an index key has no persisted index and the
// caller supplied no chunks to build one from.
var ErrNoChunks = errors.New("no chunks provided to build semantic index")

type Status string

const (
	StatusCreated  Status = "created"
	StatusReloaded Status = "reloaded"
)

// Embedder is the slice of the generation backend the index needs.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	EmbedModel() string
}

type Service interface {
	// GetOrBuild loads the persisted index for key, or builds and persists a
	// new one from chunks. Byte-identical uploads share a fingerprint and so
	// always reload instead of rebuilding.
	GetOrBuild(ctx context.Context, key string, chunks []ingest.Chunk) (*Index, Status, error)
	// Retrieve returns the text of the top-k chunks most similar to query.
	Retrieve(ctx context.Context, ix *Index, query string, k int) ([]string, error)
	// Drop removes the persisted index for key, if any.
	Drop(key string) error
}

type service struct {
	log      *logger.Logger
	store    Store
	embedder Embedder

	// Collapses concurrent first-uploads of the same content into one build.
	build singleflight.Group

	embedBatchSize int
}

func NewService(log *logger.Logger, store Store, embedder Embedder) (Service, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	return &service{
		log:            log.With("service", "SemanticIndexService"),
		store:          store,
		embedder:       embedder,
		embedBatchSize: 64,
	}, nil
}

func (s *service) GetOrBuild(ctx context.Context, key string, chunks []ingest.Chunk) (*Index, Status, error) {
	if ix, err := s.store.Load(key); err == nil {
		s.log.Debug("Semantic index cache hit", "key", key, "entries", len(ix.Entries))
		return ix, StatusReloaded, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}

	if len(chunks) == 0 {
		return nil, "", fmt.Errorf("%w: key %s", ErrNoChunks, key)
	}

	v, err, _ := s.build.Do(key, func() (any, error) {
		// A racing caller may have finished the build while we queued.
		if ix, err := s.store.Load(key); err == nil {
			return ix, nil
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return s.buildAndPersist(ctx, key, chunks)
	})
	if err != nil {
		return nil, "", err
	}
	ix := v.(*Index)

	s.log.Info("Semantic index built", "key", key, "entries", len(ix.Entries))
	return ix, StatusCreated, nil
}

func (s *service) buildAndPersist(ctx context.Context, key string, chunks []ingest.Chunk) (*Index, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(chunks); start += s.embedBatchSize {
		end := start + s.embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		start, end := start, end
		g.Go(func() error {
			inputs := make([]string, end-start)
			for i := start; i < end; i++ {
				inputs[i-start] = chunks[i].Text
			}
			vecs, err := s.embedder.Embed(gctx, inputs)
			if err != nil {
				return fmt.Errorf("embed chunks [%d:%d]: %w", start, end, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("embed chunks [%d:%d]: got %d vectors", start, end, len(vecs))
			}
			copy(vectors[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ix := &Index{
		Key:        key,
		EmbedModel: s.embedder.EmbedModel(),
		Entries:    make([]Entry, len(chunks)),
		CreatedAt:  time.Now().UTC(),
	}
	for i := range chunks {
		ix.Entries[i] = Entry{Chunk: chunks[i], Vector: vectors[i]}
	}

	if err := s.store.Save(key, ix); err != nil {
		return nil, err
	}
	return ix, nil
}

func (s *service) Retrieve(ctx context.Context, ix *Index, query string, k int) ([]string, error) {
	if ix == nil {
		return nil, fmt.Errorf("nil index")
	}
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vecs))
	}
	top := ix.TopK(vecs[0], k)
	out := make([]string, 0, len(top))
	for _, ch := range top {
		out = append(out, ch.Text)
	}
	return out, nil
}

func (s *service) Drop(key string) error {
	return s.store.Delete(key)
}
