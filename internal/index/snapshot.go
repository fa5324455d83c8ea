package index

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/ppiankov/anamnesis/internal/cache"
	"github.com/ppiankov/anamnesis/internal/store"
)

const embedBatchSize = 64

// Snapshot pairs the two indices built from one evidence store state.
// A snapshot is immutable after build and shared by all readers.
type Snapshot struct {
	Store   *store.Store
	Lexical *LexicalIndex
	Vector  *VectorIndex
}

// Provider publishes index snapshots via atomic swap. Readers always see a
// consistent snapshot; only rebuild replaces the reference.
type Provider struct {
	current atomic.Pointer[Snapshot]
}

// Current returns the published snapshot, or nil before the first build.
// Retrievers treat nil as an empty index: empty results, not an error.
func (p *Provider) Current() *Snapshot {
	return p.current.Load()
}

// Publish atomically swaps in a new snapshot. In-flight queries keep the
// snapshot they already hold.
func (p *Provider) Publish(s *Snapshot) {
	p.current.Store(s)
}

// BuilderOptions configures a snapshot build.
type BuilderOptions struct {
	Embedder   Embedder    // nil disables the vector index (lexical-only snapshot)
	EmbedModel string      // Cache key component
	Cache      cache.Cache // nil disables embedding reuse
	Workers    int         // Concurrent embedding batches, min 1
}

// Build constructs a full snapshot from the store in isolation. The whole
// corpus is indexed, reference material included: scope policy belongs to the
// scorer, which excludes reference evidence from patient-fact rankings and
// penalizes it elsewhere. Embeddings are computed once per unit and cached;
// cache hits skip the embedding service entirely.
func Build(ctx context.Context, st *store.Store, opts BuilderOptions) (*Snapshot, error) {
	units := st.All()

	snap := &Snapshot{
		Store:   st,
		Lexical: BuildLexical(units),
	}

	if opts.Embedder == nil {
		snap.Vector = BuildVector(units, nil)
		return snap, nil
	}

	embeddings := make(map[string][]float32, len(units))
	var pending []int // Indices into units that missed the cache

	for i, u := range units {
		if opts.Cache != nil {
			key := cache.EmbeddingKey(opts.EmbedModel, u.EvidenceID, u.RawText)
			if data, ok := opts.Cache.Get(key); ok {
				if vec := cache.DecodeVector(data); vec != nil {
					embeddings[u.EvidenceID] = vec
					continue
				}
			}
		}
		pending = append(pending, i)
	}

	if len(pending) > 0 {
		workers := opts.Workers
		if workers < 1 {
			workers = 1
		}
		pool, err := ants.NewPool(workers)
		if err != nil {
			return nil, fmt.Errorf("embedding pool: %w", err)
		}
		defer pool.Release()

		var (
			mu       sync.Mutex
			wg       sync.WaitGroup
			firstErr error
		)

		for start := 0; start < len(pending); start += embedBatchSize {
			end := min(start+embedBatchSize, len(pending))
			batch := pending[start:end]

			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()

				texts := make([]string, len(batch))
				for j, idx := range batch {
					texts[j] = units[idx].RawText
				}

				vecs, err := opts.Embedder.EmbedTexts(ctx, texts)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					return
				}
				for j, idx := range batch {
					u := units[idx]
					embeddings[u.EvidenceID] = vecs[j]
					if opts.Cache != nil {
						key := cache.EmbeddingKey(opts.EmbedModel, u.EvidenceID, u.RawText)
						_ = opts.Cache.Set(key, cache.EncodeVector(vecs[j]), 0)
					}
				}
			})
			if submitErr != nil {
				wg.Done()
				return nil, fmt.Errorf("submit embedding batch: %w", submitErr)
			}
		}

		wg.Wait()
		if firstErr != nil {
			return nil, fmt.Errorf("embed evidence: %w", firstErr)
		}
	}

	snap.Vector = BuildVector(units, embeddings)
	return snap, nil
}
