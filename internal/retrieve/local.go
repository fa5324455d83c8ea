package retrieve

import (
	"context"

	"github.com/ppiankov/anamnesis/internal/index"
	"github.com/ppiankov/anamnesis/internal/model"
	"github.com/ppiankov/anamnesis/internal/worker"
)

// LocalRetriever answers free-form questions: it derives section sub-queries
// from the question text and ranks each one against the snapshot.
type LocalRetriever struct {
	scorer    *Scorer
	embedder  index.Embedder
	topK      int
	useHybrid bool
	workers   int
}

// NewLocalRetriever builds a local retriever from configuration.
func NewLocalRetriever(cfg model.RetrievalConfig, section model.SectionConfig, embedder index.Embedder, workers int) *LocalRetriever {
	return &LocalRetriever{
		scorer:    NewScorer(cfg, section),
		embedder:  embedder,
		topK:      cfg.TopKLocal,
		useHybrid: cfg.UseHybrid,
		workers:   workers,
	}
}

// Run derives sub-queries from the question and executes them in parallel.
// With hybrid scoring disabled the ranking is pure lexical and matches a
// direct lexical index query. The derived sub-query strings are kept on the
// result verbatim for audit.
func (l *LocalRetriever) Run(ctx context.Context, snap *index.Snapshot, question string) (model.LocalRunResult, error) {
	result := model.LocalRunResult{
		Question:   question,
		UsedHybrid: l.useHybrid && l.embedder != nil,
	}

	derived := deriveSubQueries(question)
	if snap == nil {
		result.SubQueries = derived
		return result, nil
	}

	jobs := make([]func(ctx context.Context) (model.RetrievalResult, error), len(derived))
	for i, sq := range derived {
		sub := sq
		jobs[i] = func(ctx context.Context) (model.RetrievalResult, error) {
			var vec []float32
			if result.UsedHybrid {
				if v, err := l.embedder.EmbedText(ctx, sub.Query); err == nil {
					vec = v
				}
			}
			sub.Hits = l.scorer.Rank(snap, sub.Query, vec, sub.Section, nil, l.topK)
			return sub, nil
		}
	}

	subQueries, err := worker.RunOrdered(ctx, l.workers, jobs)
	if err != nil {
		return result, err
	}
	result.SubQueries = subQueries
	return result, nil
}
