package retrieve

import (
	"context"

	"github.com/ppiankov/anamnesis/internal/index"
	"github.com/ppiankov/anamnesis/internal/model"
	"github.com/ppiankov/anamnesis/internal/worker"
)

// GlobalRetriever runs the fixed SOAP template queries against a snapshot.
// Its output depends only on the template set and the evidence set, never on
// a user question, so the global context is identical across runs.
type GlobalRetriever struct {
	scorer   *Scorer
	embedder index.Embedder // nil degrades all queries to lexical-only
	queries  model.SoapQuerySet
	topK     int
	workers  int
}

// NewGlobalRetriever builds a global retriever from configuration. The
// configured template version selects the query set; an unknown version is an
// error rather than a silent default.
func NewGlobalRetriever(cfg model.RetrievalConfig, section model.SectionConfig, embedder index.Embedder, workers int) (*GlobalRetriever, error) {
	queries, err := model.SoapQuerySetForVersion(cfg.TemplateVersion)
	if err != nil {
		return nil, err
	}

	return &GlobalRetriever{
		scorer:   NewScorer(cfg, section),
		embedder: embedder,
		queries:  queries,
		topK:     cfg.TopKGlobal,
		workers:  workers,
	}, nil
}

// Run executes every template query and returns per-section deduplicated
// rankings in canonical section order. Sections run in parallel; ordered
// execution keeps the output independent of scheduling. A nil snapshot yields
// an empty result of the same shape, not an error.
func (g *GlobalRetriever) Run(ctx context.Context, snap *index.Snapshot) (model.GlobalRunResult, error) {
	result := model.GlobalRunResult{TemplateVersion: g.queries.Version}

	jobs := make([]func(ctx context.Context) (model.GlobalSectionResult, error), len(model.SoapSectionOrder))
	for i, section := range model.SoapSectionOrder {
		sec := section
		jobs[i] = func(ctx context.Context) (model.GlobalSectionResult, error) {
			return g.runSection(ctx, snap, sec)
		}
	}

	sections, err := worker.RunOrdered(ctx, g.workers, jobs)
	if err != nil {
		return result, err
	}
	result.Sections = sections
	return result, nil
}

// runSection executes one section's template queries in order and merges the
// per-query rankings: first occurrence wins, capped at top-k. Earlier
// template queries therefore outrank later ones on conflict, which is part of
// the template contract.
func (g *GlobalRetriever) runSection(ctx context.Context, snap *index.Snapshot, section model.SoapSection) (model.GlobalSectionResult, error) {
	out := model.GlobalSectionResult{
		Section: section,
		Queries: g.queries.Queries[section],
	}
	if snap == nil {
		return out, nil
	}

	seen := make(map[string]bool)
	for _, query := range out.Queries {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		vec := g.embedQuery(ctx, query)
		// Template queries are hard-restricted to the section's candidate
		// evidence types; free-form local queries are not.
		for _, hit := range g.scorer.Rank(snap, query, vec, section, sectionTypes[section], g.topK) {
			if seen[hit.EvidenceID] {
				continue
			}
			seen[hit.EvidenceID] = true
			out.Hits = append(out.Hits, hit)
			if len(out.Hits) == g.topK {
				return out, nil
			}
		}
	}
	return out, nil
}

// embedQuery embeds one query string, or returns nil when no embedder is
// configured or embedding fails. A nil vector degrades that query to
// lexical-only rather than failing retrieval.
func (g *GlobalRetriever) embedQuery(ctx context.Context, query string) []float32 {
	if g.embedder == nil {
		return nil
	}
	vec, err := g.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil
	}
	return vec
}
