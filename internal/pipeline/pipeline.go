// Package pipeline orchestrates one run of the engine: retrieve, generate,
// extract, verify, gate. The pipeline always returns a well-formed report;
// generation failure, unparseable output and low acceptance all degrade to
// the deterministic fallback instead of surfacing an error.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/anamnesis/internal/cache"
	"github.com/ppiankov/anamnesis/internal/extract"
	"github.com/ppiankov/anamnesis/internal/index"
	"github.com/ppiankov/anamnesis/internal/llm"
	"github.com/ppiankov/anamnesis/internal/model"
	"github.com/ppiankov/anamnesis/internal/retrieve"
	"github.com/ppiankov/anamnesis/internal/store"
	"github.com/ppiankov/anamnesis/internal/verify"
)

// Generator abstracts the generation service so tests can run the full
// pipeline without a live provider.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Engine wires the full retrieve-generate-verify pipeline.
type Engine struct {
	provider  *index.Provider
	global    *retrieve.GlobalRetriever
	local     *retrieve.LocalRetriever
	generator Generator // nil means generation disabled
	parser    *extract.ClaimParser
	verifier  *verify.Verifier
	fallback  *verify.Fallback
	gate      *verify.Gate
	embedder  index.Embedder
	cache     cache.Cache
	config    *model.Config
	caseID    string
}

// New creates an engine from configuration. A missing or unconfigured
// generation provider is not an error: the engine runs in fallback-only mode.
func New(cfg *model.Config) (*Engine, error) {
	embedder, err := llm.NewEmbedder(cfg.Embedding, cfg.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	generator, err := llm.NewGenerator(llm.ConfigFromModel(cfg.LLM), cfg.LLM.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("generation provider: %w", err)
	}

	global, err := retrieve.NewGlobalRetriever(cfg.Retrieval, cfg.Sections, embedder, cfg.Embedding.Workers)
	if err != nil {
		return nil, fmt.Errorf("global retriever: %w", err)
	}

	var embedCache cache.Cache
	if cfg.Embedding.CacheDir != "" {
		embedCache = cache.NewLayeredCache(time.Hour, cfg.Embedding.CacheDir, 0)
	} else {
		embedCache = cache.NewMemoryCache(time.Hour, 10*time.Minute)
	}

	engine := &Engine{
		provider: &index.Provider{},
		global:   global,
		local:    retrieve.NewLocalRetriever(cfg.Retrieval, cfg.Sections, embedder, cfg.Embedding.Workers),
		parser:   extract.NewClaimParser(),
		verifier: verify.NewVerifier(cfg.Verify),
		fallback: verify.NewFallback(),
		gate:     verify.NewGate(),
		embedder: embedder,
		cache:    embedCache,
		config:   cfg,
	}
	if generator != nil {
		engine.generator = generator
	}
	return engine, nil
}

// SetCaseID tags subsequent reports with a case identifier.
func (e *Engine) SetCaseID(id string) {
	e.caseID = id
}

// SetGenerator swaps the generation service. Used by tests and by callers
// that manage their own provider lifecycle.
func (e *Engine) SetGenerator(g Generator) {
	e.generator = g
}

// GeneratorStatus reports whether a generation service is configured and,
// when the service can say, whether it is reachable. A preflight for CLI
// warnings only: the pipeline itself never gates on availability, it degrades
// to the fallback per call.
func (e *Engine) GeneratorStatus(ctx context.Context) (configured, available bool) {
	if e.generator == nil {
		return false, false
	}
	if checker, ok := e.generator.(interface{ IsAvailable(context.Context) bool }); ok {
		return true, checker.IsAvailable(ctx)
	}
	return true, true
}

// Rebuild constructs index snapshots from the evidence store and publishes
// them atomically. In-flight queries keep the snapshot they hold; new queries
// see the new one.
func (e *Engine) Rebuild(ctx context.Context, st *store.Store) error {
	var embedder index.Embedder
	if e.config.Retrieval.UseHybrid {
		embedder = e.embedder
	}

	snap, err := index.Build(ctx, st, index.BuilderOptions{
		Embedder:   embedder,
		EmbedModel: e.config.Embedding.Model,
		Cache:      e.cache,
		Workers:    e.config.Embedding.Workers,
	})
	if err != nil {
		return fmt.Errorf("build index snapshot: %w", err)
	}

	e.provider.Publish(snap)
	return nil
}

// Snapshot returns the current published snapshot, nil before the first
// Rebuild.
func (e *Engine) Snapshot() *index.Snapshot {
	return e.provider.Current()
}

// Summarize produces the question-free case report: global retrieval only.
func (e *Engine) Summarize(ctx context.Context) (*model.Report, error) {
	return e.Ask(ctx, "")
}

// Ask answers one clinical question. The error return is reserved for context
// cancellation and index build problems; every generation-side failure
// resolves into a fallback report instead.
func (e *Engine) Ask(ctx context.Context, question string) (*model.Report, error) {
	snap := e.provider.Current()

	global, err := e.global.Run(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("global retrieval: %w", err)
	}

	var local *model.LocalRunResult
	if question != "" {
		run, err := e.local.Run(ctx, snap, question)
		if err != nil {
			return nil, fmt.Errorf("local retrieval: %w", err)
		}
		local = &run
	}

	report := e.compose(ctx, snap, global, local, question)
	report.CaseID = e.caseID
	report.Question = question
	report.GeneratedAt = time.Now().UTC()
	report.Flags.LexicalOnly = !e.config.Retrieval.UseHybrid
	report.Gate = e.gate.Evaluate(report)
	return report, nil
}

// compose runs generation and verification, degrading to the fallback when
// the generation path cannot produce an acceptable report.
func (e *Engine) compose(ctx context.Context, snap *index.Snapshot, global model.GlobalRunResult, local *model.LocalRunResult, question string) *model.Report {
	if e.generator == nil || snap == nil {
		report := e.fallback.Build(global)
		report.LocalTrace = local
		return report
	}

	prompt := llm.BuildPrompt(global, local, question)
	text, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		// ErrUnavailable or otherwise: the generation path is gone either way.
		report := e.fallback.Build(global)
		report.LocalTrace = local
		return report
	}

	claims := e.parser.Parse(text)
	if len(claims) == 0 {
		report := e.fallback.Build(global)
		report.LocalTrace = local
		report.Limitations = append(report.Limitations, "Generation output carried no parseable claims.")
		return report
	}

	surfaced := make(map[string]bool)
	for _, id := range global.EvidenceIDs() {
		surfaced[id] = true
	}
	if local != nil {
		for _, id := range local.EvidenceIDs() {
			surfaced[id] = true
		}
	}

	outcomes := e.verifier.Verify(claims, snap.Store, surfaced)
	rate := verify.AcceptanceRate(outcomes)

	if rate < e.config.Verify.AcceptThreshold {
		// Too few claims survived: the generation output as a whole is not
		// trustworthy. Discard it, keep the verdicts for audit.
		report := e.fallback.Build(global)
		report.LocalTrace = local
		report.Outcomes = outcomes
		report.Flags.LowAcceptance = true
		report.Flags.AcceptanceRate = rate
		return report
	}

	report := &model.Report{
		GlobalTrace: global,
		LocalTrace:  local,
		Outcomes:    outcomes,
		Flags:       model.ReportFlags{AcceptanceRate: rate},
	}
	e.fillSections(report, outcomes)
	return report
}

// fillSections groups accepted claims into report sections, in claim order.
// A section with no accepted claims gets the placeholder so its absence is
// explicit.
func (e *Engine) fillSections(report *model.Report, outcomes []model.VerificationOutcome) {
	for _, o := range outcomes {
		if !o.Accepted() {
			continue
		}
		item := model.ReportItem{Text: o.Claim.Text, EvidenceIDs: o.Claim.EvidenceIDs}
		switch o.Claim.Section {
		case model.GroupDifferential:
			report.Differential = append(report.Differential, item)
		case model.GroupClarifying:
			report.ClarifyingQuestions = append(report.ClarifyingQuestions, item)
		case model.GroupActionItems:
			report.ActionItems = append(report.ActionItems, item)
		default:
			report.Summary = append(report.Summary, item)
		}
	}

	placeholder := []model.ReportItem{{Text: verify.Placeholder}}
	if len(report.Summary) == 0 {
		report.Summary = placeholder
	}
	if len(report.Differential) == 0 {
		report.Differential = placeholder
	}
	if len(report.ClarifyingQuestions) == 0 {
		report.ClarifyingQuestions = placeholder
	}
	if len(report.ActionItems) == 0 {
		report.ActionItems = placeholder
	}
}
