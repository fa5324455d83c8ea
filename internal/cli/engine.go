package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/ppiankov/anamnesis/internal/model"
	"github.com/ppiankov/anamnesis/internal/pipeline"
	badgerstore "github.com/ppiankov/anamnesis/internal/store/badger"
)

// loadConfig assembles the effective configuration: defaults overlaid with
// config file and ANAMNESIS_* environment values, API keys from the
// provider's conventional environment variable.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "ollama":
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.LLM.BaseURL == "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	}
	if cfg.Embedding.Provider == "openai" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	cfg.Output.Verbose = cfg.Output.Verbose || verbose
	return cfg, nil
}

// openRepository opens the persistent evidence store.
func openRepository(cfg *model.Config) (*badgerstore.EvidenceRepository, *badgerstore.Backend, error) {
	backend, err := badgerstore.OpenBackend(cfg.Store.Dir, false)
	if err != nil {
		return nil, nil, fmt.Errorf("open evidence store %s: %w", cfg.Store.Dir, err)
	}
	return badgerstore.NewEvidenceRepository(backend), backend, nil
}

// buildEngine creates the pipeline engine and publishes an index snapshot
// from the persisted evidence.
func buildEngine(ctx context.Context, cfg *model.Config, repo *badgerstore.EvidenceRepository) (*pipeline.Engine, error) {
	engine, err := pipeline.New(cfg)
	if err != nil {
		return nil, err
	}

	st, err := repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load evidence: %w", err)
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Indexing %d evidence units...\n", st.Len())
		if configured, available := engine.GeneratorStatus(ctx); configured && !available {
			fmt.Fprintf(os.Stderr, "Warning: %s generation provider unreachable; reports will use the deterministic fallback\n", cfg.LLM.Provider)
		}
	}
	if err := engine.Rebuild(ctx, st); err != nil {
		return nil, err
	}
	return engine, nil
}

// writeJSON writes the payload to path, or stdout for "-".
func writeJSON(payload any, path string) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')

	if path == "-" || path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// printReport renders a terse human-readable view to stdout.
func printReport(report *model.Report) {
	section := func(title string, items []model.ReportItem) {
		fmt.Printf("%s:\n", title)
		for _, item := range items {
			if len(item.EvidenceIDs) > 0 {
				fmt.Printf("  - %s %v\n", item.Text, item.EvidenceIDs)
			} else {
				fmt.Printf("  - %s\n", item.Text)
			}
		}
		fmt.Println()
	}

	if report.Question != "" {
		fmt.Printf("Question: %s\n\n", report.Question)
	}
	section("Summary", report.Summary)
	section("Differential", report.Differential)
	section("Clarifying questions", report.ClarifyingQuestions)
	section("Action items", report.ActionItems)

	if report.Flags.FallbackUsed {
		fmt.Println("Note: deterministic fallback output (no generation service).")
	}
	fmt.Printf("Gate: score %d/100, passed=%v\n", report.Gate.Score, report.Gate.Passed)
	for _, w := range report.Gate.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}
