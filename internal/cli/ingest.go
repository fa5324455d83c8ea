package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/anamnesis/internal/ingest"
)

var ingestClear bool

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <case.jsonl> [more.jsonl...]",
	Short: "Load evidence records into the evidence store",
	Long: `Ingest reads JSONL case files and persists their records as immutable
evidence units. Each line is one record:

  {"type": "note", "row_id": 6, "text": "Coagulation panel reviewed..."}
  {"type": "lab", "row_id": 59, "field": "coag", "text": "INR 3.1"}

Types: note, lab, conversation, summary, monitor, reference. Evidence ids
derive deterministically from the type and row locator (N000006, L000059).
Re-ingesting identical records is a no-op; a record that conflicts with an
already-stored id is rejected.

Example:
  anamnesis ingest data/case-0142.jsonl
  anamnesis ingest notes.jsonl labs.jsonl --clear`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "clear the store before ingesting")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	units, err := ingest.NewLoader().LoadFiles(args)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Loaded %d evidence units from %d file(s)\n", len(units), len(args))
	}

	repo, backend, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	if ingestClear {
		if err := repo.Clear(ctx); err != nil {
			return fmt.Errorf("clear store: %w", err)
		}
	}

	if err := repo.PutUnits(ctx, units...); err != nil {
		return fmt.Errorf("persist evidence: %w", err)
	}

	total, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count evidence: %w", err)
	}
	fmt.Printf("✓ Ingested %d units (%d total in store)\n", len(units), total)
	return nil
}
