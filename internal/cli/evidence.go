package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/anamnesis/internal/model"
)

var evidenceType string

// evidenceCmd represents the evidence command
var evidenceCmd = &cobra.Command{
	Use:   "evidence [evidence-id]",
	Short: "Inspect stored evidence units",
	Long: `Evidence resolves citation ids back to their full source records: raw
text, source file, row locator and scope. Without an id it lists the stored
unit ids, optionally filtered by type.

Example:
  anamnesis evidence N000006
  anamnesis evidence --type lab`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvidence,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.Flags().StringVar(&evidenceType, "type", "", "filter listing by evidence type")
}

func runEvidence(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, backend, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	if len(args) == 1 {
		unit, err := repo.GetUnit(ctx, args[0])
		if err != nil {
			return fmt.Errorf("lookup %s: %w", args[0], err)
		}
		printUnit(unit)
		return nil
	}

	if evidenceType != "" {
		if !model.ValidEvidenceType(model.EvidenceType(evidenceType)) {
			return fmt.Errorf("unknown evidence type %q", evidenceType)
		}
		ids, err := repo.UnitsByType(ctx, model.EvidenceType(evidenceType))
		if err != nil {
			return fmt.Errorf("list by type: %w", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	units, err := repo.AllUnits(ctx)
	if err != nil {
		return fmt.Errorf("list evidence: %w", err)
	}
	for _, u := range units {
		fmt.Printf("%s\t%s\t%s\n", u.EvidenceID, u.EvidenceType, u.SourceFile)
	}
	return nil
}

func printUnit(u model.EvidenceUnit) {
	fmt.Printf("id:     %s\n", u.EvidenceID)
	fmt.Printf("type:   %s\n", u.EvidenceType)
	fmt.Printf("scope:  %s\n", u.PatientScope)
	fmt.Printf("source: %s (row %d", u.SourceFile, u.RowID)
	if u.Field != "" {
		fmt.Printf(", field %s", u.Field)
	}
	fmt.Printf(")\n\n%s\n", u.RawText)
}
