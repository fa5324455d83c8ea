package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/anamnesis/internal/model"
	"github.com/ppiankov/anamnesis/internal/worker"
)

var (
	askJSON    string
	askFile    string
	askTimeout time.Duration
	askWorkers int
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a clinical question against the ingested evidence",
	Long: `Ask runs the full retrieve-generate-verify pipeline for one question, or
for a batch of questions read from a file (one per line, # comments allowed).

Every statement in the answer cites verified evidence ids. If the generation
service is unavailable or its output does not verify, the answer degrades to
a deterministic evidence summary and says so.

Example:
  anamnesis ask "What is the coagulation status?"
  anamnesis ask --file questions.txt --json answers.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVar(&askJSON, "json", "", "output JSON path (\"-\" for stdout)")
	askCmd.Flags().StringVar(&askFile, "file", "", "file of questions, one per line")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 5*time.Minute, "overall timeout")
	askCmd.Flags().IntVar(&askWorkers, "workers", 2, "concurrent questions in batch mode")
}

func runAsk(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && askFile == "" {
		return fmt.Errorf("provide a question or --file")
	}
	if len(args) == 1 && askFile != "" {
		return fmt.Errorf("provide either a question or --file, not both")
	}

	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, backend, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	engine, err := buildEngine(ctx, cfg, repo)
	if err != nil {
		return err
	}

	if askFile != "" {
		processor := worker.NewBatchProcessor(engine, askWorkers)
		results, err := processor.ProcessFile(ctx, askFile)
		if err != nil {
			return fmt.Errorf("batch ask failed: %w", err)
		}

		var reports []*model.Report
		for _, res := range results {
			if res.Error != nil {
				fmt.Fprintf(os.Stderr, "Warning: question %q failed: %v\n", res.Question, res.Error)
				continue
			}
			reports = append(reports, res.Report)
			if askJSON != "-" {
				printReport(res.Report)
				fmt.Println("---")
			}
		}
		if askJSON != "" {
			return writeJSON(reports, askJSON)
		}
		return nil
	}

	report, err := engine.Ask(ctx, args[0])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON != "" {
		if err := writeJSON(report, askJSON); err != nil {
			return err
		}
	}
	if askJSON != "-" {
		printReport(report)
	}
	return nil
}
