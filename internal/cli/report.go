package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/anamnesis/internal/model"
	"github.com/ppiankov/anamnesis/internal/pipeline"
	"github.com/ppiankov/anamnesis/internal/worker"
)

var (
	reportJSON      string
	reportCaseID    string
	reportTimeout   time.Duration
	reportQuestions bool
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the evidence-linked case report",
	Long: `Report runs global retrieval over the ingested evidence and produces the
full case report: summary, differential, clarifying questions and action
items, every statement citing its evidence ids.

With --questions the standing clinical question set is answered as well and
the per-question traces are appended to the JSON output.

Example:
  anamnesis report --json report.json
  anamnesis report --questions --case-id icu-0142`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportJSON, "json", "", "output JSON path (\"-\" for stdout)")
	reportCmd.Flags().StringVar(&reportCaseID, "case-id", "", "case identifier stamped on the report")
	reportCmd.Flags().DurationVar(&reportTimeout, "timeout", 5*time.Minute, "overall report timeout")
	reportCmd.Flags().BoolVar(&reportQuestions, "questions", false, "also answer the standing clinical question set")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
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
	engine.SetCaseID(reportCaseID)

	report, err := engine.Summarize(ctx)
	if err != nil {
		return fmt.Errorf("report failed: %w", err)
	}

	var qa []*model.Report
	if reportQuestions {
		processor := worker.NewBatchProcessor(engine, cfg.Embedding.Workers)
		for _, res := range processor.ProcessQuestions(ctx, pipeline.DefaultQuestions()) {
			if res.Error != nil {
				fmt.Fprintf(os.Stderr, "Warning: question %q failed: %v\n", res.Question, res.Error)
				continue
			}
			qa = append(qa, res.Report)
			if cfg.Output.Verbose {
				fmt.Fprintf(os.Stderr, "✓ Answered: %s\n", res.Question)
			}
		}
	}

	if reportJSON != "" {
		var payload any = report
		if len(qa) > 0 {
			payload = struct {
				Report    *model.Report   `json:"report"`
				Questions []*model.Report `json:"questions"`
			}{report, qa}
		}
		if err := writeJSON(payload, reportJSON); err != nil {
			return err
		}
		if cfg.Output.Verbose && reportJSON != "-" {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", reportJSON)
		}
	}
	if reportJSON != "-" {
		printReport(report)
	}
	return nil
}
