package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/anamnesis/internal/model"
)

// Asker defines the interface for answering one clinical question
type Asker interface {
	Ask(ctx context.Context, question string) (*model.Report, error)
}

// AskResult represents the result of one batch question
type AskResult struct {
	Question string
	Report   *model.Report
	Error    error
}

// BatchProcessor answers multiple questions concurrently. Each question runs
// the full retrieve-generate-verify pipeline independently.
type BatchProcessor struct {
	asker       Asker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(asker Asker, concurrency int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchProcessor{
		asker:       asker,
		concurrency: concurrency,
	}
}

// ProcessQuestions answers multiple questions concurrently, preserving input
// order in the results.
func (b *BatchProcessor) ProcessQuestions(ctx context.Context, questions []string) []*AskResult {
	if len(questions) == 0 {
		return []*AskResult{}
	}

	jobs := make([]func(ctx context.Context) (*AskResult, error), len(questions))
	for i, q := range questions {
		question := q
		jobs[i] = func(ctx context.Context) (*AskResult, error) {
			report, err := b.asker.Ask(ctx, question)
			// Per-question errors stay in the result: one bad question must
			// not sink the batch.
			return &AskResult{Question: question, Report: report, Error: err}, nil
		}
	}

	results, err := RunOrdered(ctx, b.concurrency, jobs)
	if err != nil {
		// Only context cancellation reaches here
		out := make([]*AskResult, len(questions))
		for i, q := range questions {
			out[i] = &AskResult{Question: q, Error: err}
		}
		return out
	}
	return results
}

// ProcessFile reads questions from a file and answers them concurrently.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AskResult, error) {
	questions, err := ReadQuestionsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return b.ProcessQuestions(ctx, questions), nil
}

// ReadQuestionsFromFile reads questions from a file (one per line).
// Blank lines and lines starting with # are skipped; duplicates collapse.
func ReadQuestionsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var questions []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		questions = append(questions, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return questions, nil
}
