package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ppiankov/anamnesis/internal/model"
)

func TestRunOrderedPreservesJobOrder(t *testing.T) {
	jobs := make([]func(ctx context.Context) (int, error), 20)
	for i := range jobs {
		n := i
		jobs[i] = func(ctx context.Context) (int, error) { return n, nil }
	}

	results, err := RunOrdered(context.Background(), 4, jobs)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, r := range results {
		if r != i {
			t.Errorf("position %d holds %d", i, r)
		}
	}
}

func TestRunOrderedBoundsConcurrency(t *testing.T) {
	var inFlight, peak int64
	jobs := make([]func(ctx context.Context) (struct{}, error), 16)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) (struct{}, error) {
			cur := atomic.AddInt64(&inFlight, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
					break
				}
			}
			atomic.AddInt64(&inFlight, -1)
			return struct{}{}, nil
		}
	}

	if _, err := RunOrdered(context.Background(), 3, jobs); err != nil {
		t.Fatalf("run: %v", err)
	}
	if p := atomic.LoadInt64(&peak); p > 3 {
		t.Errorf("concurrency bound exceeded: peak %d", p)
	}
}

func TestRunOrderedPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	jobs := []func(ctx context.Context) (int, error){
		func(ctx context.Context) (int, error) { return 1, nil },
		func(ctx context.Context) (int, error) { return 0, boom },
	}

	if _, err := RunOrdered(context.Background(), 2, jobs); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestRunOrderedCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []func(ctx context.Context) (int, error){
		func(ctx context.Context) (int, error) { return 0, ctx.Err() },
	}
	if _, err := RunOrdered(ctx, 1, jobs); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// echoAsker answers every question with a minimal report.
type echoAsker struct{ fail string }

func (a *echoAsker) Ask(ctx context.Context, question string) (*model.Report, error) {
	if question == a.fail {
		return nil, fmt.Errorf("cannot answer %q", question)
	}
	return &model.Report{Question: question}, nil
}

func TestBatchProcessorKeepsPerQuestionErrors(t *testing.T) {
	processor := NewBatchProcessor(&echoAsker{fail: "bad"}, 2)
	results := processor.ProcessQuestions(context.Background(), []string{"a", "bad", "c"})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Error != nil || results[2].Error != nil {
		t.Errorf("good questions should succeed: %v, %v", results[0].Error, results[2].Error)
	}
	if results[1].Error == nil {
		t.Error("failed question should carry its error")
	}
	if results[0].Report.Question != "a" || results[2].Report.Question != "c" {
		t.Error("results out of order")
	}
}

func TestReadQuestionsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.txt")
	content := "# standing questions\n\nWhat is the plan?\nWhat is the plan?\nAny new labs?\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	questions, err := ReadQuestionsFromFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions after dedup/skip, got %d: %v", len(questions), questions)
	}
	if questions[0] != "What is the plan?" || questions[1] != "Any new labs?" {
		t.Errorf("unexpected questions: %v", questions)
	}
}
