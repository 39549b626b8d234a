package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/saferstep/internal/model"
)

// askerFunc adapts a function to the Asker interface
type askerFunc func(ctx context.Context, utterance string) (model.Response, error)

func (f askerFunc) Ask(ctx context.Context, utterance string) (model.Response, error) {
	return f(ctx, utterance)
}

func echoAsker(calls *int32) askerFunc {
	return func(ctx context.Context, utterance string) (model.Response, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		time.Sleep(time.Millisecond) // let jobs finish out of order
		if strings.Contains(utterance, "fail") {
			return model.Response{}, errors.New("ask error")
		}
		return model.Response{Content: "re: " + utterance, Category: model.CategoryNormal}, nil
	}
}

func TestBatchProcessor_ProcessUtterances(t *testing.T) {
	var calls int32
	processor := NewBatchProcessor(echoAsker(&calls), 3)

	utterances := []string{"hello", "tips", "fail now", "where am i", "hello"}
	results := processor.ProcessUtterances(context.Background(), utterances)

	if len(results) != len(utterances) {
		t.Fatalf("expected %d results, got %d", len(utterances), len(results))
	}
	if atomic.LoadInt32(&calls) != int32(len(utterances)) {
		t.Errorf("expected %d asks, got %d", len(utterances), calls)
	}

	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d has index %d", i, r.Index)
		}
		if r.Utterance != utterances[i] {
			t.Errorf("result %d utterance = %q, want %q", i, r.Utterance, utterances[i])
		}
	}

	failed := results[2]
	if failed.Error == nil || failed.ErrorText != "ask error" {
		t.Errorf("expected error on failing utterance, got %+v", failed)
	}
	if failed.Response != nil {
		t.Error("failed result should carry no response")
	}

	if results[0].Response == nil || results[0].Response.Content != "re: hello" {
		t.Errorf("unexpected first response: %+v", results[0].Response)
	}
}

func TestBatchProcessor_ManyUtterances(t *testing.T) {
	processor := NewBatchProcessor(echoAsker(nil), 2)

	// More jobs than the pool buffers must not deadlock.
	utterances := make([]string, 50)
	for i := range utterances {
		utterances[i] = "tips"
	}

	done := make(chan []*AskResult)
	go func() {
		done <- processor.ProcessUtterances(context.Background(), utterances)
	}()

	select {
	case results := <-done:
		if len(results) != 50 {
			t.Errorf("expected 50 results, got %d", len(results))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("batch processing timed out")
	}
}

func TestBatchProcessor_TimeoutKeepsEveryLine(t *testing.T) {
	slow := askerFunc(func(ctx context.Context, utterance string) (model.Response, error) {
		select {
		case <-time.After(50 * time.Millisecond):
			return model.Response{Content: "re: " + utterance}, nil
		case <-ctx.Done():
			return model.Response{}, ctx.Err()
		}
	})
	processor := NewBatchProcessor(slow, 2)

	utterances := make([]string, 20)
	for i := range utterances {
		utterances[i] = fmt.Sprintf("question %d", i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	results := processor.ProcessUtterances(ctx, utterances)
	if len(results) != len(utterances) {
		t.Fatalf("expected %d results, got %d", len(utterances), len(results))
	}

	skipped := 0
	for i, r := range results {
		if r.Index != i || r.Utterance != utterances[i] {
			t.Errorf("result %d out of order: %+v", i, r)
		}
		if r.Response == nil && r.Error == nil {
			t.Errorf("result %d has neither response nor error", i)
		}
		if errors.Is(r.Error, ErrNotProcessed) {
			skipped++
			if !errors.Is(r.Error, context.DeadlineExceeded) {
				t.Errorf("result %d: expected deadline error, got %v", i, r.Error)
			}
			if r.ErrorText == "" {
				t.Errorf("result %d: expected error text", i)
			}
		}
	}
	if skipped == 0 {
		t.Error("expected some lines to be reported as not processed")
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(echoAsker(nil), 2)
	results := processor.ProcessUtterances(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestReadUtterances(t *testing.T) {
	input := `# safety questions
hello

  what is my safety score  
# skipped
hello
`
	got, err := ReadUtterances(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"hello", "what is my safety score", "hello"}
	if len(got) != len(want) {
		t.Fatalf("expected %d utterances, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("utterance %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "utterances.txt")
	if err := os.WriteFile(path, []byte("sos\nroute home\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	processor := NewBatchProcessor(echoAsker(nil), 2)
	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Response.Content != "re: route home" {
		t.Errorf("unexpected response: %q", results[1].Response.Content)
	}

	if _, err := processor.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
