package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/saferstep/internal/model"
)

// ErrNotProcessed marks an utterance the batch never answered.
var ErrNotProcessed = errors.New("utterance not processed")

// Asker answers a single utterance in a fresh conversation
type Asker interface {
	Ask(ctx context.Context, utterance string) (model.Response, error)
}

// AskJob represents one utterance to answer
type AskJob struct {
	Index     int
	Utterance string
	Asker     Asker
}

// Execute executes the ask job
func (j *AskJob) Execute(ctx context.Context) Result {
	resp, err := j.Asker.Ask(ctx, j.Utterance)
	if err != nil {
		return &AskResult{Index: j.Index, Utterance: j.Utterance, Error: err}
	}
	return &AskResult{Index: j.Index, Utterance: j.Utterance, Response: &resp}
}

// AskResult represents the result of an ask job
type AskResult struct {
	Index     int             `json:"index"`
	Utterance string          `json:"utterance"`
	Response  *model.Response `json:"response,omitempty"`
	Error     error           `json:"-"`
	ErrorText string          `json:"error,omitempty"`
}

// GetError returns the error from the ask result
func (r *AskResult) GetError() error {
	return r.Error
}

// BatchProcessor answers many utterances concurrently
type BatchProcessor struct {
	asker       Asker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(asker Asker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		asker:       asker,
		concurrency: concurrency,
	}
}

// ProcessUtterances answers every utterance and returns results in input order
func (b *BatchProcessor) ProcessUtterances(ctx context.Context, utterances []string) []*AskResult {
	if len(utterances) == 0 {
		return []*AskResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	// Submit from a separate goroutine: the job queue is bounded and
	// results are only drained by Collect.
	go func() {
		for i, u := range utterances {
			pool.Submit(&AskJob{Index: i, Utterance: u, Asker: b.asker})
		}
		pool.Close()
	}()

	results := pool.Collect()

	// Every input line gets a result; lines cut off by ctx carry its error.
	askResults := make([]*AskResult, len(utterances))
	for _, result := range results {
		r := result.(*AskResult)
		askResults[r.Index] = r
	}
	for i, r := range askResults {
		if r == nil {
			r = &AskResult{Index: i, Utterance: utterances[i], Error: ErrNotProcessed}
			if err := ctx.Err(); err != nil {
				r.Error = fmt.Errorf("%w: %w", ErrNotProcessed, err)
			}
			askResults[i] = r
		}
		if r.Error != nil {
			r.ErrorText = r.Error.Error()
		}
	}

	return askResults
}

// ProcessFile reads utterances from a file and answers them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AskResult, error) {
	utterances, err := ReadUtterancesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read utterances: %w", err)
	}

	return b.ProcessUtterances(ctx, utterances), nil
}

// ReadUtterancesFromFile reads utterances from a file (one per line)
func ReadUtterancesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadUtterances(file)
}

// ReadUtterances reads one utterance per line, skipping blanks and # comments.
// Duplicates are kept: each line is its own conversation.
func ReadUtterances(r io.Reader) ([]string, error) {
	var utterances []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		utterances = append(utterances, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}

	return utterances, nil
}
