package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sentiboard/internal/util"
	"sentiboard/pkg/sentiment"
)

// BatchPredictor classifies a batch of texts.
type BatchPredictor interface {
	BatchPredict(ctx context.Context, texts []string, model string) (*sentiment.BatchResult, error)
}

// SplitTexts returns the non-blank lines of input, trimmed.
func SplitTexts(input string) []string {
	var texts []string
	for _, line := range strings.Split(input, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			texts = append(texts, t)
		}
	}
	return texts
}

// BatchRunner submits large batches in chunks, one request at a time, paced
// by a rate limiter.
type BatchRunner struct {
	Predictor BatchPredictor
	ChunkSize int
	Limiter   *util.RateLimiter // nil disables pacing
	Log       *slog.Logger
	// Progress, if set, is called after each chunk with the number of texts
	// processed so far.
	Progress func(done, total int)
}

// Run classifies texts and merges the chunk results. Result indices refer
// to positions in texts. The first failing chunk aborts the run.
func (r *BatchRunner) Run(ctx context.Context, texts []string, model string) (*sentiment.BatchResult, error) {
	if len(texts) == 0 {
		return nil, sentiment.ErrEmptyBatch
	}
	size := r.ChunkSize
	if size <= 0 {
		size = len(texts)
	}
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	chunks := (len(texts) + size - 1) / size
	merged := &sentiment.BatchResult{Results: make([]sentiment.BatchItem, 0, len(texts))}

	for c := 0; c < chunks; c++ {
		start := c * size
		end := min(start+size, len(texts))

		if err := r.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
		res, err := r.Predictor.BatchPredict(ctx, texts[start:end], model)
		if err != nil {
			return nil, fmt.Errorf("batch chunk %d/%d: %w", c+1, chunks, err)
		}
		log.Debug("batch chunk done", "chunk", c+1, "chunks", chunks, "texts", end-start)

		for _, item := range res.Results {
			item.Index += start
			merged.Results = append(merged.Results, item)
		}
		merged.Summary.TotalProcessed += res.Summary.TotalProcessed
		merged.Summary.Positive += res.Summary.Positive
		merged.Summary.Negative += res.Summary.Negative
		merged.Summary.Neutral += res.Summary.Neutral
		merged.Summary.ModelUsed = res.Summary.ModelUsed

		if r.Progress != nil {
			r.Progress(end, len(texts))
		}
	}
	return merged, nil
}
