package store

import (
	"context"

	"sentiboard/pkg/sentiment"
)

// FileProvider serves an analytics overview built from a trend Parquet file,
// for offline use without a backend. Only the trend and the totals derived
// from it are populated.
type FileProvider struct {
	Path string
}

// NewFileProvider returns a provider reading the trend file at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

// Overview reads the file on every call so edits are picked up on refresh.
func (p *FileProvider) Overview(ctx context.Context) (*sentiment.Overview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := ReadTrendFile(p.Path)
	if err != nil {
		return nil, err
	}

	ov := &sentiment.Overview{Trend: records}
	for _, r := range records {
		ov.Distribution.Positive += r.Positive
		ov.Distribution.Negative += r.Negative
		ov.Distribution.Neutral += r.Neutral
	}
	ov.TotalReviews = ov.Distribution.Total()
	return ov, nil
}
