// Package dashboard holds the state and aggregation logic behind the
// sentiment dashboard, shared by the TUI and the CLI.
package dashboard

import "sentiboard/pkg/sentiment"

// Stats is the stat-card summary of an overview.
type Stats struct {
	Positive      int
	Negative      int
	Neutral       int
	PositiveShare float64 // fraction of classified reviews
	NegativeShare float64
	NeutralShare  float64
	TotalReviews  int
	AverageRating float64
	BestModel     string
	Accuracy      float64
}

// ComputeStats derives the stat cards from an overview. Shares are zero
// when nothing has been classified.
func ComputeStats(ov *sentiment.Overview) Stats {
	if ov == nil {
		return Stats{}
	}
	d := ov.Distribution
	s := Stats{
		Positive:      d.Positive,
		Negative:      d.Negative,
		Neutral:       d.Neutral,
		TotalReviews:  ov.TotalReviews,
		AverageRating: ov.AverageRating,
		BestModel:     ov.Performance.BestModel,
		Accuracy:      ov.Performance.Accuracy,
	}
	if total := d.Total(); total > 0 {
		s.PositiveShare = float64(d.Positive) / float64(total)
		s.NegativeShare = float64(d.Negative) / float64(total)
		s.NeutralShare = float64(d.Neutral) / float64(total)
	}
	return s
}

// Counts returns the distribution in chart series order.
func (s Stats) Counts() []int {
	return []int{s.Positive, s.Negative, s.Neutral}
}
