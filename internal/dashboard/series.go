package dashboard

import (
	"sentiboard/internal/chart"
	"sentiboard/pkg/sentiment"
)

// Series names, in the order charts draw them.
const (
	SeriesPositive = "Positive"
	SeriesNegative = "Negative"
	SeriesNeutral  = "Neutral"
)

// SeriesFor converts trend records into chart labels and the three
// sentiment series.
func SeriesFor(records []sentiment.TrendRecord) ([]string, []chart.Series) {
	labels := make([]string, len(records))
	pos := make([]int, len(records))
	neg := make([]int, len(records))
	neu := make([]int, len(records))
	for i, r := range records {
		labels[i] = sentiment.FormatDate(r.Date)
		pos[i] = r.Positive
		neg[i] = r.Negative
		neu[i] = r.Neutral
	}
	return labels, []chart.Series{
		{Name: SeriesPositive, Values: pos},
		{Name: SeriesNegative, Values: neg},
		{Name: SeriesNeutral, Values: neu},
	}
}
