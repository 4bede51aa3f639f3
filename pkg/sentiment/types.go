package sentiment

import (
	"encoding/json"
	"fmt"
	"time"
)

// TrendRecord is one time-bucketed count of positive, negative and neutral
// classifications. Records are immutable once decoded.
type TrendRecord struct {
	Date     time.Time
	Positive int
	Negative int
	Neutral  int
}

type trendRecordJSON struct {
	Date     string `json:"date"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
	Neutral  int    `json:"neutral"`
}

// dateLayout is the backend's trend date format.
const dateLayout = "2006-01-02"

// UnmarshalJSON accepts dates as YYYY-MM-DD or RFC 3339 and rejects negative
// counts.
func (r *TrendRecord) UnmarshalJSON(b []byte) error {
	var raw trendRecordJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d, err := ParseDate(raw.Date)
	if err != nil {
		return err
	}
	if raw.Positive < 0 || raw.Negative < 0 || raw.Neutral < 0 {
		return fmt.Errorf("trend record %s: negative count (%d/%d/%d)",
			raw.Date, raw.Positive, raw.Negative, raw.Neutral)
	}
	*r = TrendRecord{Date: d, Positive: raw.Positive, Negative: raw.Negative, Neutral: raw.Neutral}
	return nil
}

// MarshalJSON writes date-only values in the backend's layout and anything
// carrying a clock component as RFC 3339.
func (r TrendRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(trendRecordJSON{
		Date:     FormatDate(r.Date),
		Positive: r.Positive,
		Negative: r.Negative,
		Neutral:  r.Neutral,
	})
}

// Total returns the sum of the three counts.
func (r TrendRecord) Total() int {
	return r.Positive + r.Negative + r.Neutral
}

// ParseDate parses a trend date in either supported layout.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing trend date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string {
	if t.Equal(t.Truncate(24*time.Hour)) && t.Location() == time.UTC {
		return t.Format(dateLayout)
	}
	return t.Format(time.RFC3339)
}

// Distribution holds the overall sentiment counts.
type Distribution struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// Total returns the number of classified reviews.
func (d Distribution) Total() int {
	return d.Positive + d.Negative + d.Neutral
}

// BrandStat is one row of the top-brands aggregation.
type BrandStat struct {
	Brand string  `json:"brand"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
}

// ModelPerformance summarises the best-performing model.
type ModelPerformance struct {
	BestModel        string  `json:"best_model"`
	Accuracy         float64 `json:"accuracy"`
	TotalPredictions int     `json:"total_predictions"`
}

// Overview is the analytics payload behind the dashboard.
type Overview struct {
	Distribution  Distribution     `json:"sentiment_distribution"`
	TotalReviews  int              `json:"total_reviews"`
	AverageRating float64          `json:"average_rating"`
	TopBrands     []BrandStat      `json:"top_brands"`
	Trend         []TrendRecord    `json:"sentiment_trend"`
	Performance   ModelPerformance `json:"model_performance"`
}

// ModelInfo describes one classifier offered by the backend.
type ModelInfo struct {
	Key         string  `json:"-"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Accuracy    float64 `json:"accuracy"`
	Precision   float64 `json:"precision"`
	Recall      float64 `json:"recall"`
	F1Score     float64 `json:"f1_score"`
}

// ModelScore is one row of the model comparison.
type ModelScore struct {
	Model     string  `json:"model"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

// Probabilities are per-class probabilities in [0, 1].
type Probabilities struct {
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Positive float64 `json:"positive"`
}

// TextAnalysis holds surface statistics of the analysed text.
type TextAnalysis struct {
	WordCount      int     `json:"word_count"`
	CharacterCount int     `json:"character_count"`
	Polarity       float64 `json:"polarity"`
	Subjectivity   float64 `json:"subjectivity"`
}

// Prediction is the result of a single-text analysis.
type Prediction struct {
	Sentiment     string        `json:"sentiment"`
	SentimentCode int           `json:"sentiment_code"`
	Emoji         string        `json:"emoji"`
	Confidence    float64       `json:"confidence"` // percent
	Probabilities Probabilities `json:"probabilities"`
	ModelUsed     string        `json:"model_used"`
	TextAnalysis  TextAnalysis  `json:"text_analysis"`
}

// BatchItem is one classified text of a batch.
type BatchItem struct {
	Index         int     `json:"index"`
	Text          string  `json:"text"`
	Sentiment     string  `json:"sentiment"`
	SentimentCode int     `json:"sentiment_code"`
	Emoji         string  `json:"emoji"`
	Confidence    float64 `json:"confidence"`
}

// BatchSummary counts batch results per class.
type BatchSummary struct {
	TotalProcessed int    `json:"total_processed"`
	Positive       int    `json:"positive"`
	Negative       int    `json:"negative"`
	Neutral        int    `json:"neutral"`
	ModelUsed      string `json:"model_used"`
}

// BatchResult is the response of a batch analysis.
type BatchResult struct {
	Results []BatchItem  `json:"results"`
	Summary BatchSummary `json:"summary"`
}

// Health is the backend health report.
type Health struct {
	Status          string   `json:"status"`
	Timestamp       string   `json:"timestamp"`
	ModelsLoaded    int      `json:"models_loaded"`
	AvailableModels []string `json:"available_models"`
}

// WordCloud is a decoded word-cloud image.
type WordCloud struct {
	MediaType string
	Data      []byte
}
