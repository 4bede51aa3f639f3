package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"sentiboard/internal/chart"
	"sentiboard/pkg/sentiment"
)

// AnalyticsSource is the part of the API behind the analytics section.
type AnalyticsSource interface {
	Provider
	ModelComparison(ctx context.Context) ([]sentiment.ModelScore, error)
}

// Analytics bundles the data of the analytics section.
type Analytics struct {
	Overview   *sentiment.Overview
	Comparison []sentiment.ModelScore
}

// LoadAnalytics fetches the overview and the model comparison concurrently.
// The first failure cancels the other request.
func LoadAnalytics(ctx context.Context, src AnalyticsSource) (*Analytics, error) {
	g, gctx := errgroup.WithContext(ctx)
	var a Analytics

	g.Go(func() error {
		ov, err := src.Overview(gctx)
		if err != nil {
			return fmt.Errorf("loading overview: %w", err)
		}
		a.Overview = ov
		return nil
	})
	g.Go(func() error {
		cmp, err := src.ModelComparison(gctx)
		if err != nil {
			return fmt.Errorf("loading model comparison: %w", err)
		}
		a.Comparison = cmp
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &a, nil
}

// TopBrands returns the first n brands in backend order (most reviewed
// first). A negative n returns all of them. The input is not modified.
func TopBrands(brands []sentiment.BrandStat, n int) []sentiment.BrandStat {
	if n >= 0 && len(brands) > n {
		brands = brands[:n]
	}
	out := make([]sentiment.BrandStat, len(brands))
	copy(out, brands)
	return out
}

// Timeline returns the last points records of trend.
func Timeline(trend []sentiment.TrendRecord, points int) []sentiment.TrendRecord {
	if points <= 0 || len(trend) <= points {
		return trend
	}
	return trend[len(trend)-points:]
}

// TimelineSparklines renders one sparkline per sentiment series over the
// last points records.
func TimelineSparklines(trend []sentiment.TrendRecord, points int) []chart.Series {
	_, series := SeriesFor(Timeline(trend, points))
	return series
}
