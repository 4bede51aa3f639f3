package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"sentiboard/internal/chart"
	"sentiboard/internal/dashboard"
	"sentiboard/internal/output"
	"sentiboard/internal/store"
	"sentiboard/internal/util"
	"sentiboard/pkg/sentiment"
)

func cmdHealth(e *env, args []string) error {
	fs := e.flags()
	if err := e.parse(fs, args); err != nil {
		return err
	}

	var h *sentiment.Health
	err := util.Retry(e.ctx, e.cfg.Startup.HealthAttempts, e.cfg.Startup.HealthDelay, func(ctx context.Context) error {
		var err error
		h, err = e.client.Health(ctx)
		if err != nil {
			e.log.Debug("health probe failed", "error", err)
		}
		return err
	})
	if err != nil {
		return err
	}

	e.printer.Success("%s is %s", e.client.BaseURL(), h.Status)
	e.printer.Print("  models loaded: %d", h.ModelsLoaded)
	if len(h.AvailableModels) > 0 {
		e.printer.Print("  available:     %s", strings.Join(h.AvailableModels, ", "))
	}
	if h.Timestamp != "" {
		e.printer.Print("  timestamp:     %s", h.Timestamp)
	}
	return nil
}

func cmdOverview(e *env, args []string) error {
	fs := e.flags()
	save := fs.Bool("save", true, "store the overview as a snapshot")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	p, source := e.provider()
	ov, err := p.Overview(e.ctx)
	if err != nil {
		return err
	}

	s := dashboard.ComputeStats(ov)
	e.printer.Header("Overview")
	t := output.NewTable(e.printer.Out(), "Metric", "Value")
	t.AddRow("Total reviews", dashboard.FormatInt(s.TotalReviews))
	t.AddRow("Positive", fmt.Sprintf("%s (%s)", dashboard.FormatInt(s.Positive), dashboard.FormatPercent(s.PositiveShare)))
	t.AddRow("Negative", fmt.Sprintf("%s (%s)", dashboard.FormatInt(s.Negative), dashboard.FormatPercent(s.NegativeShare)))
	t.AddRow("Neutral", fmt.Sprintf("%s (%s)", dashboard.FormatInt(s.Neutral), dashboard.FormatPercent(s.NeutralShare)))
	t.AddRow("Average rating", dashboard.FormatRating(s.AverageRating))
	if s.BestModel != "" {
		t.AddRow("Best model", fmt.Sprintf("%s (%s)", s.BestModel, dashboard.FormatPercent(s.Accuracy)))
	}
	t.AddRow("Trend days", strconv.Itoa(len(ov.Trend)))
	if err := t.Render(); err != nil {
		return err
	}

	if !*save {
		return nil
	}
	st, err := e.snapshots()
	if err != nil {
		return err
	}
	defer st.Close()
	id, err := st.SaveSnapshot(e.ctx, source, ov)
	if err != nil {
		return err
	}
	pruned, err := st.PruneSnapshots(e.ctx, e.cfg.Storage.KeepSnapshots)
	if err != nil {
		return err
	}
	e.log.Debug("snapshot saved", "id", id, "pruned", pruned)
	return nil
}

func cmdTrend(e *env, args []string) error {
	fs := e.flags()
	page := fs.Int("page", 1, "page to show, 1-based")
	size := fs.Int("size", 0, "records per page: 5, 10, 15 or 20 (default from config)")
	showChart := fs.Bool("chart", false, "draw the page as a bar chart")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if *size == 0 {
		*size = e.cfg.Dashboard.PageSize
	}

	canvas := chart.NewCanvas(40)
	session, err := dashboard.NewSession(*size, canvas, e.log)
	if err != nil {
		return err
	}
	p, _ := e.provider()
	if err := session.Refresh(e.ctx, p); err != nil {
		return err
	}

	total := session.Page().Total
	if *page < 1 || *page > total {
		return fmt.Errorf("page %d out of range: trend has %d pages", *page, total)
	}
	for session.Page().Current < *page {
		session.Next()
	}

	if session.Len() == 0 {
		e.printer.Info("No trend data.")
		return nil
	}
	if *showChart {
		e.printer.Print("%s", canvas.String())
	} else {
		t := output.NewTable(e.printer.Out(), "Date", "Positive", "Negative", "Neutral", "Total")
		for _, r := range session.Visible() {
			t.AddRow(sentiment.FormatDate(r.Date),
				dashboard.FormatInt(r.Positive),
				dashboard.FormatInt(r.Negative),
				dashboard.FormatInt(r.Neutral),
				dashboard.FormatInt(r.Total()))
		}
		if err := t.Render(); err != nil {
			return err
		}
	}
	if session.NeedsPaging() {
		e.printer.Print("\n%s (%d per page, %d days)", session.Page(), session.PageSize(), session.Len())
	}
	return nil
}

func cmdModels(e *env, args []string) error {
	fs := e.flags()
	if err := e.parse(fs, args); err != nil {
		return err
	}

	models, err := e.client.Models(e.ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		e.printer.Info("No models available.")
		return nil
	}

	t := output.NewTable(e.printer.Out(), "Key", "Name", "Accuracy", "Precision", "Recall", "F1", "Description")
	for _, m := range models {
		t.AddRow(m.Key, m.Name,
			dashboard.FormatPercent(m.Accuracy),
			dashboard.FormatPercent(m.Precision),
			dashboard.FormatPercent(m.Recall),
			dashboard.FormatPercent(m.F1Score),
			m.Description)
	}
	return t.Render()
}

func cmdCompare(e *env, args []string) error {
	fs := e.flags()
	brands := fs.Int("brands", 10, "number of top brands to list")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	a, err := dashboard.LoadAnalytics(e.ctx, e.client)
	if err != nil {
		return err
	}

	e.printer.Header("Model Comparison")
	t := output.NewTable(e.printer.Out(), "Model", "Accuracy", "Precision", "Recall", "F1", "")
	for _, s := range a.Comparison {
		t.AddRow(s.Model,
			dashboard.FormatPercent(s.Accuracy),
			dashboard.FormatPercent(s.Precision),
			dashboard.FormatPercent(s.Recall),
			dashboard.FormatPercent(s.F1Score),
			chart.Meter(s.Accuracy, 20, chart.PositiveColor))
	}
	if err := t.Render(); err != nil {
		return err
	}

	top := dashboard.TopBrands(a.Overview.TopBrands, *brands)
	if len(top) == 0 {
		return nil
	}
	e.printer.Header("Top Brands")
	t = output.NewTable(e.printer.Out(), "Brand", "Mean", "Reviews")
	for _, b := range top {
		t.AddRow(b.Brand, fmt.Sprintf("%.2f", b.Mean), dashboard.FormatInt(b.Count))
	}
	return t.Render()
}

func cmdPredict(e *env, args []string) error {
	fs := e.flags()
	text := fs.String("text", "", "text to analyze")
	model := fs.String("model", "", "model key (default from config)")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if *model == "" {
		*model = e.cfg.Dashboard.DefaultModel
	}

	p, err := e.client.Predict(e.ctx, *text, *model)
	if err != nil {
		return err
	}

	e.printer.Print("%s %s  %s confidence  (%s)",
		p.Emoji, e.printer.Bold(e.printer.Sentiment(p.Sentiment)),
		dashboard.FormatConfidence(p.Confidence), p.ModelUsed)
	t := output.NewTable(e.printer.Out(), "Class", "Probability")
	t.AddRow(e.printer.Sentiment("positive"), dashboard.FormatPercent(p.Probabilities.Positive))
	t.AddRow(e.printer.Sentiment("negative"), dashboard.FormatPercent(p.Probabilities.Negative))
	t.AddRow(e.printer.Sentiment("neutral"), dashboard.FormatPercent(p.Probabilities.Neutral))
	if err := t.Render(); err != nil {
		return err
	}
	ta := p.TextAnalysis
	e.printer.Print("words %d  characters %d  polarity %s  subjectivity %.3f",
		ta.WordCount, ta.CharacterCount, dashboard.FormatSigned(ta.Polarity), ta.Subjectivity)
	return nil
}

func cmdBatch(e *env, args []string) error {
	fs := e.flags()
	file := fs.String("file", "", "file with one text per line (- for stdin)")
	model := fs.String("model", "", "model key (default from config)")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("batch: -file is required")
	}
	if *model == "" {
		*model = e.cfg.Dashboard.DefaultModel
	}

	var data []byte
	var err error
	if *file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(*file)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", *file, err)
	}

	texts := dashboard.SplitTexts(string(data))
	runner := &dashboard.BatchRunner{
		Predictor: e.client,
		ChunkSize: e.cfg.Batch.ChunkSize,
		Limiter:   util.NewRateLimiter(e.cfg.Batch.RateLimitPerMin),
		Log:       e.log,
		Progress: func(done, total int) {
			e.log.Info("batch progress", "done", done, "total", total)
		},
	}
	res, err := runner.Run(e.ctx, texts, *model)
	if err != nil {
		return err
	}

	t := output.NewTable(e.printer.Out(), "#", "Sentiment", "Confidence", "Text")
	for _, item := range res.Results {
		t.AddRow(strconv.Itoa(item.Index+1),
			e.printer.Sentiment(item.Sentiment),
			dashboard.FormatConfidence(item.Confidence),
			dashboard.Truncate(item.Text, 60))
	}
	if err := t.Render(); err != nil {
		return err
	}
	s := res.Summary
	e.printer.Success("Analyzed %d texts: %d positive, %d negative, %d neutral (%s)",
		s.TotalProcessed, s.Positive, s.Negative, s.Neutral, s.ModelUsed)
	return nil
}

func cmdWordCloud(e *env, args []string) error {
	fs := e.flags()
	out := fs.String("out", "wordcloud.png", "output image path")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	wc, err := e.client.WordCloud(e.ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, wc.Data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(wc.Data))
	if err != nil {
		e.printer.Warning("saved %s (%s, %d bytes) but could not read its size: %v", *out, wc.MediaType, len(wc.Data), err)
		return nil
	}
	e.printer.Success("Saved %s (%s %dx%d, %d bytes)", *out, format, cfg.Width, cfg.Height, len(wc.Data))
	return nil
}

func cmdExport(e *env, args []string) error {
	fs := e.flags()
	out := fs.String("out", "", "parquet file to write (default: merge into the data dir archive)")
	name := fs.String("name", "trend", "archive series name when -out is not set")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	p, _ := e.provider()
	ov, err := p.Overview(e.ctx)
	if err != nil {
		return err
	}

	if *out != "" {
		if err := store.WriteTrendFile(*out, ov.Trend); err != nil {
			return fmt.Errorf("writing %s: %w", *out, err)
		}
		e.printer.Success("Wrote %d trend records to %s", len(ov.Trend), *out)
		return nil
	}

	ps := store.NewParquetStore(e.cfg.Storage.DataDir)
	if err := ps.WriteTrend(e.ctx, *name, ov.Trend); err != nil {
		return err
	}
	merged, err := ps.ReadTrend(e.ctx, *name)
	if err != nil {
		return err
	}
	e.printer.Success("Merged %d trend records into %q (%d days archived)", len(ov.Trend), *name, len(merged))
	return nil
}

func cmdHistory(e *env, args []string) error {
	fs := e.flags()
	limit := fs.Int("limit", 20, "number of snapshots to list (0 for all)")
	if err := e.parse(fs, args); err != nil {
		return err
	}

	st, err := e.snapshots()
	if err != nil {
		return err
	}
	defer st.Close()

	snaps, err := st.ListSnapshots(e.ctx, *limit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		e.printer.Info("No snapshots stored.")
	} else {
		t := output.NewTable(e.printer.Out(), "ID", "Fetched", "Source", "Reviews", "Trend Days")
		for _, s := range snaps {
			t.AddRow(strconv.FormatInt(s.ID, 10),
				s.FetchedAt.Local().Format(time.DateTime),
				s.Source,
				dashboard.FormatInt(s.TotalReviews),
				strconv.Itoa(s.TrendPoints))
		}
		if err := t.Render(); err != nil {
			return err
		}
	}

	return printArchives(e, store.NewParquetStore(e.cfg.Storage.DataDir))
}

// printArchives lists the trend series written by export.
func printArchives(e *env, ps *store.ParquetStore) error {
	names, err := ps.ListTrends()
	if err != nil {
		return fmt.Errorf("listing trend archives: %w", err)
	}
	if len(names) == 0 {
		return nil
	}

	e.printer.Header("Trend Archives")
	t := output.NewTable(e.printer.Out(), "Series", "Days", "From", "To")
	for _, name := range names {
		records, err := ps.ReadTrend(e.ctx, name)
		if err != nil {
			return err
		}
		from, to := "-", "-"
		if len(records) > 0 {
			from = sentiment.FormatDate(records[0].Date)
			to = sentiment.FormatDate(records[len(records)-1].Date)
		}
		t.AddRow(name, strconv.Itoa(len(records)), from, to)
	}
	return t.Render()
}
