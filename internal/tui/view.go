package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"sentiboard/internal/chart"
	"sentiboard/internal/dashboard"
	"sentiboard/pkg/sentiment"
)

var seriesColors = []lipgloss.Color{chart.PositiveColor, chart.NegativeColor, chart.NeutralColor}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return m.renderHeader() + "\n" + m.viewport.View() + "\n" + m.renderToast() + "\n" + m.renderFooter()
}

func (m model) renderHeader() string {
	var tabs []string
	for s := section(0); s < sectionCount; s++ {
		label := fmt.Sprintf(" %d %s ", s+1, s)
		if s == m.section {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	left := headerStyle.Render(" sentiboard ") + strings.Join(tabs, "")

	right := m.currentModelName() + " "
	if m.busy() {
		right = m.spinner.View() + " " + right
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + headerStyle.Render(strings.Repeat(" ", gap)+right)
}

func (m model) renderToast() string {
	if m.toast == nil {
		return ""
	}
	return toastStyles[m.toast.kind].Render(" " + m.toast.text + " ")
}

func (m model) renderFooter() string {
	var help string
	switch {
	case m.editing && m.section == sectionAnalyze:
		help = " enter:analyze  esc:done"
	case m.editing:
		help = " ctrl+s:analyze all  esc:done"
	default:
		switch m.section {
		case sectionDashboard:
			help = " ←/→:page  g/G:first/last  s:page size  r:refresh  tab:section  q:quit"
		case sectionAnalyze:
			help = " i:type  m:model  tab:section  q:quit"
		case sectionBatch:
			help = " i:type  ctrl+s:analyze  m:model  ↑/↓:results  tab:section  q:quit"
		case sectionAnalytics:
			help = " r:refresh  ↑/↓:scroll  tab:section  q:quit"
		case sectionModels:
			help = " ↑/↓:select  r:refresh  tab:section  q:quit"
		}
	}
	return footerStyle.Render(padOrTrunc(help, m.width))
}

func (m model) renderContent() string {
	switch m.section {
	case sectionAnalyze:
		return m.renderAnalyze()
	case sectionBatch:
		return m.renderBatch()
	case sectionAnalytics:
		return m.renderAnalytics()
	case sectionModels:
		return m.renderModels()
	default:
		return m.renderDashboard()
	}
}

// --- Dashboard ---

func (m model) renderDashboard() string {
	var b strings.Builder
	ov := m.session.Overview()

	switch {
	case ov == nil && m.session.Loading():
		b.WriteString("\n  " + dimStyle.Render("Loading analytics...") + "\n")
		return b.String()
	case ov == nil && m.session.Err() != nil:
		b.WriteString("\n  " + negativeStyle.Render(sentiment.UserMessage(m.session.Err())) + "\n")
		b.WriteString("  " + dimStyle.Render("Press r to retry.") + "\n")
		return b.String()
	}

	if m.session.Seeded() {
		b.WriteString(snapshotStyle.Render(" OFFLINE SNAPSHOT ") + " " +
			dimStyle.Render("saved "+since(time.Now(), m.session.LoadedAt())) + "\n")
	}

	stats := dashboard.ComputeStats(ov)
	b.WriteString(m.renderCards(stats) + "\n")

	b.WriteString(titleStyle.Render("Sentiment Distribution") + "\n")
	total := stats.Positive + stats.Negative + stats.Neutral
	b.WriteString("  " + chart.Stacked(stats.Counts(), total, max(10, m.width-6), seriesColors) + "\n")
	b.WriteString(fmt.Sprintf("  %s %s  %s %s  %s %s\n\n",
		positiveStyle.Render("positive"), dashboard.FormatPercent(stats.PositiveShare),
		negativeStyle.Render("negative"), dashboard.FormatPercent(stats.NegativeShare),
		neutralStyle.Render("neutral"), dashboard.FormatPercent(stats.NeutralShare)))

	b.WriteString(titleStyle.Render("Sentiment Trend") + "\n")
	b.WriteString(m.canvas.String() + "\n")
	if controls := m.renderPageControls(); controls != "" {
		b.WriteString("\n" + controls + "\n")
	}

	age := "updated " + since(time.Now(), m.session.LoadedAt())
	if err := m.session.Err(); err != nil {
		age += "  " + negativeStyle.Render("last refresh failed: "+sentiment.UserMessage(err))
	}
	b.WriteString("\n" + dimStyle.Render("  "+age) + "\n")
	return b.String()
}

func (m model) renderCards(s dashboard.Stats) string {
	card := func(label, value string, style lipgloss.Style) string {
		return cardStyle.Render(dimStyle.Render(label) + "\n" + style.Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total Reviews", dashboard.FormatCount(s.TotalReviews), valueStyle),
		card("Positive", dashboard.FormatPercent(s.PositiveShare), positiveStyle),
		card("Negative", dashboard.FormatPercent(s.NegativeShare), negativeStyle),
		card("Avg Rating", dashboard.FormatRating(s.AverageRating), valueStyle),
		card("Best Model", s.BestModel+" "+dashboard.FormatPercent(s.Accuracy), valueStyle),
	)
}

// renderPageControls draws the trend pager. It returns "" when the trend
// fits on one page.
func (m model) renderPageControls() string {
	if !m.session.NeedsPaging() {
		return ""
	}
	prev := controlStyle.Render("◀ Previous")
	if !m.session.HasPrevious() || m.session.Loading() {
		prev = disabledStyle.Render("◀ Previous")
	}
	next := controlStyle.Render("Next ▶")
	if !m.session.HasNext() || m.session.Loading() {
		next = disabledStyle.Render("Next ▶")
	}
	return fmt.Sprintf("  %s   %s   %s   %s",
		prev, valueStyle.Render(m.session.Page().String()), next,
		dimStyle.Render(fmt.Sprintf("%d per page · %d days", m.session.PageSize(), m.session.Len())))
}

// --- Analyze ---

func (m model) renderAnalyze() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Analyze Text") + "  " + dimStyle.Render("model: "+m.currentModelName()) + "\n\n")
	b.WriteString("  " + m.input.View() + "\n\n")

	if m.analyzing {
		b.WriteString("  " + m.spinner.View() + " Analyzing...\n")
		return b.String()
	}
	p := m.prediction
	if p == nil {
		b.WriteString("  " + dimStyle.Render("Press i to start typing, enter to analyze.") + "\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  %s %s  %s\n\n",
		p.Emoji, sentimentStyle(p.Sentiment).Render(strings.ToUpper(p.Sentiment)),
		dimStyle.Render(dashboard.FormatConfidence(p.Confidence)+" confidence · "+p.ModelUsed)))

	width := max(10, min(40, m.width-24))
	probs := []struct {
		name  string
		v     float64
		color lipgloss.Color
	}{
		{"positive", p.Probabilities.Positive, chart.PositiveColor},
		{"negative", p.Probabilities.Negative, chart.NegativeColor},
		{"neutral", p.Probabilities.Neutral, chart.NeutralColor},
	}
	for _, pr := range probs {
		b.WriteString(fmt.Sprintf("  %-9s %s %s\n", pr.name, chart.Meter(pr.v, width, pr.color), dashboard.FormatPercent(pr.v)))
	}

	ta := p.TextAnalysis
	b.WriteString("\n" + titleStyle.Render("Text Analysis") + "\n")
	b.WriteString(fmt.Sprintf("  words %s  characters %s  polarity %s  subjectivity %s\n",
		valueStyle.Render(dashboard.FormatInt(ta.WordCount)),
		valueStyle.Render(dashboard.FormatInt(ta.CharacterCount)),
		valueStyle.Render(dashboard.FormatSigned(ta.Polarity)),
		valueStyle.Render(fmt.Sprintf("%.3f", ta.Subjectivity))))
	return b.String()
}

// --- Batch ---

func (m model) renderBatch() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Batch Analysis") + "  " + dimStyle.Render("model: "+m.currentModelName()) + "\n\n")
	b.WriteString(m.batchInput.View() + "\n")
	n := len(dashboard.SplitTexts(m.batchInput.Value()))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d texts", n)) + "\n\n")

	if m.batchRunning {
		b.WriteString("  " + m.spinner.View() + fmt.Sprintf(" Analyzing %d texts...\n", m.batchPending))
		return b.String()
	}
	res := m.batchResult
	if res == nil {
		return b.String()
	}

	s := res.Summary
	b.WriteString(fmt.Sprintf("  processed %s  %s %d  %s %d  %s %d  %s\n\n",
		valueStyle.Render(dashboard.FormatInt(s.TotalProcessed)),
		positiveStyle.Render("positive"), s.Positive,
		negativeStyle.Render("negative"), s.Negative,
		neutralStyle.Render("neutral"), s.Neutral,
		dimStyle.Render(s.ModelUsed)))
	b.WriteString(m.batchTable.View() + "\n")
	return b.String()
}

// --- Analytics ---

func (m model) renderAnalytics() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Analytics") + "\n\n")
	a := m.analytics
	if a == nil {
		if m.analyticsLoading {
			b.WriteString("  " + m.spinner.View() + " Loading analytics...\n")
		} else {
			b.WriteString("  " + dimStyle.Render("Press r to load analytics.") + "\n")
		}
		return b.String()
	}

	b.WriteString(titleStyle.Render("Sentiment Timeline") + "\n")
	styles := []lipgloss.Style{positiveStyle, negativeStyle, neutralStyle}
	for i, s := range dashboard.TimelineSparklines(a.Overview.Trend, m.cfg.Dashboard.TimelinePoints) {
		b.WriteString(fmt.Sprintf("  %-9s %s\n", s.Name, styles[i%len(styles)].Render(chart.Sparkline(s.Values))))
	}

	b.WriteString("\n" + titleStyle.Render("Top Brands") + "\n")
	brands := dashboard.TopBrands(a.Overview.TopBrands, 10)
	if len(brands) == 0 {
		b.WriteString("  " + dimStyle.Render("(no brand data)") + "\n")
	}
	for _, br := range brands {
		b.WriteString(fmt.Sprintf("  %-20s %s %s  %s\n",
			dashboard.Truncate(br.Brand, 20),
			chart.Meter(br.Mean/5, 20, chart.NeutralColor),
			valueStyle.Render(fmt.Sprintf("%.2f", br.Mean)),
			dimStyle.Render(dashboard.FormatCount(br.Count)+" reviews")))
	}

	b.WriteString("\n" + titleStyle.Render("Model Comparison") + "\n")
	if len(a.Comparison) == 0 {
		b.WriteString("  " + dimStyle.Render("(no comparison data)") + "\n")
	}
	for _, sc := range a.Comparison {
		b.WriteString(fmt.Sprintf("  %-22s %s %s  P %s  R %s  F1 %s\n",
			dashboard.Truncate(sc.Model, 22),
			chart.Meter(sc.Accuracy, 20, chart.PositiveColor),
			valueStyle.Render(dashboard.FormatPercent(sc.Accuracy)),
			dashboard.FormatPercent(sc.Precision),
			dashboard.FormatPercent(sc.Recall),
			dashboard.FormatPercent(sc.F1Score)))
	}
	return b.String()
}

// --- Models ---

func (m model) renderModels() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Models") + "\n\n")
	if len(m.models) == 0 {
		b.WriteString("  " + dimStyle.Render("No models loaded. Press r to retry.") + "\n")
		return b.String()
	}
	b.WriteString(m.modelsTable.View() + "\n\n")
	b.WriteString(dimStyle.Render("  active: ") + valueStyle.Render(m.currentModelName()) + "\n")
	return b.String()
}
