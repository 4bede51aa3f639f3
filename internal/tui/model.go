// Package tui is the interactive terminal dashboard: a bubbletea program with
// dashboard, analyze, batch, analytics and models sections.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"sentiboard/internal/chart"
	"sentiboard/internal/config"
	"sentiboard/internal/dashboard"
	"sentiboard/internal/pager"
	"sentiboard/internal/store"
	"sentiboard/internal/util"
	"sentiboard/pkg/sentiment"
)

// API is the backend surface the TUI uses.
type API interface {
	dashboard.AnalyticsSource
	Models(ctx context.Context) ([]sentiment.ModelInfo, error)
	Predict(ctx context.Context, text, model string) (*sentiment.Prediction, error)
	BatchPredict(ctx context.Context, texts []string, model string) (*sentiment.BatchResult, error)
}

// Options configures the TUI.
type Options struct {
	API API
	// Trend overrides the source of the dashboard overview, e.g. an offline
	// trend file. Defaults to API.
	Trend dashboard.Provider
	// Snapshots, if set, receives every successful overview; the latest one
	// is shown until the first live load completes.
	Snapshots store.SnapshotStore
	Source    string // recorded with snapshots
	Config    *config.Config
	Log       *slog.Logger
	Context   context.Context
}

type section int

const (
	sectionDashboard section = iota
	sectionAnalyze
	sectionBatch
	sectionAnalytics
	sectionModels
	sectionCount
)

var sectionNames = [...]string{"Dashboard", "Analyze", "Batch", "Analytics", "Models"}

func (s section) String() string { return sectionNames[s] }

// Model.
type model struct {
	api       API
	trend     dashboard.Provider
	snapshots store.SnapshotStore
	source    string
	cfg       *config.Config
	logger    *slog.Logger
	ctx       context.Context

	session *dashboard.Session
	canvas  *chart.Canvas

	section       section
	viewport      viewport.Model
	spinner       spinner.Model
	ready         bool
	width, height int
	editing       bool

	// Models.
	models      []sentiment.ModelInfo
	modelIdx    int
	modelsTable table.Model

	// Analyze.
	input      textinput.Model
	prediction *sentiment.Prediction
	analyzing  bool

	// Batch.
	batchInput   textarea.Model
	batchTable   table.Model
	batchResult  *sentiment.BatchResult
	batchRunning bool
	batchPending int

	// Analytics.
	analytics        *dashboard.Analytics
	analyticsToken   uint64
	analyticsLoading bool

	toast    *toast
	toastSeq int
}

// New builds the TUI model. Run it with tea.NewProgram.
func New(opts Options) (tea.Model, error) {
	m, err := newModel(opts)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newModel(opts Options) (model, error) {
	if opts.API == nil {
		return model{}, errors.New("tui: API is required")
	}
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load("", false); err != nil {
			return model{}, err
		}
	}
	logger := opts.Log
	if logger == nil {
		logger = slog.Default()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	trend := opts.Trend
	if trend == nil {
		trend = opts.API
	}

	policy := pager.ResetToFirst
	if !cfg.Dashboard.ResetOnChange {
		policy = pager.KeepPosition
	}
	canvas := chart.NewCanvas(40)
	session, err := dashboard.NewSession(cfg.Dashboard.PageSize, canvas, logger, pager.WithResetPolicy(policy))
	if err != nil {
		return model{}, fmt.Errorf("creating session: %w", err)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = controlStyle

	in := textinput.New()
	in.Placeholder = "Type a review to analyze..."
	in.CharLimit = 5000
	in.Width = 60

	ta := textarea.New()
	ta.Placeholder = "One review per line..."
	ta.SetWidth(60)
	ta.SetHeight(8)
	ta.CharLimit = 0

	return model{
		api:         opts.API,
		trend:       trend,
		snapshots:   opts.Snapshots,
		source:      opts.Source,
		cfg:         cfg,
		logger:      logger,
		ctx:         ctx,
		session:     session,
		canvas:      canvas,
		spinner:     sp,
		input:       in,
		batchInput:  ta,
		modelsTable: newModelsTable(),
		batchTable:  newBatchTable(),
	}, nil
}

func newModelsTable() table.Model {
	return table.New(
		table.WithColumns([]table.Column{
			{Title: "Model", Width: 22},
			{Title: "Accuracy", Width: 9},
			{Title: "Precision", Width: 9},
			{Title: "Recall", Width: 9},
			{Title: "F1", Width: 9},
			{Title: "Description", Width: 40},
		}),
		table.WithFocused(true),
		table.WithHeight(8),
	)
}

func newBatchTable() table.Model {
	return table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 4},
			{Title: "Text", Width: 44},
			{Title: "Sentiment", Width: 10},
			{Title: "Confidence", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		m.loadModelsCmd(),
		m.loadSnapshotCmd(),
	}
	if d := m.cfg.Dashboard.RefreshInterval; d > 0 {
		cmds = append(cmds, refreshTickCmd(d))
	}
	return tea.Batch(cmds...)
}

// initialLoadMsg starts the first overview load from inside the event loop,
// where the session token may be issued.
type initialLoadMsg struct{}

func (m model) loadSnapshotCmd() tea.Cmd {
	st := m.snapshots
	ctx := m.ctx
	if st == nil {
		return func() tea.Msg { return initialLoadMsg{} }
	}
	return func() tea.Msg {
		snap, err := st.LatestSnapshot(ctx)
		return snapshotLoadedMsg{snap: snap, err: err}
	}
}

// startOverviewLoad issues a new load token and returns the command that
// fetches the overview. It returns nil while a load is already in flight.
func (m *model) startOverviewLoad() tea.Cmd {
	if m.session.Loading() {
		return nil
	}
	token := m.session.BeginLoad()
	src := m.trend
	ctx := m.ctx
	m.logger.Debug("overview load", "token", token)
	return func() tea.Msg {
		ov, err := src.Overview(ctx)
		return overviewLoadedMsg{token: token, ov: ov, err: err}
	}
}

func (m model) loadModelsCmd() tea.Cmd {
	api := m.api
	ctx := m.ctx
	return func() tea.Msg {
		models, err := api.Models(ctx)
		return modelsLoadedMsg{models: models, err: err}
	}
}

func (m *model) startAnalyticsLoad() tea.Cmd {
	m.analyticsToken++
	m.analyticsLoading = true
	token := m.analyticsToken
	api := m.api
	ctx := m.ctx
	return func() tea.Msg {
		data, err := dashboard.LoadAnalytics(ctx, api)
		return analyticsLoadedMsg{token: token, data: data, err: err}
	}
}

func (m *model) startPrediction() tea.Cmd {
	if m.analyzing {
		return nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m.showToast(toastError, sentiment.UserMessage(sentiment.ErrEmptyText))
	}
	m.analyzing = true
	api := m.api
	ctx := m.ctx
	modelKey := m.currentModel()
	return func() tea.Msg {
		pred, err := api.Predict(ctx, text, modelKey)
		return predictionMsg{text: text, pred: pred, err: err}
	}
}

func (m *model) startBatch() tea.Cmd {
	if m.batchRunning {
		return nil
	}
	texts := dashboard.SplitTexts(m.batchInput.Value())
	if len(texts) == 0 {
		return m.showToast(toastError, sentiment.UserMessage(sentiment.ErrEmptyBatch))
	}
	m.batchRunning = true
	m.batchPending = len(texts)
	runner := &dashboard.BatchRunner{
		Predictor: m.api,
		ChunkSize: m.cfg.Batch.ChunkSize,
		Limiter:   util.NewRateLimiter(m.cfg.Batch.RateLimitPerMin),
		Log:       m.logger,
	}
	ctx := m.ctx
	modelKey := m.currentModel()
	return func() tea.Msg {
		res, err := runner.Run(ctx, texts, modelKey)
		return batchDoneMsg{texts: texts, res: res, err: err}
	}
}

func (m model) saveSnapshotCmd(ov *sentiment.Overview) tea.Cmd {
	st := m.snapshots
	if st == nil || ov == nil {
		return nil
	}
	ctx := m.ctx
	source := m.source
	keep := m.cfg.Storage.KeepSnapshots
	return func() tea.Msg {
		id, err := st.SaveSnapshot(ctx, source, ov)
		if err != nil {
			return snapshotSavedMsg{err: err}
		}
		pruned, err := st.PruneSnapshots(ctx, keep)
		return snapshotSavedMsg{id: id, pruned: pruned, err: err}
	}
}

// showToast replaces the current toast and schedules its expiry.
func (m *model) showToast(kind toastKind, text string) tea.Cmd {
	m.toastSeq++
	m.toast = &toast{kind: kind, text: text, seq: m.toastSeq}
	return toastExpireCmd(m.cfg.Dashboard.ToastDuration, m.toastSeq)
}

func (m model) currentModel() string {
	if len(m.models) == 0 {
		return m.cfg.Dashboard.DefaultModel
	}
	return m.models[m.modelIdx].Key
}

func (m model) currentModelName() string {
	if len(m.models) == 0 {
		return m.cfg.Dashboard.DefaultModel
	}
	return m.models[m.modelIdx].Name
}

func (m model) busy() bool {
	return m.session.Loading() || m.analyzing || m.batchRunning || m.analyticsLoading
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	if m.ready {
		m.viewport.SetContent(m.renderContent())
	}
	return m, cmd
}

func (m model) update(msg tea.Msg) (model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerH := 1
		footerH := 2 // toast line + key help
		vpHeight := m.height - headerH - footerH
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.canvas.Width = max(10, m.width-32)
		m.session.Redraw()
		m.input.Width = max(20, m.width-8)
		m.batchInput.SetWidth(max(20, m.width-8))
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case initialLoadMsg:
		return m, m.startOverviewLoad()

	case snapshotLoadedMsg:
		switch {
		case msg.err == nil:
			if m.session.Seed(msg.snap.Overview, msg.snap.FetchedAt) {
				m.logger.Info("seeded from snapshot", "id", msg.snap.ID, "fetched_at", msg.snap.FetchedAt)
			}
		case errors.Is(msg.err, store.ErrNoSnapshot):
		default:
			m.logger.Warn("loading snapshot", "error", msg.err)
		}
		return m, m.startOverviewLoad()

	case overviewLoadedMsg:
		if msg.err != nil {
			if !m.session.FailLoad(msg.token, msg.err) {
				return m, nil
			}
			m.logger.Error("loading overview", "error", msg.err)
			return m, m.showToast(toastError, sentiment.UserMessage(msg.err))
		}
		if !m.session.ApplyOverview(msg.token, msg.ov) {
			return m, nil
		}
		return m, m.saveSnapshotCmd(msg.ov)

	case snapshotSavedMsg:
		if msg.err != nil {
			m.logger.Warn("saving snapshot", "error", msg.err)
		} else {
			m.logger.Debug("snapshot saved", "id", msg.id, "pruned", msg.pruned)
		}
		return m, nil

	case modelsLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("loading models", "error", msg.err)
			return m, m.showToast(toastError, sentiment.UserMessage(msg.err))
		}
		m.setModels(msg.models)
		return m, nil

	case analyticsLoadedMsg:
		if msg.token != m.analyticsToken {
			m.logger.Debug("discarding stale analytics", "token", msg.token, "latest", m.analyticsToken)
			return m, nil
		}
		m.analyticsLoading = false
		if msg.err != nil {
			m.logger.Error("loading analytics", "error", msg.err)
			return m, m.showToast(toastError, sentiment.UserMessage(msg.err))
		}
		m.analytics = msg.data
		return m, nil

	case predictionMsg:
		m.analyzing = false
		if msg.err != nil {
			m.logger.Error("predict", "error", msg.err)
			return m, m.showToast(toastError, sentiment.UserMessage(msg.err))
		}
		m.prediction = msg.pred
		return m, m.showToast(toastSuccess, "Analysis completed successfully!")

	case batchDoneMsg:
		m.batchRunning = false
		m.batchPending = 0
		if msg.err != nil {
			m.logger.Error("batch predict", "texts", len(msg.texts), "error", msg.err)
			return m, m.showToast(toastError, sentiment.UserMessage(msg.err))
		}
		m.setBatchResult(msg.res)
		return m, m.showToast(toastSuccess, fmt.Sprintf("Analyzed %d texts successfully!", msg.res.Summary.TotalProcessed))

	case toastExpiredMsg:
		if m.toast != nil && m.toast.seq == msg.seq {
			m.toast = nil
		}
		return m, nil

	case refreshTickMsg:
		return m, tea.Batch(m.startOverviewLoad(), refreshTickCmd(m.cfg.Dashboard.RefreshInterval))
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// updateKeys handles keys while no input has focus.
func (m model) updateKeys(msg tea.KeyMsg) (model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		return m.switchSection((m.section + 1) % sectionCount)
	case "shift+tab":
		return m.switchSection((m.section + sectionCount - 1) % sectionCount)
	case "1", "2", "3", "4", "5":
		return m.switchSection(section(msg.String()[0] - '1'))
	case "r":
		if m.section == sectionAnalytics {
			return m, m.startAnalyticsLoad()
		}
		if m.section == sectionModels {
			return m, m.loadModelsCmd()
		}
		return m, m.startOverviewLoad()
	}

	switch m.section {
	case sectionDashboard:
		if m.navigate(msg.String()) {
			m.viewport.GotoTop()
			return m, nil
		}
	case sectionAnalyze:
		switch msg.String() {
		case "i", "enter":
			m.editing = true
			return m, m.input.Focus()
		case "m":
			m.cycleModel()
			return m, nil
		}
	case sectionBatch:
		switch msg.String() {
		case "i", "enter":
			m.editing = true
			return m, m.batchInput.Focus()
		case "m":
			m.cycleModel()
			return m, nil
		case "ctrl+s":
			return m, m.startBatch()
		case "up", "down", "pgup", "pgdown":
			if m.batchResult != nil {
				m.batchTable, cmd = m.batchTable.Update(msg)
				return m, cmd
			}
		}
	case sectionModels:
		m.modelsTable, cmd = m.modelsTable.Update(msg)
		return m, cmd
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// navigate applies a pagination key to the dashboard. Keys are ignored while
// a load is in flight. It reports whether the page changed.
func (m *model) navigate(key string) bool {
	if m.session.Loading() {
		return false
	}
	switch key {
	case "left", "h":
		return m.session.Previous()
	case "right", "l":
		return m.session.Next()
	case "home", "g":
		return m.session.First()
	case "end", "G":
		return m.session.Last()
	case "s":
		if err := m.session.CyclePageSize(); err != nil {
			m.logger.Warn("page size", "error", err)
			return false
		}
		return true
	}
	return false
}

// updateEditing routes keys to the focused input.
func (m model) updateEditing(msg tea.KeyMsg) (model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.editing = false
		m.input.Blur()
		m.batchInput.Blur()
		return m, nil
	}

	if m.section == sectionAnalyze {
		if msg.String() == "enter" {
			return m, m.startPrediction()
		}
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if msg.String() == "ctrl+s" {
		return m, m.startBatch()
	}
	m.batchInput, cmd = m.batchInput.Update(msg)
	return m, cmd
}

func (m model) switchSection(s section) (model, tea.Cmd) {
	if s < 0 || s >= sectionCount {
		return m, nil
	}
	m.section = s
	m.viewport.GotoTop()
	if s == sectionAnalytics && m.analytics == nil && !m.analyticsLoading {
		return m, m.startAnalyticsLoad()
	}
	return m, nil
}

func (m *model) setModels(models []sentiment.ModelInfo) {
	m.models = models
	m.modelIdx = 0
	rows := make([]table.Row, len(models))
	for i, mi := range models {
		if mi.Key == m.cfg.Dashboard.DefaultModel {
			m.modelIdx = i
		}
		rows[i] = table.Row{
			mi.Name,
			dashboard.FormatPercent(mi.Accuracy),
			dashboard.FormatPercent(mi.Precision),
			dashboard.FormatPercent(mi.Recall),
			dashboard.FormatPercent(mi.F1Score),
			mi.Description,
		}
	}
	m.modelsTable.SetRows(rows)
	m.modelsTable.SetHeight(min(len(rows)+1, 12))
}

func (m *model) cycleModel() {
	if len(m.models) == 0 {
		return
	}
	m.modelIdx = (m.modelIdx + 1) % len(m.models)
}

func (m *model) setBatchResult(res *sentiment.BatchResult) {
	m.batchResult = res
	rows := make([]table.Row, len(res.Results))
	for i, item := range res.Results {
		rows[i] = table.Row{
			fmt.Sprint(item.Index + 1),
			dashboard.Truncate(item.Text, 44),
			item.Emoji + " " + item.Sentiment,
			dashboard.FormatConfidence(item.Confidence),
		}
	}
	m.batchTable.SetRows(rows)
	m.batchTable.GotoTop()
}

// since reports how long ago t was, for the data-age line.
func since(now, t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return now.Sub(t).Round(time.Second).String() + " ago"
}
