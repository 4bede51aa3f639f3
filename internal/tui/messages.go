package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"sentiboard/internal/dashboard"
	"sentiboard/internal/store"
	"sentiboard/pkg/sentiment"
)

// Messages.
type overviewLoadedMsg struct {
	token uint64
	ov    *sentiment.Overview
	err   error
}

type modelsLoadedMsg struct {
	models []sentiment.ModelInfo
	err    error
}

type analyticsLoadedMsg struct {
	token uint64
	data  *dashboard.Analytics
	err   error
}

type predictionMsg struct {
	text string
	pred *sentiment.Prediction
	err  error
}

type batchDoneMsg struct {
	texts []string
	res   *sentiment.BatchResult
	err   error
}

type snapshotLoadedMsg struct {
	snap *store.Snapshot
	err  error
}

type snapshotSavedMsg struct {
	id     int64
	pruned int
	err    error
}

type refreshTickMsg time.Time

type toastExpiredMsg struct{ seq int }

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

type toast struct {
	kind toastKind
	text string
	seq  int
}

func refreshTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

func toastExpireCmd(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}
