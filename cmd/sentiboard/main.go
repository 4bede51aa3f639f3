package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"sentiboard/internal/config"
	"sentiboard/internal/dashboard"
	"sentiboard/internal/store"
	"sentiboard/internal/tui"
	"sentiboard/internal/util"
	"sentiboard/pkg/sentiment"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default sentiboard.yaml)")
	fromFile := flag.String("from-file", "", "serve the dashboard trend from a parquet file instead of the API")
	flag.Parse()

	// .env is optional.
	_ = godotenv.Load()

	path, explicit := config.ResolvePath(*configPath)
	cfg, err := config.Load(path, explicit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logPath := cfg.Logging.File
	if logPath == "" {
		logPath = fmt.Sprintf("/tmp/sentiboard-%s.log", time.Now().Format("2006-01-02"))
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, logFile)
	util.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := sentiment.NewClient(cfg.API.BaseURL,
		sentiment.WithTimeout(cfg.API.Timeout),
		sentiment.WithLogger(logger))

	var trend dashboard.Provider = client
	source := client.BaseURL()
	if *fromFile != "" {
		trend = store.NewFileProvider(*fromFile)
		source = *fromFile
		logger.Info("serving trend from file", "path", *fromFile)
	} else {
		fmt.Fprint(os.Stderr, "checking backend...")
		if h, err := probeHealth(ctx, client, cfg, logger); err != nil {
			fmt.Fprintf(os.Stderr, " unreachable (%s)\n", sentiment.UserMessage(err))
		} else {
			fmt.Fprintf(os.Stderr, " %s, %d models\n", h.Status, h.ModelsLoaded)
		}
	}

	snapshots, err := store.NewSQLiteStore(cfg.Storage.SnapshotDB())
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening snapshot store: %v\n", err)
		os.Exit(1)
	}
	defer snapshots.Close()

	model, err := tui.New(tui.Options{
		API:       client,
		Trend:     trend,
		Snapshots: snapshots,
		Source:    source,
		Config:    cfg,
		Log:       logger,
		Context:   ctx,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// probeHealth checks the backend with retries. Failure is not fatal; the
// dashboard falls back to the latest snapshot.
func probeHealth(ctx context.Context, client *sentiment.Client, cfg *config.Config, logger *slog.Logger) (*sentiment.Health, error) {
	var h *sentiment.Health
	err := util.Retry(ctx, cfg.Startup.HealthAttempts, cfg.Startup.HealthDelay, func(ctx context.Context) error {
		var err error
		h, err = client.Health(ctx)
		if err != nil {
			logger.Debug("health probe failed", "error", err)
		}
		return err
	})
	if err != nil {
		logger.Warn("backend unreachable", "url", client.BaseURL(), "error", err)
		return nil, err
	}
	logger.Info("backend healthy", "status", h.Status, "models", h.ModelsLoaded)
	return h, nil
}
