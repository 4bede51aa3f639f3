package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"sentiboard/internal/config"
	"sentiboard/internal/dashboard"
	"sentiboard/internal/output"
	"sentiboard/internal/store"
	"sentiboard/internal/util"
	"sentiboard/pkg/sentiment"
)

const version = "0.1.0"

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: sentiboard-cli <command> [options]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  version    Print the CLI version\n")
	fmt.Fprintf(w, "  health     Check the backend health\n")
	fmt.Fprintf(w, "  overview   Show the analytics summary\n")
	fmt.Fprintf(w, "  trend      Show one page of the sentiment trend\n")
	fmt.Fprintf(w, "  models     List available models\n")
	fmt.Fprintf(w, "  compare    Compare models and list top brands\n")
	fmt.Fprintf(w, "  predict    Analyze a single text\n")
	fmt.Fprintf(w, "  batch      Analyze a file, one text per line\n")
	fmt.Fprintf(w, "  wordcloud  Save the word cloud image\n")
	fmt.Fprintf(w, "  export     Export the trend to parquet\n")
	fmt.Fprintf(w, "  history    List stored snapshots\n")
	fmt.Fprintf(w, "\nRun 'sentiboard-cli <command> -h' for command options.\n")
}

func main() {
	// .env is optional.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type commandFunc func(e *env, args []string) error

var commands = map[string]commandFunc{
	"health":    cmdHealth,
	"overview":  cmdOverview,
	"trend":     cmdTrend,
	"models":    cmdModels,
	"compare":   cmdCompare,
	"predict":   cmdPredict,
	"batch":     cmdBatch,
	"wordcloud": cmdWordCloud,
	"export":    cmdExport,
	"history":   cmdHistory,
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 1
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "sentiboard-cli %s\n", version)
		return 0
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return 0
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command: %s\n\n", args[0])
		usage(stderr)
		return 1
	}

	e := &env{ctx: ctx, name: args[0], stdout: stdout, stderr: stderr}
	if err := cmd(e, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		if e.printer != nil {
			e.printer.Error("%s", sentiment.UserMessage(err))
		} else {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
		if e.log != nil {
			e.log.Debug("command failed", "command", e.name, "error", err)
		}
		return 1
	}
	return 0
}

// env carries what every command needs once its flags are parsed.
type env struct {
	ctx    context.Context
	name   string
	stdout io.Writer
	stderr io.Writer

	configPath string
	fromFile   string
	colorMode  string

	cfg     *config.Config
	log     *slog.Logger
	printer *output.Printer
	client  *sentiment.Client
}

// flags returns a flag set for the command with the shared options
// registered.
func (e *env) flags() *flag.FlagSet {
	fs := flag.NewFlagSet(e.name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.StringVar(&e.configPath, "config", "", "path to config file (default sentiboard.yaml)")
	fs.StringVar(&e.fromFile, "from-file", "", "read the trend from a parquet file instead of the API")
	fs.StringVar(&e.colorMode, "color", "auto", "colour output: auto, always or never")
	return fs
}

// parse parses args and sets up config, logging, output and the API client.
func (e *env) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	mode, err := output.ParseColorMode(e.colorMode)
	if err != nil {
		return err
	}

	path, explicit := config.ResolvePath(e.configPath)
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	e.cfg = cfg
	e.log = util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, e.stderr)
	e.printer = output.NewPrinterWithWriters(e.stdout, e.stderr, output.ResolveColors(mode))
	e.client = sentiment.NewClient(cfg.API.BaseURL,
		sentiment.WithTimeout(cfg.API.Timeout),
		sentiment.WithLogger(e.log))
	return nil
}

// provider returns where the trend comes from: the -from-file parquet file
// or the API.
func (e *env) provider() (dashboard.Provider, string) {
	if e.fromFile != "" {
		return store.NewFileProvider(e.fromFile), e.fromFile
	}
	return e.client, e.client.BaseURL()
}

// snapshots opens the snapshot database.
func (e *env) snapshots() (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(e.cfg.Storage.SnapshotDB())
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}
	return st, nil
}
