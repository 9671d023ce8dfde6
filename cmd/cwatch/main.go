package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thinkwright/claude-watch/internal/claude"
	"github.com/thinkwright/claude-watch/internal/config"
	"github.com/thinkwright/claude-watch/internal/store"
	"github.com/thinkwright/claude-watch/internal/ui"
	"github.com/thinkwright/claude-watch/internal/watcher"
	"golang.org/x/term"
)

var version = "dev"

type flags struct {
	dir    string
	plain  bool
	poll   bool
	reset  bool
	recent int
}

func main() {
	var f flags
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v":
			fmt.Printf("cwatch %s\n", version)
			os.Exit(0)
		case "--plain":
			f.plain = true
		case "--poll":
			f.poll = true
		case "--reset":
			f.reset = true
		case "--ignore", "--unignore":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "%s requires a glob pattern\n", args[i])
				os.Exit(1)
			}
			msg, err := editIgnore(args[i+1], args[i] == "--ignore")
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				os.Exit(1)
			}
			fmt.Println(msg)
			os.Exit(0)
		case "--dir":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--dir requires a directory argument")
				os.Exit(1)
			}
			i++
			f.dir = args[i]
		case "--recent":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--recent requires a count")
				os.Exit(1)
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil || n <= 0 {
				fmt.Fprintf(os.Stderr, "not a valid count: %s\n", args[i])
				os.Exit(1)
			}
			f.recent = n
		default:
			fmt.Fprintf(os.Stderr, "unknown argument: %s\n", args[i])
			os.Exit(1)
		}
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		f.plain = true
	}

	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	cfg := config.Load()

	logOut := io.Writer(os.Stderr)
	if !f.plain {
		// The TUI owns the terminal, so logs go to a file.
		if err := os.MkdirAll(store.DataDir(), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		lf, err := os.OpenFile(filepath.Join(store.DataDir(), "cwatch.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer lf.Close()
		logOut = lf
	}
	logger := setupLogging(cfg.LogLevel, logOut, !f.plain)

	db, err := store.Open(store.DBPath())
	if err != nil {
		return fmt.Errorf("open activity store: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if f.reset {
		if err := db.Reset(ctx); err != nil {
			return fmt.Errorf("reset activity store: %w", err)
		}
		logger.Info("activity store reset")
	}

	if f.recent > 0 {
		return printRecent(ctx, db, f.recent)
	}

	if pruned, err := db.Prune(ctx, cfg.RetainActivity); err != nil {
		logger.Warn("prune activity", "error", err)
	} else if pruned > 0 {
		logger.Debug("pruned activity", "rows", pruned)
	}

	getenv := pollingEnv(f.poll)
	polling := getenv(watcher.PollingEnv) == "1"

	n := watcher.New(watcher.Options{Logger: logger, Ignore: cfg.IgnorePatterns, Getenv: getenv})
	n.Initialize(config.ResolveClaudeDir(f.dir, cfg, claude.ClaudeDir))
	root := n.Root()

	if projects, err := claude.DiscoverProjects(root); err != nil {
		logger.Warn("discover projects", "root", root, "error", err)
	} else {
		logger.Info("watching", "root", root, "projects", len(projects), "polling", polling)
	}

	rec := &recorder{ctx: ctx, root: root, db: db, logger: logger, now: time.Now}

	if f.plain {
		rec.sink = func(a store.Activity) {
			fmt.Println(ui.FormatLine(a, 0))
		}
		rec.subscribe(n)
		if err := n.Start(); err != nil {
			return err
		}
		<-ctx.Done()
		return n.Stop()
	}

	updates := make(chan store.Activity, 64)
	rec.sink = func(a store.Activity) {
		select {
		case updates <- a:
		default:
			logger.Debug("feed full, dropping activity", "kind", a.Kind)
		}
	}
	rec.subscribe(n)
	if err := n.Start(); err != nil {
		return err
	}

	backlog, err := db.Recent(ctx, cfg.FeedSize)
	if err != nil {
		logger.Warn("load backlog", "error", err)
	}
	totals, err := db.Counts(ctx)
	if err != nil {
		logger.Warn("load counts", "error", err)
	}

	p := tea.NewProgram(
		ui.NewModel(ui.Options{
			Root:     root,
			Polling:  polling,
			FeedSize: cfg.FeedSize,
			Backlog:  backlog,
			Totals:   totals,
			Updates:  updates,
		}),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, runErr := p.Run()
	if err := n.Stop(); err != nil {
		logger.Warn("stop watcher", "error", err)
	}
	close(updates)
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return nil
}

// pollingEnv returns the environment lookup handed to the notifier. With
// force set it reports polling on regardless of the real environment.
func pollingEnv(force bool) func(string) string {
	if !force {
		return os.Getenv
	}
	return func(key string) string {
		if key == watcher.PollingEnv {
			return "1"
		}
		return os.Getenv(key)
	}
}

// editIgnore adds or removes an ignore pattern in the saved config.
func editIgnore(pattern string, add bool) (string, error) {
	cfg := config.Load()
	if add {
		if !cfg.AddIgnorePattern(pattern) {
			return fmt.Sprintf("ignore pattern already configured: %s", pattern), nil
		}
		if err := config.Save(cfg); err != nil {
			return "", fmt.Errorf("save config: %w", err)
		}
		return fmt.Sprintf("added ignore pattern: %s", pattern), nil
	}
	if !cfg.RemoveIgnorePattern(pattern) {
		return "", fmt.Errorf("ignore pattern not found in config: %s", pattern)
	}
	if err := config.Save(cfg); err != nil {
		return "", fmt.Errorf("save config: %w", err)
	}
	return fmt.Sprintf("removed ignore pattern: %s", pattern), nil
}

func printRecent(ctx context.Context, db *store.Store, limit int) error {
	acts, err := db.Recent(ctx, limit)
	if err != nil {
		return err
	}
	for i := len(acts) - 1; i >= 0; i-- {
		fmt.Println(ui.FormatLine(acts[i], 0))
	}
	return nil
}

func setupLogging(level string, w io.Writer, asJSON bool) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if asJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}
