package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/tgvault/tgvault/internal/config"
	apperrors "github.com/tgvault/tgvault/internal/errors"
	"github.com/tgvault/tgvault/internal/indexer"
	"github.com/tgvault/tgvault/internal/logging"
	"github.com/tgvault/tgvault/internal/scanner"
	"github.com/tgvault/tgvault/internal/state"
	"github.com/tgvault/tgvault/internal/telegram"
	"github.com/tgvault/tgvault/internal/uploader"
)

var Version = "dev"

func main() {
	cmd := "sync"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	if err := run(cmd); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "sync":
		return runSync(ctx, cfg, logger)
	case "status":
		return runStatus(ctx, cfg, logger)
	case "history":
		return runHistory(cfg)
	default:
		return fmt.Errorf("unknown command %q (expected sync, status or history)", cmd)
	}
}

// logObserver forwards orchestrator events to the structured logger.
type logObserver struct {
	logger *slog.Logger
}

func (o logObserver) Progress(current, total int, label string) {
	o.logger.Debug("progress",
		slog.Int("current", current),
		slog.Int("total", total),
		slog.String("label", label),
	)
}

func (o logObserver) Log(level uploader.LogLevel, msg string) {
	switch level {
	case uploader.LevelWarning:
		o.logger.Warn(msg)
	case uploader.LevelError:
		o.logger.Error(msg)
	default:
		o.logger.Info(msg)
	}
}

func runSync(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR is required for sync")
	}

	logger.Info("tgvault starting",
		slog.String("version", Version),
		slog.String("dir", cfg.UploadDir),
		slog.Bool("update", cfg.UpdateMode),
		slog.Bool("watch", cfg.Watch),
	)

	appState, err := state.Load()
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	defer appState.Close()

	tg := telegram.NewClient(cfg.BotToken, nil, logger)
	index := indexer.NewClient(cfg.ServerURL, nil, logger)
	scan := scanner.New(logger)

	newUploader := func(update bool) *uploader.Uploader {
		return uploader.New(uploader.Config{
			BotToken:   cfg.BotToken,
			ChannelID:  cfg.ChannelID,
			UploadDir:  cfg.UploadDir,
			UpdateMode: update,
		}, tg, index, scan, appState, logObserver{logger: logger}, logger)
	}

	result := newUploader(cfg.UpdateMode).Run(ctx)
	report(logger, result)

	if !cfg.Watch {
		if result.Cancelled {
			return nil
		}

		if !result.Success {
			return errors.New(result.Message)
		}

		return nil
	}

	// Watch mode: stay alive, re-sync in update mode whenever the
	// directory settles after changes.
	watcher, err := uploader.NewWatcher(cfg.UploadDir, logger)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watcher.Run(gctx, func(runCtx context.Context) {
			report(logger, newUploader(true).Run(runCtx))
		})
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func report(logger *slog.Logger, result *uploader.Result) {
	attrs := []any{
		slog.Bool("success", result.Success),
		slog.Int("uploaded", result.Uploaded),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
	}

	if result.IsUpdate {
		attrs = append(attrs, slog.Float64("change_pct", result.ChangePercentage))
	}

	switch {
	case result.Cancelled:
		logger.Warn("run cancelled", attrs...)
	case result.Success:
		logger.Info("run complete", attrs...)
	default:
		logger.Error("run failed", append(attrs, slog.String("message", result.Message))...)
	}

	for _, w := range result.Warnings {
		logger.Warn(w)
	}

	for _, e := range result.Errors {
		logger.Error(e)
	}
}

func runStatus(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	index := indexer.NewClient(cfg.ServerURL, nil, logger)

	status, err := index.Status(ctx, cfg.BotToken)
	if errors.Is(err, apperrors.ErrTreeNotFound) {
		fmt.Println("bot is not registered on the index server")

		return nil
	}

	if err != nil {
		return err
	}

	fmt.Printf("bot:    @%s (%s)\n", status.BotUsername, status.BotID)
	fmt.Printf("status: %s\n", status.Status)
	fmt.Printf("owner registered: %v\n", status.OwnerRegistered)

	return nil
}

func runHistory(cfg *config.Config) error {
	appState, err := state.Load()
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	defer appState.Close()

	rec, found, err := appState.LastRun(cfg.BotToken)
	if err != nil {
		return err
	}

	if !found {
		fmt.Println("no runs recorded for this bot")

		return nil
	}

	outcome := "failed"
	switch {
	case rec.Cancelled:
		outcome = "cancelled"
	case rec.Success:
		outcome = "succeeded"
	}

	fmt.Printf("last run: %s (%s)\n", rec.Time.Format("2006-01-02 15:04:05"), outcome)
	fmt.Printf("uploaded %d, skipped %d, failed %d\n", rec.Uploaded, rec.Skipped, rec.Failed)

	if rec.UpdateMode {
		fmt.Printf("change: %.1f%%\n", rec.ChangePercentage)
	}

	if rec.Message != "" {
		fmt.Printf("message: %s\n", rec.Message)
	}

	return nil
}
