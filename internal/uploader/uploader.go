// Package uploader drives one synchronization run end to end: validate,
// scan, diff against the persisted tree, delete obsolete channel messages,
// upload pending files, and persist the merged tree to the index server.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/tgvault/tgvault/internal/errors"
	"github.com/tgvault/tgvault/internal/indexer"
	"github.com/tgvault/tgvault/internal/retry"
	"github.com/tgvault/tgvault/internal/scanner"
	"github.com/tgvault/tgvault/internal/state"
	"github.com/tgvault/tgvault/internal/telegram"
	"github.com/tgvault/tgvault/internal/tree"
)

// LogLevel classifies observer log events, mirroring how the UI renders
// them rather than slog severity.
type LogLevel int

const (
	LevelInfo LogLevel = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// Observer receives progress and log events from a run. Methods are
// invoked from the orchestrator's goroutine and must not block.
type Observer interface {
	Progress(current, total int, label string)
	Log(level LogLevel, msg string)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) Progress(current, total int, label string) {}
func (NopObserver) Log(level LogLevel, msg string)            {}

// transferClient is the slice of the Telegram client the orchestrator
// uses. Extracted for testability.
type transferClient interface {
	ValidateToken(ctx context.Context) (*telegram.BotIdentity, error)
	CheckChannelAccess(ctx context.Context, channelID string) (*telegram.ChannelAccess, error)
	SendDocument(ctx context.Context, channelID, localPath string) (*telegram.UploadedObject, error)
	DeleteMessage(ctx context.Context, channelID string, messageID int64) bool
}

// indexClient is the slice of the index server client the orchestrator uses.
type indexClient interface {
	Probe(ctx context.Context) error
	FetchTree(ctx context.Context, botToken string) (*tree.Node, error)
	PersistTree(ctx context.Context, botToken, channelID, botUsername string, treeData []byte) (*indexer.PersistResult, error)
}

// dirScanner builds the local tree.
type dirScanner interface {
	Scan(root string, progress scanner.ProgressFunc) (*tree.Node, *scanner.Summary, error)
}

// runStore records run history; *state.State satisfies it.
type runStore interface {
	SaveRun(botToken string, rec state.RunRecord) error
}

// Result is the terminal outcome of a run.
type Result struct {
	Success   bool
	Cancelled bool
	Message   string

	BotID            string
	Status           string
	IsUpdate         bool
	ChangePercentage float64

	Uploaded int
	Skipped  int
	Failed   int

	Errors   []string
	Warnings []string
}

// Config carries the per-run parameters.
type Config struct {
	BotToken   string
	ChannelID  string
	UploadDir  string
	UpdateMode bool
}

// Uploader sequences one run. It owns the merged tree for the duration of
// the run; nothing else mutates it.
//
// If the process dies between uploading files and persisting the tree,
// those uploads are orphaned in the channel: a later update run sees the
// files as added again and re-uploads them. There is no reconciliation
// sweep; duplicate channel messages are the accepted cost.
type Uploader struct {
	cfg      Config
	telegram transferClient
	index    indexClient
	scanner  dirScanner
	store    runStore
	observer Observer
	logger   *slog.Logger
}

// New wires an Uploader from concrete clients. store may be nil to skip
// run-history recording; observer may be nil to discard events.
func New(cfg Config, tg *telegram.Client, ix *indexer.Client, sc *scanner.Scanner, st *state.State, obs Observer, logger *slog.Logger) *Uploader {
	u := &Uploader{
		cfg:      cfg,
		telegram: tg,
		index:    ix,
		scanner:  sc,
		observer: obs,
		logger:   logger,
	}

	if st != nil {
		u.store = st
	}

	if obs == nil {
		u.observer = NopObserver{}
	}

	return u
}

// Run executes the full pipeline. Cancellation is cooperative: ctx is
// checked at every state boundary and between files, the current step
// finishes, and completed uploads/deletions stay in the channel.
func (u *Uploader) Run(ctx context.Context) *Result {
	result := u.run(ctx)
	u.record(result)

	return result
}

func (u *Uploader) run(ctx context.Context) *Result {
	result := &Result{}

	// Validating.
	botUsername, ok := u.validate(ctx, result)
	if !ok {
		return result
	}

	if cancelled(ctx, result) {
		return result
	}

	// Scanning.
	u.observer.Log(LevelInfo, "Scanning directory...")

	root, summary, err := u.scanner.Scan(u.cfg.UploadDir, u.observer.Progress)
	if err != nil {
		return fail(result, fmt.Sprintf("Failed to scan directory: %v", err))
	}

	result.Errors = append(result.Errors, summary.Errors...)
	result.Warnings = append(result.Warnings, summary.Warnings...)

	u.observer.Log(LevelSuccess, fmt.Sprintf("Found %d files in %d folders (%.2f MB)",
		summary.Files, summary.Folders, float64(summary.TotalBytes)/(1024*1024)))

	if cancelled(ctx, result) {
		return result
	}

	// Diffing (update mode only).
	pending, deletions, err := u.plan(ctx, root, result)
	if err != nil {
		return fail(result, err.Error())
	}

	if cancelled(ctx, result) {
		return result
	}

	// Deleting.
	u.deleteObsolete(ctx, deletions, result)

	if cancelled(ctx, result) {
		return result
	}

	// Transferring.
	if !u.transfer(ctx, root, pending, result) {
		return result
	}

	if cancelled(ctx, result) {
		return result
	}

	// Persisting.
	u.persist(ctx, root, botUsername, result)

	return result
}

func cancelled(ctx context.Context, result *Result) bool {
	if ctx.Err() == nil {
		return false
	}

	result.Cancelled = true
	result.Message = "Upload cancelled"

	return true
}

func fail(result *Result, msg string) *Result {
	result.Message = msg
	result.Errors = append(result.Errors, msg)

	return result
}

// validate runs the credential, permission and connectivity checks. The
// first failure aborts the run with that failure's message.
func (u *Uploader) validate(ctx context.Context, result *Result) (string, bool) {
	u.observer.Log(LevelInfo, "Validating bot token...")

	bot, err := u.telegram.ValidateToken(ctx)
	if err != nil {
		fail(result, fmt.Sprintf("Invalid bot token: %v", err))

		return "", false
	}

	u.observer.Log(LevelSuccess, "Bot validated: @"+bot.Username)
	u.observer.Log(LevelInfo, "Checking channel access...")

	access, err := u.telegram.CheckChannelAccess(ctx, u.cfg.ChannelID)
	if err != nil {
		fail(result, fmt.Sprintf("Channel error: %v", err))

		return "", false
	}

	title := access.Title
	if title == "" {
		title = u.cfg.ChannelID
	}

	u.observer.Log(LevelSuccess, "Channel access confirmed: "+title)
	u.observer.Log(LevelInfo, "Checking index server...")

	if err := u.index.Probe(ctx); err != nil {
		fail(result, fmt.Sprintf("Index server error: %v", err))

		return "", false
	}

	u.observer.Log(LevelSuccess, "Index server connection OK")

	return bot.Username, true
}

// plan decides what to upload and what to delete. In update mode it
// fetches the previous tree and merges identifiers for unchanged paths; a
// missing previous tree degrades to a fresh upload rather than failing.
func (u *Uploader) plan(ctx context.Context, root *tree.Node, result *Result) ([]tree.PathedEntry, []*tree.FileEntry, error) {
	if !u.cfg.UpdateMode {
		pending, err := tree.Flatten(root)
		if err != nil {
			return nil, nil, err
		}

		return pending, nil, nil
	}

	u.observer.Log(LevelInfo, "Update mode: fetching previous tree...")

	previous, err := u.index.FetchTree(ctx, u.cfg.BotToken)
	if errors.Is(err, apperrors.ErrTreeNotFound) {
		u.observer.Log(LevelWarning, "No previous tree found, treating as fresh upload")
		result.Warnings = append(result.Warnings, "no previous tree found, uploaded everything")

		pending, err := tree.Flatten(root)
		if err != nil {
			return nil, nil, err
		}

		return pending, nil, nil
	}

	if err != nil {
		return nil, nil, fmt.Errorf("fetching previous tree: %w", err)
	}

	changes, err := tree.Diff(previous, root)
	if err != nil {
		return nil, nil, err
	}

	result.IsUpdate = true
	result.ChangePercentage = changes.ChangePercentage()
	result.Skipped = len(changes.Unchanged)

	u.observer.Log(LevelInfo, fmt.Sprintf(
		"Changes: %d added, %d removed, %d modified, %d unchanged (%.1f%% change)",
		len(changes.Added), len(changes.Removed), len(changes.Modified),
		len(changes.Unchanged), result.ChangePercentage))

	if err := tree.Merge(previous, changes, root); err != nil {
		return nil, nil, err
	}

	pending, err := tree.PendingTransfers(root)
	if err != nil {
		return nil, nil, err
	}

	return pending, tree.PendingDeletions(changes), nil
}

// deleteObsolete removes channel messages for removed and replaced files.
// Individual failures are logged and skipped; deletion is best-effort.
func (u *Uploader) deleteObsolete(ctx context.Context, deletions []*tree.FileEntry, result *Result) {
	if len(deletions) == 0 {
		return
	}

	u.observer.Log(LevelInfo, fmt.Sprintf("Removing %d obsolete files from channel...", len(deletions)))

	for _, f := range deletions {
		if ctx.Err() != nil {
			return
		}

		if f.MessageID <= 0 {
			continue
		}

		if !u.telegram.DeleteMessage(ctx, u.cfg.ChannelID, f.MessageID) {
			msg := fmt.Sprintf("could not delete old message for %q", f.Name)
			u.observer.Log(LevelWarning, msg)
			result.Warnings = append(result.Warnings, msg)
		}
	}

	u.observer.Log(LevelSuccess, "Obsolete files removed")
}

// transfer uploads every pending file in scan order, writing identifiers
// back into the tree. One file's failure never aborts the batch; a
// writeback to a missing path does, because it means the tree and the
// pending list have diverged. Returns false when the run must stop.
func (u *Uploader) transfer(ctx context.Context, root *tree.Node, pending []tree.PathedEntry, result *Result) bool {
	if len(pending) == 0 {
		u.observer.Log(LevelInfo, "No new files to upload")

		return true
	}

	u.observer.Log(LevelInfo, fmt.Sprintf("Uploading %d files...", len(pending)))

	for i, p := range pending {
		if cancelled(ctx, result) {
			return false
		}

		name := p.Entry.Name
		u.observer.Progress(i+1, len(pending), "Uploading: "+name)
		u.observer.Log(LevelInfo, fmt.Sprintf("[%d/%d] Uploading: %s", i+1, len(pending), name))

		obj, err := u.uploadOne(ctx, p.Entry.LocalPath)
		if err != nil {
			msg := fmt.Sprintf("failed to upload %s: %v", name, err)
			u.observer.Log(LevelError, msg)
			result.Errors = append(result.Errors, msg)
			result.Failed++

			continue
		}

		if err := tree.SetIdentifiers(root, p.Path, obj.FileID, obj.MessageID); err != nil {
			fail(result, fmt.Sprintf("recording upload of %s: %v", p.Path, err))

			return false
		}

		result.Uploaded++
	}

	u.observer.Log(LevelSuccess, fmt.Sprintf("Uploaded %d files", result.Uploaded))

	return true
}

// uploadOne performs one transfer. The client already retries transient
// failures with backoff; this layer only honors a final rate-limit wait
// once more before giving up on the file. Permanent failures get exactly
// one attempt.
func (u *Uploader) uploadOne(ctx context.Context, localPath string) (*telegram.UploadedObject, error) {
	obj, err := u.telegram.SendDocument(ctx, u.cfg.ChannelID, localPath)
	if err == nil {
		return obj, nil
	}

	wait, rateLimited := retry.Wait(err)
	if !rateLimited {
		return nil, err
	}

	u.observer.Log(LevelWarning, fmt.Sprintf("Rate limited, waiting %s...", wait))

	timer := time.NewTimer(wait)
	select {
	case <-ctx.Done():
		timer.Stop()

		return nil, ctx.Err()
	case <-timer.C:
	}

	return u.telegram.SendDocument(ctx, u.cfg.ChannelID, localPath)
}

// persist serializes the merged tree and hands it to the index server.
// The server's verdict is the run's terminal state, whatever happened to
// individual files before it.
func (u *Uploader) persist(ctx context.Context, root *tree.Node, botUsername string, result *Result) {
	u.observer.Log(LevelInfo, "Persisting tree to index server...")

	data, err := tree.Marshal(root)
	if err != nil {
		fail(result, fmt.Sprintf("Serializing tree: %v", err))

		return
	}

	res, err := u.index.PersistTree(ctx, u.cfg.BotToken, u.cfg.ChannelID, botUsername, data)
	if err != nil {
		var rejection *indexer.RejectionError
		if errors.As(err, &rejection) {
			fail(result, "Server rejected tree: "+rejection.Message)
			result.Errors = append(result.Errors, rejection.Details...)

			for _, d := range rejection.Details {
				u.observer.Log(LevelError, "  - "+d)
			}

			return
		}

		fail(result, fmt.Sprintf("Server error: %v", err))

		return
	}

	result.Success = true
	result.BotID = res.BotID
	result.Status = res.Status

	result.Message = res.Message
	if result.Message == "" {
		result.Message = "Upload completed successfully"
	}

	if res.IsUpdate {
		result.IsUpdate = true
		result.ChangePercentage = res.ChangePercentage
	}

	u.observer.Log(LevelSuccess, result.Message)
}

// record saves the run summary; history is best-effort and never affects
// the result.
func (u *Uploader) record(result *Result) {
	if u.store == nil {
		return
	}

	err := u.store.SaveRun(u.cfg.BotToken, state.RunRecord{
		Time:             time.Now(),
		Success:          result.Success,
		Cancelled:        result.Cancelled,
		UpdateMode:       u.cfg.UpdateMode,
		BotID:            result.BotID,
		Status:           result.Status,
		Message:          result.Message,
		Uploaded:         result.Uploaded,
		Skipped:          result.Skipped,
		Failed:           result.Failed,
		ChangePercentage: result.ChangePercentage,
	})
	if err != nil {
		u.logger.Warn("saving run history", slog.String("error", err.Error()))
	}
}
