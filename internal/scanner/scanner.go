// Package scanner walks a local directory and builds the canonical tree
// the rest of the pipeline operates on, validating names and sizes as it
// goes.
package scanner

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	apperrors "github.com/tgvault/tgvault/internal/errors"
	"github.com/tgvault/tgvault/internal/telegram"
	"github.com/tgvault/tgvault/internal/tree"
)

// maxNameLen is the longest folder or file name accepted.
const maxNameLen = 255

// ProgressFunc receives scan progress: entries processed so far, the
// pre-counted total, and a label for the entry being visited. Called after
// every visited entry; must not block.
type ProgressFunc func(processed, total int, label string)

// Summary is the queryable outcome of a scan, alongside the tree itself.
type Summary struct {
	Files      int
	Folders    int
	TotalBytes int64
	Errors     []string
	Warnings   []string
	Skipped    int
}

// Scanner builds trees from local directories. Safe to reuse; each Scan
// call produces a fresh tree and summary.
type Scanner struct {
	logger *slog.Logger
}

// New creates a Scanner.
func New(logger *slog.Logger) *Scanner {
	return &Scanner{logger: logger}
}

// scanState accumulates totals and problems across one traversal.
type scanState struct {
	summary   Summary
	processed int
	total     int
	progress  ProgressFunc
	ignore    []string
}

// Scan walks root depth-first, entries at each level in case-insensitive
// name order, and returns the resulting tree with a summary. Only a
// missing or non-directory root is a hard failure; everything else is
// recorded in the summary and traversal continues.
func (s *Scanner) Scan(root string, progress ProgressFunc) (*tree.Node, *Summary, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("stat %s: %w", root, err)
	}

	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s: %w", root, apperrors.ErrRootNotDirectory)
	}

	ignore, err := loadIgnorePatterns(root)
	if err != nil {
		return nil, nil, err
	}

	st := &scanState{
		progress: progress,
		ignore:   ignore,
	}
	st.total = countEntries(root)

	node := s.scanFolder(root, "", 0, st)

	s.logger.Info("scan complete",
		slog.Int("files", st.summary.Files),
		slog.Int("folders", st.summary.Folders),
		slog.Int64("bytes", st.summary.TotalBytes),
		slog.Int("skipped", st.summary.Skipped),
		slog.Int("errors", len(st.summary.Errors)),
		slog.Int("warnings", len(st.summary.Warnings)),
	)

	return node, &st.summary, nil
}

// countEntries pre-counts everything under root so progress is monotonic
// and bounded. Walk errors here are ignored; the real pass records them.
func countEntries(root string) int {
	total := 0

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // counting pass, errors surface later
		}

		if path != root {
			total++
		}

		return nil
	})

	return total
}

func (s *Scanner) scanFolder(dir, relPath string, depth int, st *scanState) *tree.Node {
	node := tree.NewNode()

	if depth > tree.MaxDepth {
		st.summary.Errors = append(st.summary.Errors,
			fmt.Sprintf("skipping %s: nesting deeper than %d levels", dir, tree.MaxDepth))

		return node
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		st.summary.Errors = append(st.summary.Errors, fmt.Sprintf("reading %s: %v", dir, err))

		return node
	}

	sort.Slice(entries, func(i, j int) bool {
		li, lj := strings.ToLower(entries[i].Name()), strings.ToLower(entries[j].Name())
		if li != lj {
			return li < lj
		}

		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		name := entry.Name()
		entryPath := filepath.Join(dir, name)

		st.processed++
		if st.progress != nil && st.total > 0 {
			st.progress(st.processed, st.total, "Scanning: "+name)
		}

		// Hidden files and directories never upload. This also covers the
		// ignore file itself.
		if strings.HasPrefix(name, ".") {
			st.summary.Skipped++

			continue
		}

		if ignored(st.ignore, relPath, name) {
			st.summary.Skipped++

			continue
		}

		// Symlinks could point outside the tree or at special files.
		if entry.Type()&os.ModeSymlink != 0 {
			s.logger.Debug("skipping symlink", slog.String("path", entryPath))
			st.summary.Skipped++

			continue
		}

		if entry.IsDir() {
			if reason := validateFolderName(name); reason != "" {
				st.summary.Errors = append(st.summary.Errors,
					fmt.Sprintf("invalid folder %q: %s", name, reason))

				continue
			}

			st.summary.Folders++

			normName := norm.NFC.String(name)
			node.Subfolders[normName] = s.scanFolder(entryPath, joinRel(relPath, normName), depth+1, st)

			continue
		}

		if !entry.Type().IsRegular() {
			st.summary.Skipped++

			continue
		}

		if reason := validateFileName(name); reason != "" {
			st.summary.Warnings = append(st.summary.Warnings,
				fmt.Sprintf("skipping file %q: %s", name, reason))
			st.summary.Skipped++

			continue
		}

		info, err := entry.Info()
		if err != nil {
			st.summary.Warnings = append(st.summary.Warnings,
				fmt.Sprintf("cannot stat %q: %v", name, err))
			st.summary.Skipped++

			continue
		}

		size := info.Size()
		if size == 0 {
			st.summary.Warnings = append(st.summary.Warnings,
				fmt.Sprintf("skipping empty file %q", name))
			st.summary.Skipped++

			continue
		}

		if size > telegram.MaxFileSize {
			st.summary.Warnings = append(st.summary.Warnings,
				fmt.Sprintf("skipping %q: %.2fGB exceeds the 2GB limit",
					name, float64(size)/(1024*1024*1024)))
			st.summary.Skipped++

			continue
		}

		st.summary.Files++
		st.summary.TotalBytes += size

		node.Files = append(node.Files, &tree.FileEntry{
			Name:      norm.NFC.String(name),
			Size:      size,
			LocalPath: entryPath,
		})
	}

	return node
}

func joinRel(parent, name string) string {
	if parent == "" {
		return name
	}

	return parent + "/" + name
}

// dangerousSubstrings are name fragments that could be interpreted if a
// name is later rendered in a browser or templating context.
var dangerousSubstrings = []string{
	"<script",
	"javascript:",
	"__proto__",
	"${",
	"../",
	"..\\",
}

// validateFolderName returns an empty string for a valid name, otherwise
// the reason it was rejected.
func validateFolderName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "folder name is empty"
	}

	if len(trimmed) > maxNameLen {
		return fmt.Sprintf("folder name too long (%d > %d chars)", len(trimmed), maxNameLen)
	}

	if strings.Contains(trimmed, "..") || strings.ContainsAny(trimmed, `/\`) {
		return "path traversal characters not allowed"
	}

	lower := strings.ToLower(trimmed)
	for _, sub := range dangerousSubstrings {
		if strings.Contains(lower, sub) {
			return "potentially dangerous characters detected"
		}
	}

	if strings.ContainsAny(trimmed, `<>:"|?*`) || hasControlChars(trimmed) {
		return "invalid characters in folder name"
	}

	return ""
}

// validateFileName is the looser file variant: length and traversal only,
// since file names are never used as path components on the server side.
func validateFileName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "file name is empty"
	}

	if len(trimmed) > maxNameLen {
		return fmt.Sprintf("file name too long (%d > %d chars)", len(trimmed), maxNameLen)
	}

	if strings.Contains(trimmed, "..") || strings.ContainsAny(trimmed, `/\`) {
		return "path traversal characters not allowed"
	}

	if hasControlChars(trimmed) {
		return "control characters in file name"
	}

	return ""
}

func hasControlChars(s string) bool {
	for _, r := range s {
		if r < 0x20 {
			return true
		}
	}

	return false
}
