package tree

import "sort"

// ChangeSet classifies every relative path across two scans. Each path
// appears in exactly one of the four maps.
//
// Added and Unchanged hold entries from the current tree; Removed and
// Modified hold entries from the previous tree, because those are the
// entries whose Telegram messages must be deleted. For modified paths the
// replacement entry lives in the current tree and is found by path.
type ChangeSet struct {
	Added     map[string]*FileEntry
	Removed   map[string]*FileEntry
	Modified  map[string]*FileEntry
	Unchanged map[string]*FileEntry

	// previousTotal and currentTotal are the path counts of the two
	// trees at diff time, kept for the change percentage.
	previousTotal int
	currentTotal  int
}

// Diff compares a previously persisted tree against a fresh scan, keyed by
// relative path. A path present in both trees counts as modified when its
// size differs and unchanged otherwise.
//
// Size is the only change signal: a file replaced in place by different
// content of identical length is indistinguishable from unchanged. That is
// a deliberate property of the system, not an oversight.
func Diff(previous, current *Node) (*ChangeSet, error) {
	prevPaths, err := PathMap(previous)
	if err != nil {
		return nil, err
	}

	curPaths, err := PathMap(current)
	if err != nil {
		return nil, err
	}

	cs := &ChangeSet{
		Added:         make(map[string]*FileEntry),
		Removed:       make(map[string]*FileEntry),
		Modified:      make(map[string]*FileEntry),
		Unchanged:     make(map[string]*FileEntry),
		previousTotal: len(prevPaths),
		currentTotal:  len(curPaths),
	}

	for path, cur := range curPaths {
		prev, ok := prevPaths[path]
		if !ok {
			cs.Added[path] = cur

			continue
		}

		if prev.Size != cur.Size {
			cs.Modified[path] = prev
		} else {
			cs.Unchanged[path] = cur
		}
	}

	for path, prev := range prevPaths {
		if _, ok := curPaths[path]; !ok {
			cs.Removed[path] = prev
		}
	}

	return cs, nil
}

// ChangePercentage returns how much of the tree changed, in [0, 100]:
// changed paths over the larger of the two tree sizes.
func (cs *ChangeSet) ChangePercentage() float64 {
	base := cs.previousTotal
	if cs.currentTotal > base {
		base = cs.currentTotal
	}

	if base < 1 {
		base = 1
	}

	changed := len(cs.Added) + len(cs.Removed) + len(cs.Modified)

	pct := float64(changed) / float64(base) * 100
	if pct > 100 {
		pct = 100
	}

	return pct
}

// Merge copies the previous tree's Telegram identifiers onto every current
// entry whose path is unchanged, and marks those entries SkipTransfer so
// the upload loop passes over them. Added and modified entries keep empty
// identifiers and are uploaded fresh.
func Merge(previous *Node, changes *ChangeSet, current *Node) error {
	prevPaths, err := PathMap(previous)
	if err != nil {
		return err
	}

	return walkOrdered(current, "", 0, func(path string, f *FileEntry) {
		if _, ok := changes.Unchanged[path]; !ok {
			return
		}

		prev, ok := prevPaths[path]
		if !ok || prev.FileID == "" || prev.MessageID <= 0 {
			return
		}

		f.FileID = prev.FileID
		f.MessageID = prev.MessageID
		f.SkipTransfer = true
	})
}

// PendingTransfers returns the entries still needing upload, with their
// relative paths, in scan order.
func PendingTransfers(merged *Node) ([]PathedEntry, error) {
	var out []PathedEntry

	err := walkOrdered(merged, "", 0, func(path string, f *FileEntry) {
		if !f.SkipTransfer {
			out = append(out, PathedEntry{Path: path, Entry: f})
		}
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// PendingDeletions returns the previous-tree entries whose Telegram
// messages are obsolete: removed paths plus the old version of every
// modified path (the channel has no in-place replacement, so the old
// message goes and the new file is sent separately). Sorted by path for
// a stable deletion order.
func PendingDeletions(changes *ChangeSet) []*FileEntry {
	paths := make([]string, 0, len(changes.Removed)+len(changes.Modified))
	for path := range changes.Removed {
		paths = append(paths, path)
	}

	for path := range changes.Modified {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	out := make([]*FileEntry, 0, len(paths))

	for _, path := range paths {
		if f, ok := changes.Removed[path]; ok {
			out = append(out, f)
		} else {
			out = append(out, changes.Modified[path])
		}
	}

	return out
}
