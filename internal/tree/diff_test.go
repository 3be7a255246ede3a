package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatTree builds a single-level tree from name->size pairs, in map order.
func flatTree(files map[string]int64) *Node {
	root := NewNode()
	for name, size := range files {
		root.Files = append(root.Files, &FileEntry{Name: name, Size: size})
	}

	return root
}

// --- Diff tests ---

func TestDiff_IdenticalTrees(t *testing.T) {
	previous := flatTree(map[string]int64{"a.txt": 100, "b.txt": 50})
	current := flatTree(map[string]int64{"a.txt": 100, "b.txt": 50})

	cs, err := Diff(previous, current)
	require.NoError(t, err)

	assert.Empty(t, cs.Added)
	assert.Empty(t, cs.Removed)
	assert.Empty(t, cs.Modified)
	assert.Len(t, cs.Unchanged, 2)
	assert.Zero(t, cs.ChangePercentage())
}

func TestDiff_Classification(t *testing.T) {
	previous := NewNode()
	previous.Files = append(previous.Files,
		&FileEntry{Name: "same.txt", Size: 100},
		&FileEntry{Name: "grown.txt", Size: 10, FileID: "BAAD-old-id-1", MessageID: 5},
		&FileEntry{Name: "gone.txt", Size: 30, FileID: "BAAD-old-id-2", MessageID: 6},
	)

	current := flatTree(map[string]int64{
		"same.txt":  100,
		"grown.txt": 20,
		"new.txt":   1,
	})

	cs, err := Diff(previous, current)
	require.NoError(t, err)

	require.Len(t, cs.Added, 1)
	assert.Contains(t, cs.Added, "new.txt")

	require.Len(t, cs.Removed, 1)
	assert.Equal(t, int64(6), cs.Removed["gone.txt"].MessageID)

	// Modified holds the previous entry: that is the one whose message
	// must be deleted before the replacement goes up.
	require.Len(t, cs.Modified, 1)
	assert.Equal(t, int64(10), cs.Modified["grown.txt"].Size)
	assert.Equal(t, int64(5), cs.Modified["grown.txt"].MessageID)

	require.Len(t, cs.Unchanged, 1)
	assert.Contains(t, cs.Unchanged, "same.txt")
}

func TestDiff_SameSizeCountsAsUnchanged(t *testing.T) {
	previous := flatTree(map[string]int64{"a.txt": 100})
	current := flatTree(map[string]int64{"a.txt": 100})

	cs, err := Diff(previous, current)
	require.NoError(t, err)

	// Same path, same size: content is not inspected.
	assert.Contains(t, cs.Unchanged, "a.txt")
}

func TestDiff_EveryPathClassifiedOnce(t *testing.T) {
	previous := flatTree(map[string]int64{"a": 1, "b": 2, "c": 3})
	current := flatTree(map[string]int64{"b": 2, "c": 9, "d": 4})

	cs, err := Diff(previous, current)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, m := range []map[string]*FileEntry{cs.Added, cs.Removed, cs.Modified, cs.Unchanged} {
		for path := range m {
			seen[path]++
		}
	}

	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1, "d": 1}, seen)
}

// --- ChangePercentage tests ---

func TestChangePercentage_EmptyTrees(t *testing.T) {
	cs, err := Diff(NewNode(), NewNode())
	require.NoError(t, err)
	assert.Zero(t, cs.ChangePercentage())
}

func TestChangePercentage_FullReplacement(t *testing.T) {
	previous := flatTree(map[string]int64{"a": 1})
	current := flatTree(map[string]int64{"b": 2})

	cs, err := Diff(previous, current)
	require.NoError(t, err)

	// One added plus one removed over base 1 would exceed 100; clamped.
	assert.Equal(t, float64(100), cs.ChangePercentage())
}

func TestChangePercentage_PartialChange(t *testing.T) {
	previous := flatTree(map[string]int64{"a": 1, "b": 2, "c": 3, "d": 4})
	current := flatTree(map[string]int64{"a": 1, "b": 2, "c": 3, "d": 9})

	cs, err := Diff(previous, current)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, cs.ChangePercentage(), 0.001)
}

// --- Merge tests ---

func TestMerge_CarriesIdentifiersForward(t *testing.T) {
	previous := NewNode()
	previous.Files = append(previous.Files, &FileEntry{
		Name: "a.txt", Size: 100, FileID: "BAAD-file-id-X", MessageID: 1,
	})
	previous.Files = append(previous.Files, &FileEntry{
		Name: "c.txt", Size: 10, FileID: "BAAD-file-id-Y", MessageID: 2,
	})

	current := NewNode()
	current.Files = append(current.Files, &FileEntry{Name: "a.txt", Size: 100, LocalPath: "/v/a.txt"})
	sub := NewNode()
	sub.Files = append(sub.Files, &FileEntry{Name: "b.txt", Size: 50, LocalPath: "/v/sub/b.txt"})
	current.Subfolders["sub"] = sub

	cs, err := Diff(previous, current)
	require.NoError(t, err)
	require.NoError(t, Merge(previous, cs, current))

	// Unchanged entry reuses the previous identifiers and skips transfer.
	a := current.Files[0]
	assert.Equal(t, "BAAD-file-id-X", a.FileID)
	assert.Equal(t, int64(1), a.MessageID)
	assert.True(t, a.SkipTransfer)
	assert.Equal(t, "/v/a.txt", a.LocalPath)

	pending, err := PendingTransfers(current)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "sub/b.txt", pending[0].Path)
	assert.Empty(t, pending[0].Entry.FileID)

	deletions := PendingDeletions(cs)
	require.Len(t, deletions, 1)
	assert.Equal(t, int64(2), deletions[0].MessageID)
}

func TestMerge_ModifiedEntryStaysPending(t *testing.T) {
	previous := flatTree(map[string]int64{"a.txt": 10})
	previous.Files[0].FileID = "BAAD-file-id-X"
	previous.Files[0].MessageID = 1

	current := flatTree(map[string]int64{"a.txt": 20})

	cs, err := Diff(previous, current)
	require.NoError(t, err)
	require.NoError(t, Merge(previous, cs, current))

	// Modified paths never inherit the stale identifiers.
	assert.Empty(t, current.Files[0].FileID)
	assert.False(t, current.Files[0].SkipTransfer)

	pending, err := PendingTransfers(current)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestMerge_PreviousEntryWithoutIdentifiers(t *testing.T) {
	previous := flatTree(map[string]int64{"a.txt": 10})
	current := flatTree(map[string]int64{"a.txt": 10})

	cs, err := Diff(previous, current)
	require.NoError(t, err)
	require.NoError(t, Merge(previous, cs, current))

	// Unchanged by size, but the previous run never recorded identifiers,
	// so the entry is transferred again rather than skipped.
	assert.False(t, current.Files[0].SkipTransfer)

	pending, err := PendingTransfers(current)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

// --- PendingDeletions tests ---

func TestPendingDeletions_SortedRemovedAndModified(t *testing.T) {
	previous := NewNode()
	previous.Files = append(previous.Files,
		&FileEntry{Name: "z.txt", Size: 1, FileID: "BAAD-file-id-1", MessageID: 10},
		&FileEntry{Name: "a.txt", Size: 2, FileID: "BAAD-file-id-2", MessageID: 11},
		&FileEntry{Name: "m.txt", Size: 3, FileID: "BAAD-file-id-3", MessageID: 12},
	)

	// a.txt modified, z.txt removed, m.txt unchanged.
	current := flatTree(map[string]int64{"a.txt": 9, "m.txt": 3})

	cs, err := Diff(previous, current)
	require.NoError(t, err)

	deletions := PendingDeletions(cs)
	require.Len(t, deletions, 2)
	assert.Equal(t, int64(11), deletions[0].MessageID)
	assert.Equal(t, int64(10), deletions[1].MessageID)
}
