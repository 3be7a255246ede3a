// Package tree holds the canonical representation of an upload directory
// tree, its JSON exchange codec, and the diff/merge logic that carries
// Telegram file identifiers forward between runs.
package tree

import (
	"sort"
	"strings"
)

// MaxDepth is the nesting ceiling enforced by every recursive traversal.
// Deeper trees fail with ErrTreeTooDeep instead of exhausting the stack
// on corrupted or adversarial input.
const MaxDepth = 50

// FileEntry is one uploadable file inside a Node.
//
// LocalPath and SkipTransfer never cross the wire: LocalPath is stripped
// by Marshal, SkipTransfer exists only between merge and transfer.
type FileEntry struct {
	Name string
	Size int64

	// LocalPath is the absolute path on disk, set by the scanner.
	LocalPath string

	// FileID and MessageID are the Telegram identifiers assigned by a
	// successful upload, or carried forward from a previous tree. They
	// are always set together; an entry never holds one without the other.
	FileID    string
	MessageID int64

	// SkipTransfer marks an unchanged entry whose identifiers were reused
	// during merge, so the transfer loop passes over it.
	SkipTransfer bool
}

// Node is one folder in the tree. Files keeps scan order (case-insensitive
// name order); Subfolders maps child folder names to their nodes.
type Node struct {
	Files      []*FileEntry
	Subfolders map[string]*Node
}

// NewNode returns an empty folder node.
func NewNode() *Node {
	return &Node{
		Subfolders: make(map[string]*Node),
	}
}

// joinPath builds the relative path used as the stable join key across
// scans. Always "/"-separated regardless of platform.
func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}

	return parent + "/" + name
}

// subfolderNames returns the child folder names in case-insensitive order,
// matching the order the scanner visits them. Map iteration order is
// random, so every deterministic traversal goes through this.
func (n *Node) subfolderNames() []string {
	names := make([]string, 0, len(n.Subfolders))
	for name := range n.Subfolders {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		li, lj := strings.ToLower(names[i]), strings.ToLower(names[j])
		if li != lj {
			return li < lj
		}

		return names[i] < names[j]
	})

	return names
}

// PathMap flattens the tree into a map from relative path to entry.
// Fails with ErrTreeTooDeep past MaxDepth.
func PathMap(n *Node) (map[string]*FileEntry, error) {
	out := make(map[string]*FileEntry)
	if err := collectPaths(n, "", 0, out); err != nil {
		return nil, err
	}

	return out, nil
}

func collectPaths(n *Node, prefix string, depth int, out map[string]*FileEntry) error {
	if depth > MaxDepth {
		return depthError(prefix)
	}

	for _, f := range n.Files {
		out[joinPath(prefix, f.Name)] = f
	}

	for name, sub := range n.Subfolders {
		if err := collectPaths(sub, joinPath(prefix, name), depth+1, out); err != nil {
			return err
		}
	}

	return nil
}

// PathedEntry pairs an entry with its relative path. The path is derived
// during traversal, never stored on the entry itself.
type PathedEntry struct {
	Path  string
	Entry *FileEntry
}

// Flatten returns every entry with its relative path in scan order: files
// of a folder first, then its subfolders in case-insensitive name order,
// depth-first.
func Flatten(n *Node) ([]PathedEntry, error) {
	var out []PathedEntry

	err := walkOrdered(n, "", 0, func(path string, f *FileEntry) {
		out = append(out, PathedEntry{Path: path, Entry: f})
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// walkOrdered visits every file entry in deterministic scan order,
// passing its relative path to fn.
func walkOrdered(n *Node, prefix string, depth int, fn func(path string, f *FileEntry)) error {
	if depth > MaxDepth {
		return depthError(prefix)
	}

	for _, f := range n.Files {
		fn(joinPath(prefix, f.Name), f)
	}

	for _, name := range n.subfolderNames() {
		if err := walkOrdered(n.Subfolders[name], joinPath(prefix, name), depth+1, fn); err != nil {
			return err
		}
	}

	return nil
}

// SetIdentifiers records the Telegram identifiers for the entry at relPath
// after a successful upload. A missing path is a defect in the transfer
// loop and fails with ErrPathNotFound rather than silently doing nothing.
func SetIdentifiers(n *Node, relPath, fileID string, messageID int64) error {
	segments := strings.Split(relPath, "/")

	node := n
	for _, folder := range segments[:len(segments)-1] {
		sub, ok := node.Subfolders[folder]
		if !ok {
			return pathError(relPath)
		}

		node = sub
	}

	name := segments[len(segments)-1]
	for _, f := range node.Files {
		if f.Name == name {
			f.FileID = fileID
			f.MessageID = messageID

			return nil
		}
	}

	return pathError(relPath)
}
