package tree

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/tgvault/tgvault/internal/errors"
)

// minFileIDLen is the shortest Telegram file_id accepted before
// serialization. Real identifiers are much longer; anything shorter
// indicates a corrupted or truncated value.
const minFileIDLen = 10

// wireNode is the exchange form of a Node: only fileName, fileSize and the
// remote identifiers survive, recursively. This exact shape is the contract
// with the index server; fileSize must round-trip so the next update run
// can diff against it.
type wireNode struct {
	Files      []wireFile           `json:"files"`
	Subfolders map[string]*wireNode `json:"subfolders"`
}

type wireFile struct {
	FileName  string `json:"fileName"`
	FileSize  int64  `json:"fileSize,omitempty"`
	FileID    string `json:"fileId,omitempty"`
	MessageID int64  `json:"messageId,omitempty"`
}

func depthError(path string) error {
	if path == "" {
		return apperrors.ErrTreeTooDeep
	}

	return fmt.Errorf("at %q: %w", path, apperrors.ErrTreeTooDeep)
}

func pathError(path string) error {
	return fmt.Errorf("%q: %w", path, apperrors.ErrPathNotFound)
}

// Marshal serializes the tree to its exchange form, stripping local paths
// and transient flags. Entries carrying identifiers must carry both and
// both must be well-formed; otherwise serialization fails rather than
// transmitting corrupt references.
func Marshal(n *Node) ([]byte, error) {
	wire, err := toWire(n, "", 0)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encoding tree: %w", err)
	}

	return data, nil
}

func toWire(n *Node, prefix string, depth int) (*wireNode, error) {
	if depth > MaxDepth {
		return nil, depthError(prefix)
	}

	wire := &wireNode{
		Files:      make([]wireFile, 0, len(n.Files)),
		Subfolders: make(map[string]*wireNode, len(n.Subfolders)),
	}

	for _, f := range n.Files {
		path := joinPath(prefix, f.Name)

		if f.FileID != "" || f.MessageID != 0 {
			if len(f.FileID) < minFileIDLen {
				return nil, fmt.Errorf("file %q has malformed file id: %w", path, apperrors.ErrBadIdentifier)
			}

			if f.MessageID <= 0 {
				return nil, fmt.Errorf("file %q has non-positive message id %d: %w", path, f.MessageID, apperrors.ErrBadIdentifier)
			}
		}

		wire.Files = append(wire.Files, wireFile{
			FileName:  f.Name,
			FileSize:  f.Size,
			FileID:    f.FileID,
			MessageID: f.MessageID,
		})
	}

	for name, sub := range n.Subfolders {
		child, err := toWire(sub, joinPath(prefix, name), depth+1)
		if err != nil {
			return nil, err
		}

		wire.Subfolders[name] = child
	}

	return wire, nil
}

// rawNode mirrors wireNode but keeps values raw so key presence can be
// checked: a level missing either "files" or "subfolders" is rejected,
// whatever else it contains.
type rawNode struct {
	Files      *json.RawMessage `json:"files"`
	Subfolders *json.RawMessage `json:"subfolders"`
}

// Unmarshal parses the exchange form back into a tree. It enforces the
// structural contract: every level must be a JSON object with both a
// "files" and a "subfolders" key.
func Unmarshal(data []byte) (*Node, error) {
	return fromWire(data, "", 0)
}

func fromWire(data []byte, prefix string, depth int) (*Node, error) {
	if depth > MaxDepth {
		return nil, depthError(prefix)
	}

	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("level %q: %v: %w", prefix, err, apperrors.ErrMalformedTree)
	}

	if raw.Files == nil || raw.Subfolders == nil {
		return nil, fmt.Errorf("level %q missing files or subfolders key: %w", prefix, apperrors.ErrMalformedTree)
	}

	var files []wireFile
	if err := json.Unmarshal(*raw.Files, &files); err != nil {
		return nil, fmt.Errorf("level %q files: %v: %w", prefix, err, apperrors.ErrMalformedTree)
	}

	var subfolders map[string]json.RawMessage
	if err := json.Unmarshal(*raw.Subfolders, &subfolders); err != nil {
		return nil, fmt.Errorf("level %q subfolders: %v: %w", prefix, err, apperrors.ErrMalformedTree)
	}

	node := NewNode()

	for _, f := range files {
		if f.FileName == "" {
			return nil, fmt.Errorf("level %q has file without name: %w", prefix, apperrors.ErrMalformedTree)
		}

		node.Files = append(node.Files, &FileEntry{
			Name:      f.FileName,
			Size:      f.FileSize,
			FileID:    f.FileID,
			MessageID: f.MessageID,
		})
	}

	for name, subData := range subfolders {
		child, err := fromWire(subData, joinPath(prefix, name), depth+1)
		if err != nil {
			return nil, err
		}

		node.Subfolders[name] = child
	}

	return node, nil
}
