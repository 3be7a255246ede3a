package scanner

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// IgnoreFileName is the optional per-directory-tree ignore file read from
// the upload root. The file itself is never uploaded.
const IgnoreFileName = ".tgvault.yml"

type ignoreFile struct {
	Ignore []string `yaml:"ignore"`
}

// loadIgnorePatterns reads IgnoreFileName from root if present. A missing
// file means no patterns; an unreadable or malformed file is a hard error
// so a typo cannot silently upload everything.
func loadIgnorePatterns(root string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(root, IgnoreFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", IgnoreFileName, err)
	}

	var f ignoreFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", IgnoreFileName, err)
	}

	for _, pattern := range f.Ignore {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("bad ignore pattern %q in %s: %w", pattern, IgnoreFileName, err)
		}
	}

	return f.Ignore, nil
}

// ignored reports whether any configured glob matches either the bare
// name or the relative path.
func ignored(patterns []string, relPath, name string) bool {
	full := joinRel(relPath, name)

	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}

		if ok, _ := filepath.Match(pattern, full); ok {
			return true
		}
	}

	return false
}
