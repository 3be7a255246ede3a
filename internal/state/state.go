// Package state persists run history in a local bbolt database. The tree
// itself is never cached here; the index server's copy is the source of
// truth. Only per-bot run summaries are kept, so the CLI can report what
// the last run did.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// stateDirPerm is the permission mode for the state directory (~/.tgvault/).
	stateDirPerm = fs.FileMode(0o700)

	// stateFilePerm is the permission mode for the state database file.
	stateFilePerm = fs.FileMode(0o600)

	// stateOpenTimeout is the maximum time to wait for the bolt database lock.
	stateOpenTimeout = 5 * time.Second
)

var runsBucket = []byte("runs")

// tokenKey returns the SHA-256 hex digest of a bot token, used as the
// bbolt key so raw tokens are never stored on disk.
func tokenKey(token string) []byte {
	h := sha256.Sum256([]byte(token))
	dst := make([]byte, hex.EncodedLen(len(h)))
	hex.Encode(dst, h[:])

	return dst
}

// RunRecord summarizes one orchestration run.
type RunRecord struct {
	Time             time.Time `json:"time"`
	Success          bool      `json:"success"`
	Cancelled        bool      `json:"cancelled"`
	UpdateMode       bool      `json:"updateMode"`
	BotID            string    `json:"botId,omitempty"`
	Status           string    `json:"status,omitempty"`
	Message          string    `json:"message,omitempty"`
	Uploaded         int       `json:"uploaded"`
	Skipped          int       `json:"skipped"`
	Failed           int       `json:"failed"`
	ChangePercentage float64   `json:"changePercentage"`
}

// State wraps the bbolt database.
type State struct {
	db *bolt.DB
}

// Load opens the default state database at ~/.tgvault/state.db, creating
// the directory if needed.
func Load() (*State, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("determining home directory: %w", err)
	}

	dir := filepath.Join(home, ".tgvault")
	if err := os.MkdirAll(dir, stateDirPerm); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	return Open(filepath.Join(dir, "state.db"))
}

// Open opens a state database at an explicit path.
func Open(path string) (*State, error) {
	db, err := bolt.Open(path, stateFilePerm, &bolt.Options{Timeout: stateOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(runsBucket)

		return err
	})
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("initializing state database: %w", err)
	}

	return &State{db: db}, nil
}

// Close releases the database.
func (s *State) Close() error {
	return s.db.Close()
}

// SaveRun records the latest run outcome for a bot, replacing any
// previous record.
func (s *State) SaveRun(botToken string, rec RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding run record: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).Put(tokenKey(botToken), data)
	})
	if err != nil {
		return fmt.Errorf("saving run record: %w", err)
	}

	return nil
}

// LastRun returns the most recent run record for a bot, or ok=false when
// the bot has never run.
func (s *State) LastRun(botToken string) (RunRecord, bool, error) {
	var (
		rec   RunRecord
		found bool
	)

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(runsBucket).Get(tokenKey(botToken))
		if data == nil {
			return nil
		}

		found = true

		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return RunRecord{}, false, fmt.Errorf("loading run record: %w", err)
	}

	return rec, found, nil
}
