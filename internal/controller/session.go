package controller

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

// sessionSchemaVersion is bumped whenever the on-disk session shape
// changes incompatibly. Load refuses to restore a session carrying any
// other version, surfacing types.ErrSessionVersion.
const sessionSchemaVersion = 1

// Session is the serializable scan state needed to resume after a
// pause or interruption — the Go-native, versioned-JSON analogue of
// dirsearch's pickled RequestsSession, grounded on
// internal/engine/checkpoint.go's checkpointData/atomic-rename save
// pattern.
type Session struct {
	SchemaVersion int             `json:"schema_version"`
	SavedAt       time.Time       `json:"saved_at"`
	Target        string          `json:"target"`
	BasePath      string          `json:"base_path"`
	Queue         []string        `json:"queue"`
	Visited       []string        `json:"visited"`
	Stats         SessionStats    `json:"stats"`
	DictCursor    int             `json:"dict_cursor"`
}

// SessionStats mirrors Controller's running counters.
type SessionStats struct {
	RequestsSent      int64 `json:"requests_sent"`
	Errors            int64 `json:"errors"`
	Matches           int64 `json:"matches"`
	ConsecutiveErrors int64 `json:"consecutive_errors"`
}

// SaveSession writes sess to path atomically (temp file + rename), so
// a crash mid-write never leaves a corrupt session file behind.
func SaveSession(path string, sess *Session) error {
	sess.SchemaVersion = sessionSchemaVersion
	sess.SavedAt = time.Now()

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sess); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode session: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename session file: %w", err)
	}
	return nil
}

// LoadSession reads and validates a session file written by
// SaveSession. A schema mismatch is fatal: a session from a different
// sentryfuzz version cannot be safely resumed.
func LoadSession(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()

	var sess Session
	if err := json.NewDecoder(f).Decode(&sess); err != nil {
		return nil, &types.SessionUnpicklingError{Path: path, Err: err}
	}
	if sess.SchemaVersion != sessionSchemaVersion {
		return nil, &types.SessionUnpicklingError{
			Path: path,
			Err:  fmt.Errorf("%w: session has version %d, expected %d", types.ErrSessionVersion, sess.SchemaVersion, sessionSchemaVersion),
		}
	}
	return &sess, nil
}
