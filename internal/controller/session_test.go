package controller

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoadSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	sess := &Session{
		Target:   "https://example.com/",
		BasePath: "admin/",
		Queue:    []string{"admin/sub/"},
		Visited:  []string{"admin/"},
		Stats:    SessionStats{RequestsSent: 10, Matches: 2},
	}
	if err := SaveSession(path, sess); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	loaded, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if loaded.Target != sess.Target || loaded.BasePath != sess.BasePath {
		t.Fatalf("round-tripped session mismatch: %+v", loaded)
	}
	if loaded.SchemaVersion != sessionSchemaVersion {
		t.Fatalf("expected schema version %d, got %d", sessionSchemaVersion, loaded.SchemaVersion)
	}
}

func TestLoadSessionRejectsVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	raw := `{"schema_version": 999, "target": "https://example.com/"}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := LoadSession(path); err == nil {
		t.Fatalf("expected an error loading a future schema version")
	}
}
