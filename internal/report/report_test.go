package report

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPlainWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	w := NewPlainWriter(path, discardLogger())
	if err := w.Open("https://example.com/"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.Append(&types.Response{StatusCode: 200, FullURL: "https://example.com/admin", ContentLength: 42}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.SaveInformation("scan complete"); err != nil {
		t.Fatalf("SaveInformation: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty report file")
	}
}

func TestJSONWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	w := NewJSONWriter(path, discardLogger())
	if err := w.Open("https://example.com/"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.Append(&types.Response{StatusCode: 200, FullURL: "https://example.com/admin", ContentLength: 42}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var out struct {
		Target  string      `json:"target"`
		Results []jsonEntry `json:"results"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Target != "https://example.com/" || len(out.Results) != 1 {
		t.Fatalf("unexpected report contents: %+v", out)
	}
}
