package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

// jsonEntry is the on-disk shape of one reported response.
type jsonEntry struct {
	URL        string `json:"url"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	Length     int64  `json:"length"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// JSONWriter streams accepted responses into a single JSON array file,
// generalizing internal/storage/file.go's JSONStorage to the
// one-response-at-a-time Writer interface.
type JSONWriter struct {
	path    string
	mu      sync.Mutex
	entries []jsonEntry
	notes   []string
	target  string
	logger  *slog.Logger
}

func NewJSONWriter(path string, logger *slog.Logger) *JSONWriter {
	return &JSONWriter{path: path, logger: logger.With("component", "json_report")}
}

func (w *JSONWriter) Open(target string) error {
	w.target = target
	dir := filepath.Dir(w.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	return nil
}

func (w *JSONWriter) Append(resp *types.Response) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, jsonEntry{
		URL:        resp.FullURL,
		Path:       resp.Path,
		Status:     resp.StatusCode,
		Length:     resp.ContentLength,
		RedirectTo: resp.RedirectTo,
	})
	return nil
}

func (w *JSONWriter) Finalize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	out := struct {
		Target    string      `json:"target"`
		FinishedAt time.Time  `json:"finished_at"`
		Results   []jsonEntry `json:"results"`
		Notes     []string    `json:"notes,omitempty"`
	}{
		Target:     w.target,
		FinishedAt: time.Now(),
		Results:    w.entries,
		Notes:      w.notes,
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	w.logger.Info("report written", "path", w.path, "results", len(w.entries))
	return nil
}

func (w *JSONWriter) SaveInformation(note string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notes = append(w.notes, note)
	return nil
}
