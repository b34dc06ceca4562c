package report

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

// PlainWriter streams accepted responses as human-readable lines,
// one per match — the plain-text analogue dirsearch's own default
// report format, generalized from internal/storage/file.go's
// file-per-run pattern.
type PlainWriter struct {
	path   string
	file   *os.File
	buf    *bufio.Writer
	count  int
	logger *slog.Logger
}

func NewPlainWriter(path string, logger *slog.Logger) *PlainWriter {
	return &PlainWriter{path: path, logger: logger.With("component", "plain_report")}
}

func (w *PlainWriter) Open(target string) error {
	dir := filepath.Dir(w.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	w.file = f
	w.buf = bufio.NewWriter(f)
	fmt.Fprintf(w.buf, "# Target: %s\n\n", target)
	return nil
}

func (w *PlainWriter) Append(resp *types.Response) error {
	if w.buf == nil {
		return fmt.Errorf("report not open")
	}
	line := fmt.Sprintf("%d  %10d  %s", resp.StatusCode, resp.ContentLength, resp.FullURL)
	if resp.RedirectTo != "" {
		line += "  -> " + resp.RedirectTo
	}
	if _, err := fmt.Fprintln(w.buf, line); err != nil {
		return err
	}
	w.count++
	return nil
}

func (w *PlainWriter) Finalize() error {
	if w.buf == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		return err
	}
	err := w.file.Close()
	w.logger.Info("report written", "path", w.path, "results", w.count)
	return err
}

func (w *PlainWriter) SaveInformation(note string) error {
	if w.buf == nil {
		return fmt.Errorf("report not open")
	}
	_, err := fmt.Fprintf(w.buf, "\n# %s\n", note)
	return err
}
