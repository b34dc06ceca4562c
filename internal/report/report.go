// Package report defines the Writer interface scan results are
// streamed through, plus two concrete implementations, generalizing
// internal/storage/file.go's JSONStorage/CSVStorage pattern from
// *types.Item batches to a single-response streaming API over
// *types.Response.
//
// Writer is deliberately minimal: Open, Append one response at a time,
// Finalize once scanning completes, SaveInformation for a closing
// human-readable note. The five remaining report formats dirsearch
// supports (xml, csv, html, markdown, sqlite) are named here as
// pluggable but not yet implemented.
package report

import "github.com/sentryfuzz/sentryfuzz/internal/types"

// Writer is the report sink every scan drains its accepted responses
// into. Implementations: PlainWriter (human-readable), JSONWriter
// (machine-readable). Not implemented here: xml, csv, html, markdown,
// sqlite.
type Writer interface {
	// Open prepares the writer to receive Append calls, e.g. creating
	// the output file and writing any header.
	Open(target string) error

	// Append records one accepted response.
	Append(resp *types.Response) error

	// Finalize flushes buffered output and closes any open file.
	Finalize() error

	// SaveInformation appends a closing free-text note (e.g. a
	// termination reason, or the path of a saved session file).
	SaveInformation(note string) error
}
