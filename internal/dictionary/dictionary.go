// Package dictionary builds the ordered, deduplicated path sequence
// fuzzed against each target, generalizing dirsearch's
// lib/core/dictionary.py Dictionary.generate() line-transformation
// algorithm into Go, including its exact branch ordering.
package dictionary

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

// extensionIgnoreList mirrors dirsearch's settings.py
// OVERWRITE_EXTENSIONS_IGNORE_LIST — extensions that overwrite_extensions
// never replaces even when present (already-binary/document formats
// unlikely to be a dev leftover of the wordlist's own extension).
var extensionIgnoreList = map[string]bool{
	"7z": true, "tar": true, "gz": true, "zip": true, "rar": true,
	"jpg": true, "jpeg": true, "png": true, "gif": true, "pdf": true,
}

var extTagRe = regexp.MustCompile(`(?i)%ext%`)
var extensionRe = regexp.MustCompile(`\.([a-zA-Z0-9]+)$`)

// Casing selects the casing policy applied to every emitted entry.
type Casing int

const (
	CasingNone Casing = iota
	CasingLower
	CasingUpper
	CasingCapitalize
)

// Options configures Dictionary.generate, one field per Python kwarg.
type Options struct {
	Wordlists           []string
	Extensions          []string
	ExcludeExtensions   []string
	Prefixes            []string
	Suffixes            []string
	ForceExtensions     bool
	OverwriteExtensions bool
	RemoveExtensions    bool
	Casing              Casing
}

// Dictionary is the ordered, deduplicated, thread-safely-iterable
// sequence of candidate paths.
type Dictionary struct {
	mu      sync.Mutex
	entries []string
	seen    map[string]struct{}
	cursor  int
}

// New reads every wordlist and runs generate() over each line,
// producing the final deduplicated, ordered entry sequence.
func New(opts Options) (*Dictionary, error) {
	d := &Dictionary{seen: make(map[string]struct{})}
	for _, path := range opts.Wordlists {
		if err := d.loadFile(path, opts); err != nil {
			return nil, fmt.Errorf("load wordlist %q: %w", path, err)
		}
	}
	return d, nil
}

// NewFromLines builds a Dictionary directly from in-memory lines
// (used by tests, where no file I/O is wanted).
func NewFromLines(lines []string, opts Options) *Dictionary {
	d := &Dictionary{seen: make(map[string]struct{})}
	for _, line := range lines {
		d.processLine(line, opts)
	}
	return d
}

func (d *Dictionary) loadFile(path string, opts Options) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		d.processLine(scanner.Text(), opts)
	}
	return scanner.Err()
}

// processLine implements the per-line branch of Dictionary.generate(),
// in the same order as the Python original.
func (d *Dictionary) processLine(line string, opts Options) {
	line = strings.TrimPrefix(line, "/")

	if opts.RemoveExtensions {
		if idx := strings.Index(line, "."); idx >= 0 {
			line = line[:idx]
		}
	}

	if !isValidLine(line, opts.ExcludeExtensions) {
		return
	}

	switch {
	case extTagRe.MatchString(line):
		for _, ext := range opts.Extensions {
			entry := extTagRe.ReplaceAllString(line, ext)
			d.add(entry, opts)
		}

	case opts.ForceExtensions && !strings.HasSuffix(line, "/") && !hasExtension(line):
		d.add(line, opts)
		d.add(line+"/", opts)
		for _, ext := range opts.Extensions {
			d.add(line+"."+ext, opts)
		}

	case opts.OverwriteExtensions && hasOverwritableExtension(line, opts.Extensions) &&
		!strings.Contains(line, "?") && !strings.Contains(line, "#"):
		d.add(line, opts)
		for _, ext := range opts.Extensions {
			entry := extensionRe.ReplaceAllString(line, "."+ext)
			d.add(entry, opts)
		}

	default:
		d.add(line, opts)
	}
}

// isValidLine mirrors Dictionary.is_valid: empty/comment lines are
// invalid, as are lines whose extension is excluded.
func isValidLine(line string, excludeExtensions []string) bool {
	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}
	for _, ext := range excludeExtensions {
		if strings.HasSuffix(line, "."+ext) {
			return false
		}
	}
	return true
}

func hasExtension(line string) bool {
	base := line
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	return extensionRe.MatchString(base)
}

func hasOverwritableExtension(line string, extensions []string) bool {
	m := extensionRe.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	ext := strings.ToLower(m[1])
	if extensionIgnoreList[ext] {
		return false
	}
	for _, e := range extensions {
		if strings.EqualFold(e, ext) {
			return false
		}
	}
	return true
}

// add applies prefix/suffix expansion, then casing to each resulting
// entry (prefix and suffix included), then exact-match-dedup insertion
// — mirroring Dictionary.add/append.
func (d *Dictionary) add(path string, opts Options) {
	append0 := func(p string) {
		p = applyCasing(p, opts.Casing)
		if _, dup := d.seen[p]; dup {
			return
		}
		d.seen[p] = struct{}{}
		d.entries = append(d.entries, p)
	}

	for _, pref := range opts.Prefixes {
		if !strings.HasPrefix(path, "/") && !strings.HasPrefix(path, pref) {
			append0(pref + path)
		}
	}
	for _, suff := range opts.Suffixes {
		if !strings.HasSuffix(path, "/") && !strings.HasSuffix(path, suff) && !strings.Contains(path, "#") {
			append0(path + suff)
		}
	}
	if len(opts.Prefixes) == 0 && len(opts.Suffixes) == 0 {
		append0(path)
	}
}

func applyCasing(path string, c Casing) string {
	switch c {
	case CasingLower:
		return strings.ToLower(path)
	case CasingUpper:
		return strings.ToUpper(path)
	case CasingCapitalize:
		if path == "" {
			return path
		}
		return strings.ToUpper(path[:1]) + path[1:]
	default:
		return path
	}
}

// Next returns the next entry and true, or ("", false) once exhausted.
// Safe for concurrent callers: each entry is handed to exactly one
// caller.
func (d *Dictionary) Next() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cursor >= len(d.entries) {
		return "", false
	}
	e := d.entries[d.cursor]
	d.cursor++
	return e, true
}

// Reset rewinds the cursor to 0 for a fresh directory.
func (d *Dictionary) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursor = 0
}

// Len returns the total number of entries.
func (d *Dictionary) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// Contains reports exact-match membership.
func (d *Dictionary) Contains(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[path]
	return ok
}

// Entries returns a copy of the full ordered sequence.
func (d *Dictionary) Entries() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.entries))
	copy(out, d.entries)
	return out
}
