// Package fuzzer implements the bounded worker pool that drains a
// Dictionary against one target base path, generalizing
// internal/engine/scheduler.go's Scheduler worker/idle-monitor pattern
// from a frontier of crawl requests to a dictionary of fuzz paths.
package fuzzer

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sentryfuzz/sentryfuzz/internal/httpclient"
	"github.com/sentryfuzz/sentryfuzz/internal/dictionary"
	"github.com/sentryfuzz/sentryfuzz/internal/normalize"
	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

// Callbacks are invoked, one response at a time and to completion, on
// the worker goroutine that produced the response — callback ordering
// across different workers is not guaranteed.
type Callbacks struct {
	Match    func(*types.Response)
	NotFound func(*types.Response)
	Error    func(*types.Request, error)
}

// Options configures a Fuzzer run over a single base path.
type Options struct {
	Threads int
	Delay   time.Duration
	Crawl   bool
	Method  string
}

// Fuzzer drains a Dictionary against BasePath via a bounded worker
// pool, classifying each Response as match or not-found against a
// soft-404 baseline probe.
type Fuzzer struct {
	client    *httpclient.Client
	dict      *dictionary.Dictionary
	target    *url.URL
	basePath  string
	opts      Options
	callbacks Callbacks
	logger    *slog.Logger

	gate   *pauseGate
	stopCh chan struct{}
	stopOnce sync.Once

	wg   sync.WaitGroup
	done chan struct{}
	doneOnce    sync.Once

	crawlMu    sync.Mutex
	crawlExtra []string
	crawlSeen  map[string]struct{}

	baseline *types.Response
}

var linkAttrRe = regexp.MustCompile(`(?i)(href|src|action)\s*=\s*["']([^"']+)["']`)

// New builds a Fuzzer. target is the scheme+host+port root; BasePath
// is set separately via SetBasePath for each directory dequeued by the
// Controller.
func New(client *httpclient.Client, dict *dictionary.Dictionary, target *url.URL, opts Options, cb Callbacks, logger *slog.Logger) *Fuzzer {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	return &Fuzzer{
		client:    client,
		dict:      dict,
		target:    target,
		opts:      opts,
		callbacks: cb,
		logger:    logger.With("component", "fuzzer"),
		gate:      newPauseGate(),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
		crawlSeen: make(map[string]struct{}),
	}
}

// SetBasePath sets the directory this Fuzzer run scans.
func (f *Fuzzer) SetBasePath(path string) {
	f.basePath = path
}

// Start probes the soft-404 baseline, then launches the worker pool.
func (f *Fuzzer) Start(ctx context.Context) error {
	f.dict.Reset()

	baseline, err := f.probeBaseline(ctx)
	if err == nil {
		f.baseline = baseline
	}
	// A failed baseline probe is not fatal: every response is simply
	// treated as a potential match until classified by filters
	// downstream in the Controller.

	for i := 0; i < f.opts.Threads; i++ {
		f.wg.Add(1)
		go f.worker(ctx, i)
	}
	go func() {
		f.wg.Wait()
		f.doneOnce.Do(func() { close(f.done) })
	}()
	return nil
}

// probeBaseline requests a random, near-certainly-nonexistent path
// under basePath and captures the response as the soft-404 baseline.
func (f *Fuzzer) probeBaseline(ctx context.Context) (*types.Response, error) {
	req := types.NewRequest(f.target, f.basePath+randomPath(), f.method())
	return f.client.Do(ctx, req, "")
}

func (f *Fuzzer) method() string {
	if f.opts.Method == "" {
		return "GET"
	}
	return f.opts.Method
}

func randomPath() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b) + "-sentryfuzz-baseline"
}

// Wait blocks up to timeout and reports whether the pool fully
// drained within it.
func (f *Fuzzer) Wait(timeout time.Duration) bool {
	select {
	case <-f.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Pause blocks workers at their next checkpoint; in-flight requests
// complete first.
func (f *Fuzzer) Pause() { f.gate.Pause() }

// Resume unblocks paused workers.
func (f *Fuzzer) Resume() { f.gate.Resume() }

// Stop signals workers to end at their next checkpoint.
func (f *Fuzzer) Stop() {
	f.stopOnce.Do(func() { close(f.stopCh) })
}

// IsStopped reports whether the pool has fully drained (by
// exhaustion or Stop).
func (f *Fuzzer) IsStopped() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *Fuzzer) worker(ctx context.Context, id int) {
	defer f.wg.Done()
	logger := f.logger.With("worker", id)

	for {
		select {
		case <-f.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		f.gate.Wait(f.stopCh)

		select {
		case <-f.stopCh:
			return
		default:
		}

		path, ok := f.nextPath()
		if !ok {
			return
		}

		req := types.NewRequest(f.target, f.basePath+path, f.method())
		resp, err := f.client.Do(ctx, req, "")
		if err != nil {
			logger.Debug("request error", "path", path, "error", err)
			if f.callbacks.Error != nil {
				f.callbacks.Error(req, err)
			}
			continue
		}

		if f.isNotFound(resp) {
			if f.callbacks.NotFound != nil {
				f.callbacks.NotFound(resp)
			}
		} else {
			if f.callbacks.Match != nil {
				f.callbacks.Match(resp)
			}
			if f.opts.Crawl {
				f.extractLinks(resp)
			}
		}

		if f.opts.Delay > 0 {
			time.Sleep(f.opts.Delay)
		}
	}
}

// nextPath first drains any crawl-discovered paths, then the
// Dictionary proper, so crawl-mode discoveries are serviced promptly
// without starving the underlying wordlist.
func (f *Fuzzer) nextPath() (string, bool) {
	f.crawlMu.Lock()
	if len(f.crawlExtra) > 0 {
		p := f.crawlExtra[0]
		f.crawlExtra = f.crawlExtra[1:]
		f.crawlMu.Unlock()
		return p, true
	}
	f.crawlMu.Unlock()

	return f.dict.Next()
}

// isNotFound classifies resp against the soft-404 baseline: identical
// status and identical normalized body both indicate a server-side
// "not found" masquerading as any status code.
func (f *Fuzzer) isNotFound(resp *types.Response) bool {
	if f.baseline == nil {
		return false
	}
	if resp.StatusCode != f.baseline.StatusCode {
		return false
	}
	respBody := normalize.Body(resp.FullURL, resp.Path, resp.Body)
	baseBody := normalize.Body(f.baseline.FullURL, f.baseline.Path, f.baseline.Body)
	return string(respBody) == string(baseBody)
}

// extractLinks pulls href/src/action targets out of a matched body and
// feeds new same-scope paths back into the worker queue — the crawl
// flag's feedback loop, implemented via goquery when the content type
// names HTML and a regex scan for any other body (e.g. JS).
func (f *Fuzzer) extractLinks(resp *types.Response) {
	var links []string

	if strings.Contains(resp.ContentType, "html") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.Body)))
		if err == nil {
			doc.Find("a[href], script[src], form[action]").Each(func(_ int, s *goquery.Selection) {
				for _, attr := range []string{"href", "src", "action"} {
					if v, ok := s.Attr(attr); ok {
						links = append(links, v)
					}
				}
			})
		}
	} else {
		for _, m := range linkAttrRe.FindAllStringSubmatch(string(resp.Body), -1) {
			links = append(links, m[2])
		}
	}

	f.crawlMu.Lock()
	defer f.crawlMu.Unlock()
	for _, link := range links {
		path := f.inScopePath(link)
		if path == "" {
			continue
		}
		if _, dup := f.crawlSeen[path]; dup {
			continue
		}
		f.crawlSeen[path] = struct{}{}
		f.crawlExtra = append(f.crawlExtra, path)
	}
}

// inScopePath returns the literal path to re-fuzz if link stays within
// this target's host and current base path, or "" otherwise.
func (f *Fuzzer) inScopePath(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		if u.Host != f.target.Host {
			return ""
		}
	}
	p := strings.TrimPrefix(u.Path, "/")
	prefix := f.basePath
	if !strings.HasPrefix(p, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(p, prefix)
	if rest == "" {
		return ""
	}
	return rest
}
