// Package controller drives a full scan across one or more targets:
// URL normalization, directory recursion, response filtering,
// error-budget tracking, and the interactive pause menu, grounded on
// dirsearch's Controller and on internal/engine/engine.go's per-crawl
// orchestration loop.
package controller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sentryfuzz/sentryfuzz/internal/config"
	"github.com/sentryfuzz/sentryfuzz/internal/dictionary"
	"github.com/sentryfuzz/sentryfuzz/internal/fuzzer"
	"github.com/sentryfuzz/sentryfuzz/internal/httpclient"
	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

// maxConsecutiveRequestErrors is the hard ceiling past which a target
// is abandoned even without exit_on_error set.
const maxConsecutiveRequestErrors = 50

// Stats are the Controller's running counters for one invocation.
type Stats struct {
	RequestsSent      atomic.Int64
	Errors            atomic.Int64
	Matches           atomic.Int64
	NotFound          atomic.Int64
	ConsecutiveErrors atomic.Int64
}

// Callbacks let the caller observe scan progress (for reporting and
// metrics) without the Controller depending on those packages
// directly.
type Callbacks struct {
	OnMatch func(*types.Response)
	OnError func(target string, err error)
}

// Controller drives the scan for one or more targets sequentially.
type Controller struct {
	client     *httpclient.Client
	dictOpts   dictionary.Options
	filter     *Filter
	scanCfg    config.ScanConfig
	recursion  config.RecursionConfig
	schemeOpt  string
	logger     *slog.Logger
	callbacks  Callbacks

	stats     Stats
	responses []*types.Response
	respMu    sync.Mutex

	// basePath is the current target's base path, set once per
	// ScanTarget call; recursion depth is measured relative to it.
	basePath string

	gateMu sync.Mutex
	paused bool
	pauseIn  io.Reader
	pauseOut io.Writer
}

// New builds a Controller. The interactive pause menu reads os.Stdin
// and writes os.Stdout.
func New(client *httpclient.Client, dictOpts dictionary.Options, filter *Filter, scanCfg config.ScanConfig, recursion config.RecursionConfig, schemeOpt string, cb Callbacks, logger *slog.Logger) *Controller {
	return &Controller{
		client:    client,
		dictOpts:  dictOpts,
		filter:    filter,
		scanCfg:   scanCfg,
		recursion: recursion,
		schemeOpt: schemeOpt,
		callbacks: cb,
		logger:    logger.With("component", "controller"),
		pauseIn:   os.Stdin,
		pauseOut:  os.Stdout,
	}
}

// Responses returns every response collected across all targets so
// far, for the Analyzer to cluster once scanning completes.
func (c *Controller) Responses() []*types.Response {
	c.respMu.Lock()
	defer c.respMu.Unlock()
	return append([]*types.Response(nil), c.responses...)
}

// RequestPause is called from a signal handler (SIGINT) to trigger
// the interactive pause menu at the next safe checkpoint.
func (c *Controller) RequestPause() {
	c.gateMu.Lock()
	c.paused = true
	c.gateMu.Unlock()
}

// ScanTarget runs the full directory-recursion scan against one
// target: resolve the target URL, seed the initial directory queue,
// and drain it to completion or abandonment.
func (c *Controller) ScanTarget(ctx context.Context, rawTarget string) error {
	resolved, err := ResolveTarget(rawTarget, c.schemeOpt)
	if err != nil {
		return err
	}
	if resolved.Credential != "" {
		c.client.SetAuth("basic", resolved.Credential)
	}

	queue := newDirectoryQueue()
	subdirs := c.scanCfg.Subdirs
	if len(subdirs) == 0 {
		subdirs = []string{""}
	}
	basePath := strings.TrimPrefix(resolved.URL.Path, "/")
	c.basePath = basePath
	for _, sub := range subdirs {
		queue.Push(basePath + strings.TrimPrefix(sub, "/"))
	}

	for {
		dir, ok := queue.Pop()
		if !ok {
			break
		}

		if _, err := c.scanDirectory(ctx, resolved.URL, dir.Path, queue); err != nil {
			var skip *types.SkipTargetError
			if errors.As(err, &skip) {
				c.logger.Warn("target skipped", "target", rawTarget, "reason", skip.Reason)
				return nil
			}
			return err
		}
	}

	return nil
}

// scanDirectory runs one Fuzzer pass over dir, applying filters and
// scheduling recursion for matches, and returns the matches accepted.
func (c *Controller) scanDirectory(ctx context.Context, target *url.URL, dirPath string, queue *directoryQueue) ([]*types.Response, error) {
	dict, err := dictionary.New(c.dictOpts)
	if err != nil {
		return nil, fmt.Errorf("build dictionary: %w", err)
	}

	var accepted []*types.Response
	var acceptedMu sync.Mutex

	cb := fuzzer.Callbacks{
		Match: func(resp *types.Response) {
			c.stats.RequestsSent.Add(1)
			c.stats.ConsecutiveErrors.Store(0)
			if !c.filter.Accept(resp) {
				return
			}
			if c.skippedByStatus(resp.StatusCode) {
				return
			}
			c.stats.Matches.Add(1)
			c.respMu.Lock()
			c.responses = append(c.responses, resp)
			c.respMu.Unlock()
			acceptedMu.Lock()
			accepted = append(accepted, resp)
			acceptedMu.Unlock()
			if c.callbacks.OnMatch != nil {
				c.callbacks.OnMatch(resp)
			}
			c.scheduleRecursion(resp, dirPath, queue)
		},
		NotFound: func(resp *types.Response) {
			c.stats.RequestsSent.Add(1)
			c.stats.NotFound.Add(1)
			c.stats.ConsecutiveErrors.Store(0)
			c.respMu.Lock()
			c.responses = append(c.responses, resp)
			c.respMu.Unlock()
		},
		Error: func(req *types.Request, err error) {
			c.stats.Errors.Add(1)
			c.stats.ConsecutiveErrors.Add(1)
			if c.callbacks.OnError != nil {
				c.callbacks.OnError(req.URLString(), err)
			}
		},
	}

	f := fuzzer.New(c.client, dict, target, fuzzer.Options{
		Threads: c.scanCfg.Threads,
		Delay:   c.scanCfg.Delay,
		Crawl:   c.scanCfg.Crawl,
		Method:  "GET",
	}, cb, c.logger)
	f.SetBasePath(dirPath)

	if err := f.Start(ctx); err != nil {
		return nil, fmt.Errorf("start fuzzer: %w", err)
	}

	if err := c.process(ctx, f, target, queue); err != nil {
		return accepted, err
	}

	if c.scanCfg.ExitOnError && c.stats.Errors.Load() > 0 {
		return accepted, &types.QuitError{Reason: "exit_on_error set and at least one request error occurred"}
	}
	if c.stats.ConsecutiveErrors.Load() > maxConsecutiveRequestErrors {
		return accepted, &types.SkipTargetError{Reason: "too many consecutive request errors"}
	}

	return accepted, nil
}

// process blocks until f drains, polling at the same 0.25s cadence as
// dirsearch's Controller.process, honoring options.MaxTime and routing
// a pending pause request to the interactive menu.
func (c *Controller) process(ctx context.Context, f *fuzzer.Fuzzer, target *url.URL, queue *directoryQueue) error {
	deadline := time.Time{}
	if c.scanCfg.MaxTime > 0 {
		deadline = time.Now().Add(c.scanCfg.MaxTime)
	}

	for {
		if f.Wait(250 * time.Millisecond) {
			return nil
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			f.Stop()
			return &types.SkipTargetError{Reason: "maxtime exceeded"}
		}

		c.gateMu.Lock()
		paused := c.paused
		c.gateMu.Unlock()
		if paused {
			action := c.handlePause(f, target, queue)
			c.gateMu.Lock()
			c.paused = false
			c.gateMu.Unlock()
			switch action {
			case pauseActionQuit:
				f.Stop()
				return &types.QuitError{Reason: "user quit"}
			case pauseActionSkipTarget:
				f.Stop()
				return &types.SkipTargetError{Reason: "user skipped target"}
			case pauseActionNextDirectory:
				f.Stop()
				return nil
			case pauseActionContinue:
				// fall through, resume polling
			}
		}

		if ctx.Err() != nil {
			f.Stop()
			return ctx.Err()
		}
	}
}

type pauseAction int

const (
	pauseActionContinue pauseAction = iota
	pauseActionQuit
	pauseActionNextDirectory
	pauseActionSkipTarget
)

// handlePause prints the interactive menu and reads one line of
// stdin, matching dirsearch's handle_pause: this is necessarily
// terminal-interactive rather than library-driven. On quit it offers
// to serialize the session before returning.
func (c *Controller) handlePause(f *fuzzer.Fuzzer, target *url.URL, queue *directoryQueue) pauseAction {
	f.Pause()
	defer f.Resume()

	fmt.Fprintln(c.pauseOut, "\n[q]uit / [c]ontinue / [n]ext-directory / [s]kip-target:")
	scanner := bufio.NewScanner(c.pauseIn)
	if !scanner.Scan() {
		return pauseActionContinue
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "q", "quit":
		c.offerSaveSession(scanner, target, queue)
		return pauseActionQuit
	case "n", "next-directory":
		return pauseActionNextDirectory
	case "s", "skip-target":
		return pauseActionSkipTarget
	default:
		return pauseActionContinue
	}
}

// offerSaveSession prompts for confirmation, then writes the session to
// scanCfg.SessionFile, prompting for a path only when that is empty,
// matching dirsearch's quit-time "save the current session?" prompt.
func (c *Controller) offerSaveSession(scanner *bufio.Scanner, target *url.URL, queue *directoryQueue) {
	fmt.Fprint(c.pauseOut, "save session before quitting? [y/N]: ")
	if !scanner.Scan() {
		return
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	if answer != "y" && answer != "yes" {
		return
	}

	path := c.scanCfg.SessionFile
	if path == "" {
		fmt.Fprint(c.pauseOut, "session file path: ")
		if !scanner.Scan() {
			return
		}
		path = strings.TrimSpace(scanner.Text())
	}
	if path == "" {
		fmt.Fprintln(c.pauseOut, "no path given, session not saved")
		return
	}

	queued, visited := queue.Snapshot()
	sess := &Session{
		Target:   target.String(),
		BasePath: c.basePath,
		Queue:    queued,
		Visited:  visited,
		Stats: SessionStats{
			RequestsSent:      c.stats.RequestsSent.Load(),
			Errors:            c.stats.Errors.Load(),
			Matches:           c.stats.Matches.Load(),
			ConsecutiveErrors: c.stats.ConsecutiveErrors.Load(),
		},
	}
	if err := SaveSession(path, sess); err != nil {
		fmt.Fprintf(c.pauseOut, "session save failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.pauseOut, "session saved to %s\n", path)
}

func (c *Controller) skippedByStatus(status int) bool {
	for _, s := range c.scanCfg.SkipOnStatus {
		if s == status {
			return true
		}
	}
	return false
}

// scheduleRecursion enqueues descendant directories for a matched
// response, rejecting entries past recursion_depth or already visited
// (queue.Push's dedup).
func (c *Controller) scheduleRecursion(resp *types.Response, dirPath string, queue *directoryQueue) {
	baseDepth := depth(c.basePath)

	if resp.IsRedirect() {
		if target, ok := redirectDescent(resp.Path, resp.RedirectTo, c.recursion.RecursionDepth, baseDepth); ok {
			queue.Push(target)
		}
		return
	}

	if !contains(c.recursion.RecursionStatus, resp.StatusCode) {
		return
	}

	for _, target := range recursionTargets(resp.Path, c.recursion.DeepRecursive, c.recursion.Recursive, c.recursion.RecursionDepth, baseDepth) {
		if c.isExcludedSubdir(target) {
			continue
		}
		queue.Push(target)
	}
}

func (c *Controller) isExcludedSubdir(path string) bool {
	for _, ex := range c.recursion.ExcludeSubdirs {
		if strings.HasPrefix(path, strings.TrimPrefix(ex, "/")) {
			return true
		}
	}
	return false
}
