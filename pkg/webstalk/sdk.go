// Package webstalk provides a public SDK for embedding sentryfuzz as a
// library, generalized from the original package's functional-options
// Crawler facade.
//
// Example usage:
//
//	scanner := webstalk.NewScanner(
//	    webstalk.WithThreads(20),
//	    webstalk.WithRecursive(true),
//	    webstalk.WithExtensions("php", "html", "txt"),
//	)
//
//	result, err := scanner.Scan(context.Background(), "https://example.com")
package webstalk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/sentryfuzz/sentryfuzz/internal/analyzer"
	"github.com/sentryfuzz/sentryfuzz/internal/config"
	"github.com/sentryfuzz/sentryfuzz/internal/controller"
	"github.com/sentryfuzz/sentryfuzz/internal/dictionary"
	"github.com/sentryfuzz/sentryfuzz/internal/httpclient"
	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

// Scanner is the high-level API for using sentryfuzz as a library.
type Scanner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// Option configures a Scanner.
type Option func(*config.Config)

// WithThreads sets the number of concurrent fuzzer workers.
func WithThreads(n int) Option {
	return func(c *config.Config) { c.Scan.Threads = n }
}

// WithRecursive enables recursion into discovered directories.
func WithRecursive(recursive bool) Option {
	return func(c *config.Config) { c.Recursion.Recursive = recursive }
}

// WithRecursionDepth caps recursion depth (0 = unlimited).
func WithRecursionDepth(depth int) Option {
	return func(c *config.Config) { c.Recursion.RecursionDepth = depth }
}

// WithExtensions sets the extensions substituted for %EXT% in wordlist
// entries.
func WithExtensions(extensions ...string) Option {
	return func(c *config.Config) { c.Dictionary.Extensions = extensions }
}

// WithWordlists sets the wordlist file paths to fuzz with.
func WithWordlists(paths ...string) Option {
	return func(c *config.Config) { c.Dictionary.Wordlists = paths }
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *config.Config) { c.HTTP.UserAgent = ua }
}

// WithProxies enables proxy rotation with the given proxy URLs.
func WithProxies(urls ...string) Option {
	return func(c *config.Config) { c.Proxy.URLs = urls }
}

// WithAnalyzer enables or disables soft-404 clustering.
func WithAnalyzer(enabled bool) Option {
	return func(c *config.Config) { c.Analyzer.Enabled = enabled }
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// NewScanner creates a new Scanner with the given options layered over
// config.DefaultConfig.
func NewScanner(opts ...Option) *Scanner {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return &Scanner{cfg: cfg, logger: logger}
}

// Scan fuzzes each target sequentially and, if the analyzer is
// enabled, clusters the collected responses to separate genuine finds
// from soft-404 noise before returning.
func (s *Scanner) Scan(ctx context.Context, targets ...string) (*types.AnalysisResult, error) {
	if err := config.Validate(s.cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client, err := httpclient.New(httpOptions(s.cfg), s.logger)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}
	defer client.Close()

	blacklist, err := dictionary.LoadBlacklists(s.cfg.Dictionary.BlacklistDir)
	if err != nil {
		blacklist = dictionary.Blacklist{}
	}
	filter, err := controller.NewFilter(s.cfg.Filter, blacklist)
	if err != nil {
		return nil, fmt.Errorf("build filter: %w", err)
	}

	ctl := controller.New(client, dictionaryOptions(s.cfg), filter, s.cfg.Scan, s.cfg.Recursion, s.cfg.HTTP.Scheme,
		controller.Callbacks{}, s.logger)

	for _, target := range targets {
		if err := ctl.ScanTarget(ctx, target); err != nil {
			s.logger.Warn("target scan error", "target", target, "error", err)
			var quit *types.QuitError
			if errors.As(err, &quit) {
				break
			}
		}
	}

	responses := ctl.Responses()
	if !s.cfg.Analyzer.Enabled {
		return &types.AnalysisResult{Existing: responses}, nil
	}

	a := analyzer.New(analyzer.DefaultOptions(), s.logger)
	return a.Analyze(responses)
}

func httpOptions(cfg *config.Config) httpclient.Options {
	var randomAgents []string
	if cfg.HTTP.UserAgent != "" {
		randomAgents = []string{cfg.HTTP.UserAgent}
	}
	return httpclient.Options{
		Method:          cfg.HTTP.Method,
		MaxPool:         cfg.HTTP.MaxPool,
		MaxRetries:      cfg.HTTP.MaxRetries,
		MaxRate:         cfg.HTTP.MaxRate,
		Timeout:         cfg.HTTP.Timeout,
		MaxBodySize:     cfg.HTTP.MaxBodySize,
		FollowRedirects: cfg.HTTP.FollowRedirects,
		RandomAgents:    randomAgents,
		Proxies:         cfg.Proxy.URLs,
		ProxyRotation:   cfg.Proxy.Rotation,
		PinnedIP:        cfg.Scan.IP,
	}
}

func dictionaryOptions(cfg *config.Config) dictionary.Options {
	return dictionary.Options{
		Wordlists:           cfg.Dictionary.Wordlists,
		Extensions:          cfg.Dictionary.Extensions,
		ExcludeExtensions:   cfg.Dictionary.ExcludeExtensions,
		Prefixes:            cfg.Dictionary.Prefixes,
		Suffixes:            cfg.Dictionary.Suffixes,
		ForceExtensions:     cfg.Dictionary.ForceExtensions,
		OverwriteExtensions: cfg.Dictionary.OverwriteExtensions,
		RemoveExtensions:    cfg.Dictionary.RemoveExtensions,
	}
}
