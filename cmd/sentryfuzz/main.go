package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sentryfuzz/sentryfuzz/internal/analyzer"
	"github.com/sentryfuzz/sentryfuzz/internal/config"
	"github.com/sentryfuzz/sentryfuzz/internal/controller"
	"github.com/sentryfuzz/sentryfuzz/internal/dictionary"
	"github.com/sentryfuzz/sentryfuzz/internal/httpclient"
	"github.com/sentryfuzz/sentryfuzz/internal/observability"
	"github.com/sentryfuzz/sentryfuzz/internal/report"
	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

var (
	cfgFile    string
	verbose    bool
	outputPath string
	outputType string
	threads    int
	recursive  bool
	extensions string
	wordlists  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sentryfuzz",
		Short: "sentryfuzz — directory/path brute-force scanner with soft-404 clustering",
		Long: `sentryfuzz fuzzes a target web server with a wordlist of candidate paths,
recursing into discovered directories, and separates genuine finds from
soft-404 noise by clustering response feature vectors (DBSCAN + silhouette
score) rather than relying on a single baseline comparison.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url]...",
		Short: "Scan one or more targets",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScan,
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "report output path (default: stdout only)")
	cmd.Flags().StringVarP(&outputType, "format", "f", "plain", "report format: plain, json")
	cmd.Flags().IntVarP(&threads, "threads", "t", 0, "number of concurrent fuzzer workers (0 = config default)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recurse into discovered directories")
	cmd.Flags().StringVarP(&extensions, "extensions", "x", "", "comma-separated extensions substituted for %EXT% in wordlist entries")
	cmd.Flags().StringVarP(&wordlists, "wordlists", "w", "", "comma-separated wordlist file paths")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	client, err := httpclient.New(httpOptions(cfg), logger)
	if err != nil {
		return fmt.Errorf("create http client: %w", err)
	}
	defer client.Close()
	if cfg.HTTP.AuthType != "" {
		client.SetAuth(cfg.HTTP.AuthType, cfg.HTTP.Auth)
	}
	for _, h := range cfg.HTTP.Headers {
		if k, v, ok := strings.Cut(h, ":"); ok {
			client.SetHeader(strings.TrimSpace(k), strings.TrimSpace(v))
		}
	}

	blacklist, err := dictionary.LoadBlacklists(cfg.Dictionary.BlacklistDir)
	if err != nil {
		logger.Warn("failed to load blacklists, continuing without them", "error", err)
		blacklist = dictionary.Blacklist{}
	}
	filter, err := controller.NewFilter(cfg.Filter, blacklist)
	if err != nil {
		return fmt.Errorf("build filter: %w", err)
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(logger)
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	ctl := controller.New(client, dictionaryOptions(cfg), filter, cfg.Scan, cfg.Recursion, cfg.HTTP.Scheme,
		controller.Callbacks{
			OnMatch: func(resp *types.Response) {
				if metrics != nil {
					metrics.RecordResponse(resp.StatusCode)
					metrics.MatchesFound.Add(1)
				}
			},
			OnError: func(target string, err error) {
				logger.Warn("target scan error", "target", target, "error", err)
			},
		}, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for range sigCh {
			logger.Info("received interrupt, requesting pause")
			ctl.RequestPause()
		}
	}()

	start := time.Now()
	for _, target := range args {
		if err := ctl.ScanTarget(ctx, target); err != nil {
			logger.Error("scan aborted for target", "target", target, "error", err)
			var quit *types.QuitError
			if errors.As(err, &quit) {
				break
			}
		}
	}
	elapsed := time.Since(start)

	responses := ctl.Responses()
	logger.Info("scan complete", "elapsed", elapsed, "responses", len(responses))

	result := &types.AnalysisResult{Existing: responses}
	if cfg.Analyzer.Enabled {
		a := analyzer.New(analyzer.DefaultOptions(), logger)
		result, err = a.Analyze(responses)
		if err != nil {
			return fmt.Errorf("analyze responses: %w", err)
		}
		logger.Info("analysis complete",
			"best_score", result.Report.BestScore,
			"clusters", result.Report.BestClusters,
			"existing", len(result.Existing))
	}

	writer := newReportWriter(outputType, outputPath, logger)
	if writer != nil {
		target := args[0]
		if err := writer.Open(target); err != nil {
			return fmt.Errorf("open report: %w", err)
		}
		for _, resp := range result.Existing {
			if err := writer.Append(resp); err != nil {
				logger.Warn("failed to append report entry", "error", err)
			}
		}
		if err := writer.SaveInformation(fmt.Sprintf("scan finished in %s", elapsed.Round(time.Millisecond))); err != nil {
			logger.Warn("failed to save closing note", "error", err)
		}
		if err := writer.Finalize(); err != nil {
			return fmt.Errorf("finalize report: %w", err)
		}
	}

	fmt.Printf("\nScan complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("  Responses analyzed: %d\n", len(responses))
	fmt.Printf("  Existing assets:    %d\n", len(result.Existing))
	if outputPath != "" {
		fmt.Printf("  Report:             %s\n", outputPath)
	}

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sentryfuzz %s\n", config.Version)
		},
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Scan:\n")
			fmt.Printf("  Threads:        %d\n", cfg.Scan.Threads)
			fmt.Printf("  Delay:          %s\n", cfg.Scan.Delay)
			fmt.Printf("  Exit on error:  %v\n", cfg.Scan.ExitOnError)
			fmt.Printf("\nHTTP:\n")
			fmt.Printf("  Method:          %s\n", cfg.HTTP.Method)
			fmt.Printf("  Timeout:         %s\n", cfg.HTTP.Timeout)
			fmt.Printf("  Max retries:     %d\n", cfg.HTTP.MaxRetries)
			fmt.Printf("  Follow redirects: %v\n", cfg.HTTP.FollowRedirects)
			fmt.Printf("\nRecursion:\n")
			fmt.Printf("  Recursive:       %v\n", cfg.Recursion.Recursive)
			fmt.Printf("  Depth:           %d\n", cfg.Recursion.RecursionDepth)
			fmt.Printf("\nAnalyzer:\n")
			fmt.Printf("  Enabled:         %v\n", cfg.Analyzer.Enabled)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:         %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:            %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func applyCLIOverrides(cfg *config.Config) {
	if threads > 0 {
		cfg.Scan.Threads = threads
	}
	if recursive {
		cfg.Recursion.Recursive = true
	}
	if extensions != "" {
		cfg.Dictionary.Extensions = strings.Split(extensions, ",")
	}
	if wordlists != "" {
		cfg.Dictionary.Wordlists = strings.Split(wordlists, ",")
	}
}

func httpOptions(cfg *config.Config) httpclient.Options {
	return httpclient.Options{
		Method:          cfg.HTTP.Method,
		MaxPool:         cfg.HTTP.MaxPool,
		MaxRetries:      cfg.HTTP.MaxRetries,
		MaxRate:         cfg.HTTP.MaxRate,
		Timeout:         cfg.HTTP.Timeout,
		MaxBodySize:     cfg.HTTP.MaxBodySize,
		FollowRedirects: cfg.HTTP.FollowRedirects,
		CertFile:        cfg.HTTP.CertFile,
		KeyFile:         cfg.HTTP.KeyFile,
		Proxies:         cfg.Proxy.URLs,
		ProxyRotation:   cfg.Proxy.Rotation,
		ProxyCredential: cfg.HTTP.ProxyAuth,
		PinnedIP:        cfg.Scan.IP,
	}
}

func dictionaryOptions(cfg *config.Config) dictionary.Options {
	casing := dictionary.CasingNone
	switch {
	case cfg.Dictionary.Lowercase:
		casing = dictionary.CasingLower
	case cfg.Dictionary.Uppercase:
		casing = dictionary.CasingUpper
	case cfg.Dictionary.Capitalization:
		casing = dictionary.CasingCapitalize
	}
	return dictionary.Options{
		Wordlists:           cfg.Dictionary.Wordlists,
		Extensions:          cfg.Dictionary.Extensions,
		ExcludeExtensions:   cfg.Dictionary.ExcludeExtensions,
		Prefixes:            cfg.Dictionary.Prefixes,
		Suffixes:            cfg.Dictionary.Suffixes,
		ForceExtensions:     cfg.Dictionary.ForceExtensions,
		OverwriteExtensions: cfg.Dictionary.OverwriteExtensions,
		RemoveExtensions:    cfg.Dictionary.RemoveExtensions,
		Casing:              casing,
	}
}

func newReportWriter(format, path string, logger *slog.Logger) report.Writer {
	if path == "" {
		return nil
	}
	switch strings.ToLower(format) {
	case "json":
		return report.NewJSONWriter(path, logger)
	default:
		return report.NewPlainWriter(path, logger)
	}
}
