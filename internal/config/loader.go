package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment over defaults.
// Priority (highest to lowest): env vars > config file > defaults. CLI
// flags are applied on top by the caller after Load returns.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("SENTRYFUZZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("sentryfuzz")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".sentryfuzz"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env/flag overrides
// layer on top of them correctly.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("scan.threads", cfg.Scan.Threads)
	v.SetDefault("scan.delay", cfg.Scan.Delay)
	v.SetDefault("scan.maxtime", cfg.Scan.MaxTime)
	v.SetDefault("scan.exit_on_error", cfg.Scan.ExitOnError)
	v.SetDefault("scan.crawl", cfg.Scan.Crawl)
	v.SetDefault("scan.subdirs", cfg.Scan.Subdirs)
	v.SetDefault("scan.skip_on_status", cfg.Scan.SkipOnStatus)

	v.SetDefault("http.method", cfg.HTTP.Method)
	v.SetDefault("http.follow_redirects", cfg.HTTP.FollowRedirects)
	v.SetDefault("http.max_pool", cfg.HTTP.MaxPool)
	v.SetDefault("http.max_retries", cfg.HTTP.MaxRetries)
	v.SetDefault("http.max_rate", cfg.HTTP.MaxRate)
	v.SetDefault("http.timeout", cfg.HTTP.Timeout)
	v.SetDefault("http.max_body_size", cfg.HTTP.MaxBodySize)
	v.SetDefault("http.scheme", cfg.HTTP.Scheme)

	v.SetDefault("proxy.rotation", cfg.Proxy.Rotation)

	v.SetDefault("dictionary.blacklist_dir", cfg.Dictionary.BlacklistDir)

	v.SetDefault("recursion.recursion_depth", cfg.Recursion.RecursionDepth)
	v.SetDefault("recursion.recursion_status", cfg.Recursion.RecursionStatus)

	v.SetDefault("analyzer.enabled", cfg.Analyzer.Enabled)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
