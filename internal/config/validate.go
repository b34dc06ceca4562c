package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Scan.Threads < 1 {
		return fmt.Errorf("scan.threads must be >= 1, got %d", cfg.Scan.Threads)
	}
	if cfg.Scan.Threads > 1000 {
		return fmt.Errorf("scan.threads must be <= 1000, got %d", cfg.Scan.Threads)
	}
	if cfg.Scan.Delay < 0 {
		return fmt.Errorf("scan.delay must be >= 0")
	}

	if cfg.HTTP.MaxBodySize <= 0 {
		return fmt.Errorf("http.max_body_size must be > 0")
	}
	if cfg.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0, got %d", cfg.HTTP.MaxRetries)
	}
	if cfg.HTTP.MaxRate < 0 {
		return fmt.Errorf("http.max_rate must be >= 0, got %d", cfg.HTTP.MaxRate)
	}
	if cfg.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be > 0")
	}
	switch cfg.HTTP.Scheme {
	case "UNKNOWN", "http", "https":
	default:
		return fmt.Errorf("http.scheme must be UNKNOWN, http, or https, got %q", cfg.HTTP.Scheme)
	}
	if cfg.HTTP.AuthType != "" {
		switch cfg.HTTP.AuthType {
		case "basic", "digest", "ntlm", "bearer", "jwt", "oath2":
		default:
			return fmt.Errorf("http.auth_type %q is not supported", cfg.HTTP.AuthType)
		}
	}

	if cfg.Proxy.Rotation != "round_robin" && cfg.Proxy.Rotation != "random" {
		return fmt.Errorf("proxy.rotation must be 'round_robin' or 'random', got %q", cfg.Proxy.Rotation)
	}
	for _, proxyURL := range cfg.Proxy.URLs {
		if _, err := url.Parse(proxyURL); err != nil {
			return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
		}
	}

	if cfg.Recursion.RecursionDepth < 0 {
		return fmt.Errorf("recursion.recursion_depth must be >= 0")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateTargetURL checks that a raw target string, once a scheme is
// resolved, is acceptable for scanning. Scheme "UNKNOWN" is allowed at
// this stage: the Controller resolves it before first use.
func ValidateTargetURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	if u.Scheme != "" && u.Scheme != "unknown" && u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}
