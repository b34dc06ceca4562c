package config

import "time"

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for sentryfuzz.
type Config struct {
	Scan       ScanConfig       `mapstructure:"scan"       yaml:"scan"`
	HTTP       HTTPConfig       `mapstructure:"http"       yaml:"http"`
	Proxy      ProxyConfig      `mapstructure:"proxy"      yaml:"proxy"`
	Dictionary DictionaryConfig `mapstructure:"dictionary" yaml:"dictionary"`
	Filter     FilterConfig     `mapstructure:"filter"     yaml:"filter"`
	Recursion  RecursionConfig  `mapstructure:"recursion"  yaml:"recursion"`
	Analyzer   AnalyzerConfig   `mapstructure:"analyzer"   yaml:"analyzer"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    yaml:"metrics"`
}

// ScanConfig controls overall scan lifecycle.
type ScanConfig struct {
	Threads       int           `mapstructure:"threads"         yaml:"threads"`
	Delay         time.Duration `mapstructure:"delay"           yaml:"delay"`
	MaxTime       time.Duration `mapstructure:"maxtime"         yaml:"maxtime"`
	ExitOnError   bool          `mapstructure:"exit_on_error"   yaml:"exit_on_error"`
	Crawl         bool          `mapstructure:"crawl"           yaml:"crawl"`
	SessionFile   string        `mapstructure:"session_file"    yaml:"session_file"`
	Subdirs       []string      `mapstructure:"subdirs"         yaml:"subdirs"`
	SkipOnStatus  []int         `mapstructure:"skip_on_status"  yaml:"skip_on_status"`
	IP            string        `mapstructure:"ip"              yaml:"ip"`
	Batch         bool          `mapstructure:"batch"           yaml:"batch"`
}

// HTTPConfig controls the request client.
type HTTPConfig struct {
	Method          string        `mapstructure:"method"           yaml:"method"`
	Headers         []string      `mapstructure:"headers"          yaml:"headers"`
	Cookie          string        `mapstructure:"cookie"           yaml:"cookie"`
	UserAgent       string        `mapstructure:"user_agent"       yaml:"user_agent"`
	RandomAgent     bool          `mapstructure:"random_agent"     yaml:"random_agent"`
	Data            string        `mapstructure:"data"             yaml:"data"`
	CertFile        string        `mapstructure:"cert_file"        yaml:"cert_file"`
	KeyFile         string        `mapstructure:"key_file"         yaml:"key_file"`
	Auth            string        `mapstructure:"auth"             yaml:"auth"`
	AuthType        string        `mapstructure:"auth_type"        yaml:"auth_type"`
	ProxyAuth       string        `mapstructure:"proxy_auth"       yaml:"proxy_auth"`
	ReplayProxy     string        `mapstructure:"replay_proxy"     yaml:"replay_proxy"`
	FollowRedirects bool          `mapstructure:"follow_redirects" yaml:"follow_redirects"`
	MaxPool         int           `mapstructure:"max_pool"         yaml:"max_pool"`
	MaxRetries      int           `mapstructure:"max_retries"      yaml:"max_retries"`
	MaxRate         int           `mapstructure:"max_rate"         yaml:"max_rate"`
	Timeout         time.Duration `mapstructure:"timeout"          yaml:"timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"    yaml:"max_body_size"`
	Scheme          string        `mapstructure:"scheme"           yaml:"scheme"`
}

// ProxyConfig controls proxy rotation.
type ProxyConfig struct {
	URLs     []string `mapstructure:"urls"     yaml:"urls"`
	Rotation string   `mapstructure:"rotation" yaml:"rotation"` // round_robin | random
}

// DictionaryConfig controls wordlist generation.
type DictionaryConfig struct {
	Wordlists          []string `mapstructure:"wordlists"           yaml:"wordlists"`
	Extensions         []string `mapstructure:"extensions"          yaml:"extensions"`
	Prefixes           []string `mapstructure:"prefixes"            yaml:"prefixes"`
	Suffixes           []string `mapstructure:"suffixes"            yaml:"suffixes"`
	ExcludeExtensions  []string `mapstructure:"exclude_extensions"  yaml:"exclude_extensions"`
	ForceExtensions    bool     `mapstructure:"force_extensions"    yaml:"force_extensions"`
	OverwriteExtensions bool    `mapstructure:"overwrite_extensions" yaml:"overwrite_extensions"`
	RemoveExtensions   bool     `mapstructure:"remove_extensions"   yaml:"remove_extensions"`
	Lowercase          bool     `mapstructure:"lowercase"           yaml:"lowercase"`
	Uppercase          bool     `mapstructure:"uppercase"           yaml:"uppercase"`
	Capitalization     bool     `mapstructure:"capitalization"      yaml:"capitalization"`
	BlacklistDir       string   `mapstructure:"blacklist_dir"       yaml:"blacklist_dir"`
}

// FilterConfig controls response filtering (is_valid).
type FilterConfig struct {
	IncludeStatusCodes []int    `mapstructure:"include_status_codes" yaml:"include_status_codes"`
	ExcludeStatusCodes []int    `mapstructure:"exclude_status_codes" yaml:"exclude_status_codes"`
	ExcludeSizes       []string `mapstructure:"exclude_sizes"        yaml:"exclude_sizes"`
	MinResponseSize    int64    `mapstructure:"min_response_size"    yaml:"min_response_size"`
	MaxResponseSize    int64    `mapstructure:"max_response_size"    yaml:"max_response_size"`
	ExcludeTexts       []string `mapstructure:"exclude_texts"        yaml:"exclude_texts"`
	ExcludeRegex       string   `mapstructure:"exclude_regex"        yaml:"exclude_regex"`
	ExcludeRedirect    string   `mapstructure:"exclude_redirect"     yaml:"exclude_redirect"`
	ExcludeResponse    string   `mapstructure:"exclude_response"     yaml:"exclude_response"`
}

// RecursionConfig controls directory recursion.
type RecursionConfig struct {
	Recursive         bool     `mapstructure:"recursive"          yaml:"recursive"`
	DeepRecursive     bool     `mapstructure:"deep_recursive"     yaml:"deep_recursive"`
	ForceRecursive    bool     `mapstructure:"force_recursive"    yaml:"force_recursive"`
	RecursionDepth    int      `mapstructure:"recursion_depth"    yaml:"recursion_depth"`
	RecursionStatus   []int    `mapstructure:"recursion_status"   yaml:"recursion_status"`
	ExcludeSubdirs    []string `mapstructure:"exclude_subdirs"    yaml:"exclude_subdirs"`
}

// AnalyzerConfig controls the soft-404 analyzer.
type AnalyzerConfig struct {
	Enabled     bool   `mapstructure:"enabled"      yaml:"enabled"`
	FeaturesCSV string `mapstructure:"features_csv" yaml:"features_csv"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
	File   string `mapstructure:"file"   yaml:"file"`
}

// MetricsConfig controls the metrics exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Threads:      10,
			Delay:        0,
			SkipOnStatus: []int{},
			Subdirs:      []string{""},
		},
		HTTP: HTTPConfig{
			Method:          "GET",
			FollowRedirects: false,
			MaxPool:         100,
			MaxRetries:      3,
			MaxRate:         0,
			Timeout:         10 * time.Second,
			MaxBodySize:     10 * 1024 * 1024,
			Scheme:          "UNKNOWN",
		},
		Proxy: ProxyConfig{
			Rotation: "random",
		},
		Dictionary: DictionaryConfig{
			Extensions:   []string{},
			BlacklistDir: "db",
		},
		Filter: FilterConfig{
			MinResponseSize: 0,
			MaxResponseSize: 0,
		},
		Recursion: RecursionConfig{
			RecursionDepth:  0,
			RecursionStatus: []int{200, 201, 204, 301, 302, 307, 401, 403},
		},
		Analyzer: AnalyzerConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
