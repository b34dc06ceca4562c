package controller

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sentryfuzz/sentryfuzz/internal/config"
	"github.com/sentryfuzz/sentryfuzz/internal/dictionary"
	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

// Filter implements the response-acceptance predicate (`is_valid` in
// dirsearch) as an ordered rejection chain: status codes, blacklist,
// size, text, and redirect exclusions are each checked in turn.
type Filter struct {
	cfg           config.FilterConfig
	blacklist     dictionary.Blacklist
	excludeSizes  map[string]struct{}
	excludeRegex  *regexp.Regexp
	excludeRedir  *regexp.Regexp
}

// NewFilter compiles a Filter from FilterConfig plus the status-keyed
// blacklists loaded for the dictionary.
func NewFilter(cfg config.FilterConfig, blacklist dictionary.Blacklist) (*Filter, error) {
	f := &Filter{cfg: cfg, blacklist: blacklist}

	f.excludeSizes = make(map[string]struct{}, len(cfg.ExcludeSizes))
	for _, s := range cfg.ExcludeSizes {
		f.excludeSizes[strings.TrimSpace(strings.ToLower(s))] = struct{}{}
	}

	if cfg.ExcludeRegex != "" {
		re, err := regexp.Compile(cfg.ExcludeRegex)
		if err != nil {
			return nil, err
		}
		f.excludeRegex = re
	}

	if cfg.ExcludeRedirect != "" {
		re, err := regexp.Compile(cfg.ExcludeRedirect)
		if err == nil {
			f.excludeRedir = re
		}
		// A non-regex ExcludeRedirect is treated as a plain substring
		// match in Accept, matching dirsearch's behavior of trying
		// re.compile and falling back to `in` containment.
	}

	return f, nil
}

// Accept runs resp through the ordered rejection chain and reports
// whether it should be reported as a match.
func (f *Filter) Accept(resp *types.Response) bool {
	if contains(f.cfg.ExcludeStatusCodes, resp.StatusCode) {
		return false
	}
	if len(f.cfg.IncludeStatusCodes) > 0 && !contains(f.cfg.IncludeStatusCodes, resp.StatusCode) {
		return false
	}
	if f.blacklist != nil && f.blacklist.Matches(resp.StatusCode, resp.Path) {
		return false
	}
	if _, excluded := f.excludeSizes[humanSize(int64(len(resp.Body)))]; excluded {
		return false
	}
	if f.cfg.MinResponseSize > 0 && int64(len(resp.Body)) < f.cfg.MinResponseSize {
		return false
	}
	if f.cfg.MaxResponseSize > 0 && int64(len(resp.Body)) > f.cfg.MaxResponseSize {
		return false
	}
	for _, text := range f.cfg.ExcludeTexts {
		if text != "" && strings.Contains(string(resp.Body), text) {
			return false
		}
	}
	if f.excludeRegex != nil && f.excludeRegex.Match(resp.Body) {
		return false
	}
	if resp.RedirectTo != "" {
		if f.excludeRedir != nil && f.excludeRedir.MatchString(resp.RedirectTo) {
			return false
		}
		if f.cfg.ExcludeRedirect != "" && f.excludeRedir == nil && strings.Contains(resp.RedirectTo, f.cfg.ExcludeRedirect) {
			return false
		}
	}
	return true
}

func contains(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// humanSize renders n the way dirsearch's FileUtils.get_readable_size
// does — nearest unit, two-decimal precision, lowercased — so it can
// be compared against user-supplied exclude-size strings like "1.00kb".
func humanSize(n int64) string {
	units := []string{"b", "kb", "mb", "gb"}
	size := float64(n)
	unit := 0
	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}
	return strconv.FormatFloat(size, 'f', 2, 64) + units[unit]
}
