// Package normalize implements the response-body standardization
// shared by the Fuzzer's soft-404 baseline check and the Analyzer's
// feature extraction, grounded on dirsearch's
// lib/analysis/identify404.py get_standarized_response_body.
package normalize

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s`)
	multiSlashRe  = regexp.MustCompile(`/+`)
	multiDigitsRe = regexp.MustCompile(`[0-9]+`)
)

// Body strips requestURL and its path (including a duplicate-slash
// collapsed variant) out of body, removes all whitespace, and
// collapses every run of ASCII digits to a single "0".
func Body(requestURL, path string, body []byte) []byte {
	requestURL = strings.TrimSpace(requestURL)
	b := strings.TrimSpace(string(body))
	if b == "" {
		return nil
	}

	if requestURL != "" {
		b = strings.ReplaceAll(b, requestURL, "")
		if len(path) > 1 {
			b = strings.ReplaceAll(b, path, "")
			collapsed := multiSlashRe.ReplaceAllString(path, "/")
			if collapsed != path {
				b = strings.ReplaceAll(b, collapsed, "")
			}
		}
	}

	b = whitespaceRe.ReplaceAllString(b, "")
	b = multiDigitsRe.ReplaceAllString(b, "0")
	return []byte(b)
}
