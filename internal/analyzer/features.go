// Package analyzer implements the soft-404 feature extractor and
// density-based clustering classifier, grounded on dirsearch's
// lib/analysis/{analyzer,identify404}.py.
package analyzer

import (
	"strings"

	"github.com/sentryfuzz/sentryfuzz/internal/normalize"
	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

// FeatureNames returns the fixed-width column header for a feature row:
// status_code, body_length, standard_body_length, then the per-character
// density counts in generation order.
func FeatureNames() []string {
	return []string{
		"status_code", "body_length", "standard_body_length",
		"c:<", "c:>", "c:/",
		"c:</", "c:/>", "c:=/",
		"c:.", "c:'",
		"c:[", "c:]",
		"c:|", "c:&",
		"c:+", "c:-", "c:*",
		"c:{", "c:}", "c::",
		"c:\"", "c:,", "c:=",
		"c:(", "c:)", "c:;",
	}
}

// BuildFeatureRow extracts the fixed-width feature vector for a single
// response, mirroring get_404_features.
func BuildFeatureRow(resp *types.Response) types.FeatureRow {
	standard := normalize.Body(resp.FullURL, resp.Path, resp.Body)
	s := string(standard)

	features := []float64{
		float64(resp.StatusCode),
		float64(len(resp.Body)),
		float64(len(standard)),
		float64(strings.Count(s, "<")),
		float64(strings.Count(s, ">")),
		float64(strings.Count(s, "/")),
		float64(strings.Count(s, "</")),
		float64(strings.Count(s, "/>")),
		float64(strings.Count(s, "=/")),
		float64(strings.Count(s, ".")),
		float64(strings.Count(s, "'")),
		float64(strings.Count(s, "[")),
		float64(strings.Count(s, "]")),
		float64(strings.Count(s, "|")),
		float64(strings.Count(s, "&")),
		float64(strings.Count(s, "+")),
		float64(strings.Count(s, "-")),
		float64(strings.Count(s, "*")),
		float64(strings.Count(s, "{")),
		float64(strings.Count(s, "}")),
		float64(strings.Count(s, ":")),
		float64(strings.Count(s, "\"")),
		float64(strings.Count(s, ",")),
		float64(strings.Count(s, "=")),
		float64(strings.Count(s, "(")),
		float64(strings.Count(s, ")")),
		float64(strings.Count(s, ";")),
	}

	contentType := resp.ContentType
	if idx := strings.IndexByte(contentType, ';'); idx >= 0 {
		contentType = contentType[:idx]
	}
	contentType = strings.TrimSpace(contentType)

	return types.FeatureRow{
		Features:    features,
		URL:         resp.FullURL,
		ContentType: contentType,
		StatusCode:  resp.StatusCode,
	}
}
