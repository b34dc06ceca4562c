package analyzer

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

// Options configures a clustering pass over the responses collected
// during a scan.
type Options struct {
	// Eps and MinSamples are DBSCAN's two parameters. identify404.py
	// runs a single DBSCAN() with sklearn's defaults rather than
	// searching a grid, so these default to that same eps=0.5,
	// min_samples=5.
	Eps        float64
	MinSamples int

	// MinorityRatio bounds the cumulative share of responses a
	// cluster (or run of smallest clusters) may represent before it
	// stops being treated as a minority-label candidate genuine-find
	// cluster.
	MinorityRatio float64

	// FeatureDump, if non-nil, receives a CSV dump of the raw
	// (not preprocessed) feature rows for offline inspection: columns
	// url, content_type, then FeatureNames; there is no exists column.
	FeatureDump io.Writer
}

// DefaultOptions returns sklearn's DBSCAN defaults (eps=0.5,
// min_samples=5) and a 10% minority-cluster budget.
func DefaultOptions() Options {
	return Options{
		Eps:           0.5,
		MinSamples:    5,
		MinorityRatio: 0.10,
	}
}

// Analyzer clusters a run's collected responses to separate genuine
// matches from soft-404 pages that return a non-404 status code.
type Analyzer struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Analyzer {
	return &Analyzer{opts: opts, logger: logger.With("component", "analyzer")}
}

// Analyze clusters responses and returns the subset judged to be
// genuine matches, plus a report describing the clustering outcome.
func (a *Analyzer) Analyze(responses []*types.Response) (*types.AnalysisResult, error) {
	if len(responses) == 0 {
		return &types.AnalysisResult{Report: &types.ClusterReport{LabelDescription: map[string]*types.LabelDescription{}}}, nil
	}

	rows := make([]types.FeatureRow, len(responses))
	for i, r := range responses {
		rows[i] = BuildFeatureRow(r)
	}

	matrix := Preprocess(rows)
	if a.opts.FeatureDump != nil {
		if err := dumpFeatures(a.opts.FeatureDump, rows); err != nil {
			a.logger.Warn("feature dump failed", "error", err)
		}
	}

	eps, minSamples := a.opts.Eps, a.opts.MinSamples
	if eps == 0 {
		eps = DefaultOptions().Eps
	}
	if minSamples == 0 {
		minSamples = DefaultOptions().MinSamples
	}

	labels := dbscan(matrix, eps, minSamples)
	score := silhouetteScore(matrix, labels)
	clusters := clusterCount(labels)

	successLabels := minoritySuccessLabels(labels, a.opts.MinorityRatio)

	report := &types.ClusterReport{
		BestClusters:     clusters,
		BestScore:        score,
		BestK:            minSamples,
		LabelDescription: describeLabels(labels, successLabels),
	}
	a.logger.Info("clustering complete",
		"eps", eps, "min_samples", minSamples,
		"clusters", clusters, "silhouette", score)

	var existing []*types.Response
	for i, resp := range responses {
		if !successLabels[labels[i]] {
			continue // part of the dominant soft-404 cluster, or noise
		}
		if !resp.Exists() {
			continue
		}
		existing = append(existing, resp)
	}

	return &types.AnalysisResult{Report: report, Existing: existing}, nil
}

func describeLabels(labels []int, successLabels map[int]bool) map[string]*types.LabelDescription {
	counts := make(map[int]int)
	for _, l := range labels {
		counts[l]++
	}
	total := len(labels)

	out := make(map[string]*types.LabelDescription, len(counts))
	for label, count := range counts {
		key := fmt.Sprintf("%d", label)
		ratio := 0.0
		if total > 0 {
			ratio = float64(count) / float64(total)
		}
		out[key] = &types.LabelDescription{
			Count:   count,
			Ratio:   ratio,
			Success: successLabels[label],
		}
	}
	return out
}

// minoritySuccessLabels sorts labels ascending by count and greedily
// marks them success=true while their cumulative ratio stays at or
// below ratio, per identify404.py's minority-label budget: the
// smallest clusters are the candidate genuine finds, since the
// dominant cluster is ordinarily the shared soft-404 response shape.
// Noise (-1) is never marked success — it has no stable shape to call
// an existing asset.
func minoritySuccessLabels(labels []int, ratio float64) map[int]bool {
	counts := make(map[int]int)
	for _, l := range labels {
		counts[l]++
	}
	total := len(labels)

	type entry struct {
		label int
		count int
	}
	entries := make([]entry, 0, len(counts))
	for l, c := range counts {
		if l == -1 {
			continue
		}
		entries = append(entries, entry{l, c})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].count < entries[j].count })

	success := make(map[int]bool)
	cumulative := 0
	for _, e := range entries {
		newCumulative := cumulative + e.count
		if total > 0 && float64(newCumulative)/float64(total) > ratio {
			break
		}
		cumulative = newCumulative
		success[e.label] = true
	}
	return success
}

func dumpFeatures(w io.Writer, rows []types.FeatureRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(append([]string{"url", "content_type"}, FeatureNames()...)); err != nil {
		return err
	}
	for _, r := range rows {
		record := make([]string, 0, 2+len(r.Features))
		record = append(record, r.URL, r.ContentType)
		for _, f := range r.Features {
			record = append(record, fmt.Sprintf("%g", f))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}
