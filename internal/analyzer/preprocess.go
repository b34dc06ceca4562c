package analyzer

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

// statusBuckets are the one-hot status-class columns appended to every
// preprocessed row, mirroring identify404.py's pandas.get_dummies over
// the status_code column restricted to the classes actually observed.
func statusBuckets(rows []types.FeatureRow) []int {
	seen := make(map[int]struct{})
	for _, r := range rows {
		seen[r.StatusCode] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// contentTypeBuckets are the one-hot content-type columns, restricted
// to the distinct content types actually observed in this run.
func contentTypeBuckets(rows []types.FeatureRow) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[r.ContentType] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Preprocess turns raw per-character counts into density ratios (count
// / standard_body_length), z-scores body_len_change (body_length minus
// standard_body_length) and standard_body_length each across the
// dataset, and appends one-hot status/content-type columns — the
// feature matrix DBSCAN actually clusters on. NaN produced by a
// zero-length body is replaced with 0, matching the source's
// fillna(0).
func Preprocess(rows []types.FeatureRow) [][]float64 {
	if len(rows) == 0 {
		return nil
	}

	standardLens := make([]float64, len(rows))
	bodyLenChanges := make([]float64, len(rows))
	for i, r := range rows {
		standardLens[i] = r.Features[2]
		bodyLenChanges[i] = r.Features[1] - r.Features[2]
	}
	standardMean, _ := stats.Mean(standardLens)
	standardStddev, _ := stats.StandardDeviationPopulation(standardLens)
	changeMean, _ := stats.Mean(bodyLenChanges)
	changeStddev, _ := stats.StandardDeviationPopulation(bodyLenChanges)

	statuses := statusBuckets(rows)
	ctypes := contentTypeBuckets(rows)

	matrix := make([][]float64, len(rows))
	for i, r := range rows {
		standardLen := r.Features[2]

		row := make([]float64, 0, 2+len(r.Features)-charCountOffset+len(statuses)+len(ctypes))

		row = append(row, zscore(bodyLenChanges[i], changeMean, changeStddev))
		row = append(row, zscore(standardLen, standardMean, standardStddev))

		for _, charCount := range r.Features[charCountOffset:] {
			row = append(row, density(charCount, standardLen))
		}

		for _, s := range statuses {
			if r.StatusCode == s {
				row = append(row, 1)
			} else {
				row = append(row, 0)
			}
		}

		for _, ct := range ctypes {
			if r.ContentType == ct {
				row = append(row, 1)
			} else {
				row = append(row, 0)
			}
		}

		matrix[i] = row
	}

	return matrix
}

// charCountOffset is where the per-character density counts begin
// within a FeatureRow.Features slice (after status_code, body_length,
// standard_body_length).
const charCountOffset = 3

func density(count, total float64) float64 {
	if total == 0 {
		return 0
	}
	return count / total
}

func zscore(value, mean, stddev float64) float64 {
	if stddev == 0 {
		return 0
	}
	z := (value - mean) / stddev
	if z != z { // NaN guard
		return 0
	}
	return z
}
