package types

// FeatureRow is a single feature vector fed into the Analyzer, plus the
// context columns used only for encoding and reporting (not clustering
// distance).
type FeatureRow struct {
	Features    []float64
	URL         string
	ContentType string
	StatusCode  int
}

// LabelDescription summarizes one cluster label for the ClusterReport.
type LabelDescription struct {
	Count   int     `json:"count"`
	Ratio   float64 `json:"ratio"`
	Success bool    `json:"success"`
}

// ClusterReport is the Analyzer's summary of a clustering run.
type ClusterReport struct {
	BestClusters     int                         `json:"bestClusters"`
	BestScore        float64                     `json:"bestScore"`
	BestK            int                         `json:"bestK"`
	LabelDescription map[string]*LabelDescription `json:"labelDescription"`
}

// AnalysisResult is the Analyzer's full output: the cluster report for
// logging, and the filtered list of responses judged to be existing
// assets.
type AnalysisResult struct {
	Report   *ClusterReport
	Existing []*Response
}
