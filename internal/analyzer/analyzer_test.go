package analyzer

import (
	"log/slog"
	"testing"
	"time"

	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

func mustResponse(status int, path string, body string) *types.Response {
	req := &types.Request{Path: path, CreatedAt: time.Now()}
	return &types.Response{
		StatusCode:  status,
		Body:        []byte(body),
		Request:     req,
		ContentType: "text/html",
		Path:        path,
		FullURL:     "http://example.test/" + path,
		FetchedAt:   time.Now(),
	}
}

func TestAnalyzeSeparatesSoft404Cluster(t *testing.T) {
	var responses []*types.Response
	soft404Body := "<html><body>Not Found: the page you requested does not exist</body></html>"
	// DBSCAN's default min_samples=5 needs a cluster of at least 5
	// similar points to avoid being labeled noise, so the minority
	// "existing" cluster below has 5 members; the dominant cluster is
	// padded out so that 5 stays within the 10% minority budget.
	for i := 0; i < 46; i++ {
		responses = append(responses, mustResponse(200, "random-path-1", soft404Body))
	}
	adminBody := "<html><body>Admin Dashboard Login Panel</body></html>"
	for i := 0; i < 5; i++ {
		responses = append(responses, mustResponse(200, "admin", adminBody))
	}

	a := New(DefaultOptions(), slog.Default())
	result, err := a.Analyze(responses)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Report.BestClusters == 0 {
		t.Fatalf("expected at least one cluster, got 0")
	}
	if len(result.Existing) == 0 {
		t.Fatalf("expected at least one surviving match, got none")
	}
	if len(result.Existing) >= len(responses) {
		t.Fatalf("expected the soft-404 majority to be filtered out, got all %d responses surviving", len(result.Existing))
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	a := New(DefaultOptions(), slog.Default())
	result, err := a.Analyze(nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(result.Existing) != 0 {
		t.Fatalf("expected no surviving matches for empty input")
	}
}

func TestSilhouetteSingleClusterIsOne(t *testing.T) {
	matrix := [][]float64{{0, 0}, {0.1, 0.1}, {0.2, 0}}
	labels := []int{0, 0, 0}
	if score := silhouetteScore(matrix, labels); score != 1 {
		t.Fatalf("expected single-cluster score of 1, got %v", score)
	}
}

func TestDBSCANFindsDenseGroupAndNoise(t *testing.T) {
	matrix := [][]float64{
		{0, 0}, {0.1, 0}, {0, 0.1}, // dense cluster
		{10, 10}, // noise
	}
	labels := dbscan(matrix, 0.5, 2)
	if labels[3] != -1 {
		t.Fatalf("expected the far point to be labeled noise, got %d", labels[3])
	}
	if labels[0] != labels[1] || labels[1] != labels[2] {
		t.Fatalf("expected the dense trio to share a cluster label, got %v", labels[:3])
	}
}

func TestMinoritySuccessLabelsRespectsBudget(t *testing.T) {
	labels := []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 1} // 90% cluster 0, 10% cluster 1
	success := minoritySuccessLabels(labels, 0.10)
	if success[0] {
		t.Fatalf("majority cluster should not be marked success")
	}
	if !success[1] {
		t.Fatalf("10%% cluster should be marked success under a 0.10 budget")
	}
}
