package fuzzer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/sentryfuzz/sentryfuzz/internal/dictionary"
	"github.com/sentryfuzz/sentryfuzz/internal/httpclient"
	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFuzzerClassifiesMatchesAndNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin":
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, "<html>Admin Dashboard</html>")
		default:
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, "<html>Not Found: nothing here</html>")
		}
	}))
	defer srv.Close()

	target, _ := url.Parse(srv.URL)
	client, err := httpclient.New(httpclient.Options{Timeout: 5 * time.Second}, testLogger())
	if err != nil {
		t.Fatalf("httpclient.New: %v", err)
	}
	defer client.Close()

	dict := dictionary.NewFromLines([]string{"admin", "missing1", "missing2"}, dictionary.Options{})

	var mu sync.Mutex
	var matched, notFound []string
	cb := Callbacks{
		Match: func(r *types.Response) { mu.Lock(); matched = append(matched, r.Path); mu.Unlock() },
		NotFound: func(r *types.Response) {
			mu.Lock()
			notFound = append(notFound, r.Path)
			mu.Unlock()
		},
	}

	f := New(client, dict, target, Options{Threads: 2, Method: "GET"}, cb, testLogger())
	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !f.Wait(5 * time.Second) {
		t.Fatalf("fuzzer did not drain in time")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(matched) != 1 || matched[0] != "admin" {
		t.Fatalf("expected exactly [admin] matched, got %v", matched)
	}
	if len(notFound) != 2 {
		t.Fatalf("expected 2 not-found classifications, got %v", notFound)
	}
}

func TestInScopePathRejectsOutOfScope(t *testing.T) {
	target, _ := url.Parse("http://example.test")
	f := &Fuzzer{target: target, basePath: "api/"}
	if got := f.inScopePath("/api/users"); got != "users" {
		t.Fatalf("expected in-scope path 'users', got %q", got)
	}
	if got := f.inScopePath("http://other.test/api/users"); got != "" {
		t.Fatalf("expected cross-host link to be rejected, got %q", got)
	}
	if got := f.inScopePath("/other/users"); got != "" {
		t.Fatalf("expected out-of-prefix link to be rejected, got %q", got)
	}
}

func TestPauseGateBlocksUntilResumed(t *testing.T) {
	g := newPauseGate()
	g.Pause()

	done := make(chan struct{})
	go func() {
		g.Wait(nil)
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("Wait returned before Resume was called")
	case <-time.After(50 * time.Millisecond):
	}

	g.Resume()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Wait did not return after Resume")
	}
}
