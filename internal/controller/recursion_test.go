package controller

import "testing"

func TestDirectoryQueueDedup(t *testing.T) {
	q := newDirectoryQueue()
	if !q.Push("admin/") {
		t.Fatalf("expected first push to succeed")
	}
	if q.Push("admin/") {
		t.Fatalf("expected duplicate push to be rejected")
	}
	if q.Len() != 1 {
		t.Fatalf("expected queue length 1, got %d", q.Len())
	}
}

func TestDirectoryQueueFIFO(t *testing.T) {
	q := newDirectoryQueue()
	q.Push("a/")
	q.Push("b/")
	d, ok := q.Pop()
	if !ok || d.Path != "a/" {
		t.Fatalf("expected FIFO order, got %+v ok=%v", d, ok)
	}
}

func TestRecursionTargetsDeepRecursive(t *testing.T) {
	targets := recursionTargets("a/b/c/", true, false, 0, 0)
	want := []string{"a/", "a/b/", "a/b/c/"}
	if len(targets) != len(want) {
		t.Fatalf("got %v, want %v", targets, want)
	}
	for i := range want {
		if targets[i] != want[i] {
			t.Fatalf("got %v, want %v", targets, want)
		}
	}
}

func TestRecursionTargetsRecursiveRequiresTrailingSlashAndNoExtension(t *testing.T) {
	if got := recursionTargets("admin/", false, true, 0, 0); len(got) != 1 || got[0] != "admin/" {
		t.Fatalf("expected admin/ to recurse, got %v", got)
	}
	if got := recursionTargets("admin.php", false, true, 0, 0); len(got) != 0 {
		t.Fatalf("expected no recursion for a file-like path, got %v", got)
	}
	if got := recursionTargets("admin", false, true, 0, 0); len(got) != 0 {
		t.Fatalf("expected no recursion for a path without trailing slash, got %v", got)
	}
}

func TestRecursionTargetsDepthCap(t *testing.T) {
	got := recursionTargets("a/b/c/", true, false, 2, 0)
	if len(got) != 2 {
		t.Fatalf("expected depth cap of 2 to stop at 2 entries, got %v", got)
	}
}

func TestRecursionTargetsDepthRelativeToBasePath(t *testing.T) {
	// base path "app/" has depth 1; a cap of 2 should allow descending
	// two levels past it (relative depths 0, 1, 2), i.e. up to
	// absolute depth 3.
	got := recursionTargets("app/a/b/c/", true, false, 2, 1)
	want := []string{"app/", "app/a/", "app/a/b/"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRedirectDescent(t *testing.T) {
	target, ok := redirectDescent("admin", "admin/", 0, 0)
	if !ok || target != "admin/" {
		t.Fatalf("expected redirect descent into admin/, got %q ok=%v", target, ok)
	}
	if _, ok := redirectDescent("admin", "other/", 0, 0); ok {
		t.Fatalf("expected no descent for unrelated redirect target")
	}
}

func TestRedirectDescentRespectsDepthCap(t *testing.T) {
	if _, ok := redirectDescent("app/a/b", "app/a/b/", 1, 1); ok {
		t.Fatalf("expected redirect descent past the depth cap to be rejected")
	}
	if _, ok := redirectDescent("app/a", "app/a/", 1, 1); !ok {
		t.Fatalf("expected redirect descent within the depth cap to be accepted")
	}
}
