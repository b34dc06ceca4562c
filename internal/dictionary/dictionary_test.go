package dictionary

import "testing"

func TestGenerateExtensionPlaceholder(t *testing.T) {
	d := NewFromLines([]string{"admin", "index.%EXT%", "api/"}, Options{
		Extensions: []string{"php", "html"},
	})
	got := d.Entries()
	want := []string{"admin", "index.php", "index.html", "api/"}
	assertEntries(t, got, want)
}

func TestGenerateForceExtensions(t *testing.T) {
	d := NewFromLines([]string{"test"}, Options{
		Extensions:      []string{"php"},
		ForceExtensions: true,
	})
	got := d.Entries()
	want := []string{"test", "test/", "test.php"}
	assertEntries(t, got, want)
}

func TestGenerateOverwriteExtensions(t *testing.T) {
	d := NewFromLines([]string{"a.bak"}, Options{
		Extensions:          []string{"php", "html"},
		OverwriteExtensions: true,
	})
	got := d.Entries()
	want := []string{"a.bak", "a.php", "a.html"}
	assertEntries(t, got, want)
}

func TestGenerateForceExtensionsSkipsTrailingSlash(t *testing.T) {
	d := NewFromLines([]string{"api/"}, Options{
		Extensions:      []string{"php"},
		ForceExtensions: true,
	})
	got := d.Entries()
	want := []string{"api/"}
	assertEntries(t, got, want)
}

func TestGenerateDeduplicatesExactMatches(t *testing.T) {
	d := NewFromLines([]string{"admin", "admin", "admin"}, Options{})
	if d.Len() != 1 {
		t.Fatalf("expected 1 deduplicated entry, got %d", d.Len())
	}
}

func TestNextIsSerializableAcrossCursor(t *testing.T) {
	d := NewFromLines([]string{"a", "b", "c"}, Options{})

	var out []string
	for {
		e, ok := d.Next()
		if !ok {
			break
		}
		out = append(out, e)
	}
	assertEntries(t, out, []string{"a", "b", "c"})

	if _, ok := d.Next(); ok {
		t.Fatal("expected exhausted dictionary to keep returning false")
	}

	d.Reset()
	var again []string
	for {
		e, ok := d.Next()
		if !ok {
			break
		}
		again = append(again, e)
	}
	assertEntries(t, again, []string{"a", "b", "c"})
}

func TestEmptyAndCommentLinesSkipped(t *testing.T) {
	d := NewFromLines([]string{"", "# comment", "admin"}, Options{})
	assertEntries(t, d.Entries(), []string{"admin"})
}

func assertEntries(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
