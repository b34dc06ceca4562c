package controller

import (
	"testing"

	"github.com/sentryfuzz/sentryfuzz/internal/config"
	"github.com/sentryfuzz/sentryfuzz/internal/dictionary"
	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

func resp(status int, path string, body string) *types.Response {
	return &types.Response{StatusCode: status, Path: path, Body: []byte(body)}
}

func TestFilterExcludeStatusCodes(t *testing.T) {
	f, err := NewFilter(config.FilterConfig{ExcludeStatusCodes: []int{404}}, nil)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if f.Accept(resp(404, "admin", "")) {
		t.Fatalf("expected 404 to be rejected")
	}
	if !f.Accept(resp(200, "admin", "")) {
		t.Fatalf("expected 200 to be accepted")
	}
}

func TestFilterIncludeStatusCodes(t *testing.T) {
	f, err := NewFilter(config.FilterConfig{IncludeStatusCodes: []int{200, 301}}, nil)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if f.Accept(resp(403, "admin", "")) {
		t.Fatalf("expected 403 to be rejected when not in include list")
	}
	if !f.Accept(resp(301, "admin", "")) {
		t.Fatalf("expected 301 to be accepted")
	}
}

func TestFilterBlacklist(t *testing.T) {
	bl := dictionary.Blacklist{403: {".cgi"}}
	f, err := NewFilter(config.FilterConfig{}, bl)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if f.Accept(resp(403, "test.cgi", "")) {
		t.Fatalf("expected blacklisted suffix to be rejected")
	}
	if !f.Accept(resp(403, "test.php", "")) {
		t.Fatalf("expected non-blacklisted suffix to be accepted")
	}
}

func TestFilterMinMaxResponseSize(t *testing.T) {
	f, err := NewFilter(config.FilterConfig{MinResponseSize: 5, MaxResponseSize: 10}, nil)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if f.Accept(resp(200, "a", "ab")) {
		t.Fatalf("expected too-small body to be rejected")
	}
	if f.Accept(resp(200, "a", "01234567890123")) {
		t.Fatalf("expected too-large body to be rejected")
	}
	if !f.Accept(resp(200, "a", "1234567")) {
		t.Fatalf("expected in-range body to be accepted")
	}
}

func TestFilterExcludeTexts(t *testing.T) {
	f, err := NewFilter(config.FilterConfig{ExcludeTexts: []string{"Page Not Found"}}, nil)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if f.Accept(resp(200, "a", "<html>Page Not Found</html>")) {
		t.Fatalf("expected matching exclude text to be rejected")
	}
}

func TestFilterExcludeRegex(t *testing.T) {
	f, err := NewFilter(config.FilterConfig{ExcludeRegex: `(?i)not\s+found`}, nil)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if f.Accept(resp(200, "a", "Sorry, Not    Found")) {
		t.Fatalf("expected regex match body to be rejected")
	}
}
