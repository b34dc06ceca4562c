package controller

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/sentryfuzz/sentryfuzz/internal/types"
)

// ResolvedTarget is a fully normalized scan target.
type ResolvedTarget struct {
	URL        *url.URL
	Credential string // "user:pass", embedded in the authority if present
}

// ResolveTarget fills in a missing scheme (from schemeOpt, or by
// TLS-probing the port when schemeOpt is "UNKNOWN"), enforces a
// trailing slash on the path, rejects anything other than
// http/https, and splits off embedded basic-auth credentials from
// the authority.
func ResolveTarget(rawURL, schemeOpt string) (*ResolvedTarget, error) {
	candidate := rawURL
	if !strings.Contains(candidate, "://") {
		candidate = "UNKNOWN://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return nil, &types.InvalidURLError{URL: rawURL, Err: err}
	}
	if u.Host == "" {
		return nil, &types.InvalidURLError{URL: rawURL, Err: fmt.Errorf("no host")}
	}

	var credential string
	if u.User != nil {
		user := u.User.Username()
		pass, _ := u.User.Password()
		credential = user + ":" + pass
		u.User = nil
	}

	switch u.Scheme {
	case "http", "https":
		// explicit, keep as-is
	case "unknown", "": // url.Parse lowercases the "UNKNOWN" placeholder
		scheme := schemeOpt
		if scheme == "" || scheme == "UNKNOWN" {
			scheme = probeScheme(u.Host)
		}
		u.Scheme = scheme
	default:
		return nil, &types.InvalidURLError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}

	if u.Path == "" {
		u.Path = "/"
	} else if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	return &ResolvedTarget{URL: u, Credential: credential}, nil
}

// probeScheme dials host with a short TLS handshake timeout; a
// successful handshake means https, anything else falls back to http.
// Mirrors dirsearch's scheme auto-detection via a raw connect probe.
func probeScheme(host string) string {
	if !strings.Contains(host, ":") {
		host = host + ":443"
	}
	d := &net.Dialer{Timeout: 3 * time.Second}
	conn, err := tls.DialWithDialer(d, "tcp", host, &tls.Config{InsecureSkipVerify: true})
	if err != nil {
		return "http"
	}
	conn.Close()
	return "https"
}
