package httpclient

import (
	"log/slog"
	"math/rand"
	"net/url"
	"strings"
	"sync"
)

// ProxyManager rotates over a configured proxy list and evicts a proxy
// outright once it errors, provided more than one remains, mirroring
// dirsearch's
// "if proxy in self.proxy and len(self.proxy) > 1: self.proxy.remove(proxy)".
type ProxyManager struct {
	mu       sync.Mutex
	proxies  []string
	rotation string // round_robin | random
	index    int
	logger   *slog.Logger
}

// NewProxyManager builds a ProxyManager. Proxies without a scheme are
// defaulted to http://, matching Requester.set_proxy.
func NewProxyManager(rawProxies []string, rotation string, logger *slog.Logger) *ProxyManager {
	proxies := make([]string, 0, len(rawProxies))
	for _, p := range rawProxies {
		proxies = append(proxies, normalizeProxyScheme(p))
	}
	return &ProxyManager{
		proxies:  proxies,
		rotation: rotation,
		logger:   logger.With("component", "proxy_manager"),
	}
}

func normalizeProxyScheme(proxy string) string {
	for _, scheme := range []string{"http://", "https://", "socks4://", "socks5://"} {
		if strings.HasPrefix(proxy, scheme) {
			return proxy
		}
	}
	return "http://" + proxy
}

// Next returns a proxy URL string per the configured rotation
// strategy, or "" if none are configured.
func (pm *ProxyManager) Next() string {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if len(pm.proxies) == 0 {
		return ""
	}
	switch pm.rotation {
	case "random":
		return pm.proxies[rand.Intn(len(pm.proxies))]
	default:
		idx := pm.index % len(pm.proxies)
		pm.index++
		return pm.proxies[idx]
	}
}

// Remove evicts proxy from the pool, but only when more than one
// remains — a single remaining proxy is kept even after failure so the
// scan can still proceed.
func (pm *ProxyManager) Remove(proxy string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if len(pm.proxies) <= 1 {
		return
	}
	for i, p := range pm.proxies {
		if p == proxy {
			pm.proxies = append(pm.proxies[:i], pm.proxies[i+1:]...)
			pm.logger.Warn("evicted failing proxy", "proxy", proxy, "remaining", len(pm.proxies))
			return
		}
	}
}

// Count returns the number of proxies still in rotation.
func (pm *ProxyManager) Count() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.proxies)
}

// WithCredentials splices credential ("user:pass") into the proxy's
// authority if not already present, mirroring set_proxy_auth/set_proxy's
// "://" splice in the Python original.
func WithCredentials(proxy, credential string) string {
	if credential == "" || strings.Contains(proxy, "@") {
		return proxy
	}
	return strings.Replace(proxy, "://", "://"+credential+"@", 1)
}

// ParseProxyURL is a thin wrapper kept for callers that need a
// *url.URL (e.g. http.Transport.Proxy funcs in tests).
func ParseProxyURL(proxy string) (*url.URL, error) {
	return url.Parse(proxy)
}
