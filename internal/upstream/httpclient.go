package upstream

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ClientConfig carries the timeout/keepalive/DNS-cache knobs from §5.
type ClientConfig struct {
	ConnectTimeout     time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	PoolAcquireTimeout time.Duration
	IdleKeepalive      time.Duration
	DNSCacheTTL        time.Duration
}

// NewHTTPClient builds the shared client C4 uses: per-host keepalive,
// connect/read/write/pool-acquire timeouts, an optional short-TTL DNS
// cache, and an unconditional localhost/NO_PROXY bypass ahead of the
// environment-driven proxy resolution.
//
// The DNS cache only short-circuits the lookup step. http.Transport still
// performs the TLS handshake with ServerName taken from the request's
// original host, so hostname verification holds regardless of which
// cached address was dialed.
func NewHTTPClient(cfg ClientConfig) *http.Client {
	dial := plainDialer(cfg.ConnectTimeout)
	if cfg.DNSCacheTTL > 0 {
		dial = cachedDialer(cfg.ConnectTimeout, cfg.DNSCacheTTL)
	}

	transport := &http.Transport{
		Proxy:                 bypassAwareProxy,
		DialContext:           dial,
		IdleConnTimeout:       cfg.IdleKeepalive,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		ExpectContinueTimeout: cfg.WriteTimeout,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.PoolAcquireTimeout + cfg.ConnectTimeout + cfg.ReadTimeout,
	}
}

func plainDialer(connectTimeout time.Duration) func(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: connectTimeout}
	return d.DialContext
}

// cachedDialer resolves the host portion of addr through a TTL-bounded
// cache before dialing, so repeat requests to the same upstream host skip
// a fresh DNS round trip.
func cachedDialer(connectTimeout, ttl time.Duration) func(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: connectTimeout}
	cache := &dnsCache{ttl: ttl, entries: map[string]dnsEntry{}}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return d.DialContext(ctx, network, addr)
		}
		if net.ParseIP(host) != nil {
			return d.DialContext(ctx, network, addr)
		}

		ip, err := cache.lookup(ctx, host)
		if err != nil {
			return d.DialContext(ctx, network, addr)
		}
		return d.DialContext(ctx, network, net.JoinHostPort(ip, port))
	}
}

type dnsEntry struct {
	ip      string
	expires time.Time
}

type dnsCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]dnsEntry
}

func (c *dnsCache) lookup(ctx context.Context, host string) (string, error) {
	c.mu.Lock()
	if e, ok := c.entries[host]; ok && time.Now().Before(e.expires) {
		c.mu.Unlock()
		return e.ip, nil
	}
	c.mu.Unlock()

	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil || len(addrs) == 0 {
		return "", err
	}

	c.mu.Lock()
	c.entries[host] = dnsEntry{ip: addrs[0], expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return addrs[0], nil
}

// bypassAwareProxy bypasses localhost and IPv6 loopback unconditionally,
// per §6, before falling back to http.ProxyFromEnvironment (which already
// honors NO_PROXY).
func bypassAwareProxy(req *http.Request) (*url.URL, error) {
	host := req.URL.Hostname()
	if host == "localhost" || host == "127.0.0.1" || host == "::1" || strings.HasPrefix(host, "127.") {
		return nil, nil
	}
	return http.ProxyFromEnvironment(req)
}
