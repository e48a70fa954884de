// Package security implements a pure URL-safety validator used before a
// host opens a URL on the server's behalf (elicitation URL mode).
package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Config controls which categories of host are permitted.
type Config struct {
	AllowHTTP        bool
	AllowLocalhost   bool
	AllowPrivateIPs  bool
	AllowIPAddresses bool

	AllowedHosts []string
	BlockedHosts []string

	MaxURLLength      int
	MaxSubdomainDepth int
}

// defaulted applies conservative defaults: HTTPS-only, localhost,
// private ranges, and raw IP hosts all blocked unless opted in.
func (c Config) defaulted() Config {
	if c.MaxURLLength <= 0 {
		c.MaxURLLength = 2048
	}
	if c.MaxSubdomainDepth <= 0 {
		c.MaxSubdomainDepth = 5
	}
	return c
}

// Result reports the outcome of validating a single URL.
type Result struct {
	Valid         bool
	Safe          bool
	DisplayDomain string
	Normalized    string
	Warning       string
	Error         string
}

// Validate checks rawURL against cfg and returns a Result. It never panics
// and never performs network I/O: it is a pure function of its inputs, so
// callers must re-validate immediately before use (see DNS rebinding /
// TOCTOU note below).
//
// Limitations: this only inspects the hostname at validation time. A
// malicious DNS server could resolve a public hostname at validation time
// and rebind to a private address by the time the URL is actually fetched.
// Callers handling sensitive endpoints should pin certificates or validate
// the resolved IP in the HTTP client layer.
func Validate(rawURL string, cfg Config) Result {
	cfg = cfg.defaulted()

	var warnings []string
	res := Result{}

	if len(rawURL) > cfg.MaxURLLength {
		warnings = append(warnings, fmt.Sprintf("URL length %d exceeds recommended maximum %d", len(rawURL), cfg.MaxURLLength))
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		res.Error = "URL is not well-formed"
		return res
	}
	res.Valid = true

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		res.Error = fmt.Sprintf("scheme %q is not permitted, only http(s) is allowed", u.Scheme)
		return res
	}
	if scheme == "http" {
		if !cfg.AllowHTTP {
			res.Error = "plain http is not permitted, use https"
			return res
		}
		warnings = append(warnings, "connection is not encrypted (http)")
	}

	if u.User != nil {
		res.Error = "URL must not carry embedded credentials"
		return res
	}

	host := u.Hostname()
	if host == "" {
		res.Error = "URL has no host"
		return res
	}
	lowerHost := strings.ToLower(host)
	ip := net.ParseIP(host)
	isIP := ip != nil

	// The categories are mutually exclusive: a loopback/private/link-local
	// host is gated by its own permission flag only, never additionally by
	// AllowIPAddresses.
	switch {
	case isLocalhost(lowerHost):
		if !cfg.AllowLocalhost {
			res.Error = "localhost/loopback hosts are not permitted"
			return res
		}
		warnings = append(warnings, "host is localhost/loopback")
	case isIP && isPrivateIP(ip):
		if !cfg.AllowPrivateIPs {
			res.Error = "private network addresses are not permitted"
			return res
		}
		warnings = append(warnings, "host resolves to a private network address")
	case isIP && isLinkLocalIP(ip):
		if !cfg.AllowPrivateIPs {
			res.Error = "link-local addresses are not permitted"
			return res
		}
		warnings = append(warnings, "host is a link-local address (possible cloud metadata endpoint)")
	case isIP:
		if !cfg.AllowIPAddresses {
			res.Error = "raw IP address hosts are not permitted"
			return res
		}
		warnings = append(warnings, "host is a raw IP address rather than a domain name")
	}

	if len(cfg.AllowedHosts) > 0 && !hostMatchesList(lowerHost, cfg.AllowedHosts) {
		res.Error = "host is not on the allow-list"
		return res
	}
	if hostMatchesList(lowerHost, cfg.BlockedHosts) {
		res.Error = "host is on the block-list"
		return res
	}

	if port := u.Port(); port != "" && port != "80" && port != "443" {
		warnings = append(warnings, fmt.Sprintf("non-standard port %s", port))
	}

	if !isIP {
		if depth := subdomainDepth(lowerHost); depth > cfg.MaxSubdomainDepth {
			warnings = append(warnings, fmt.Sprintf("host has %d subdomain levels, exceeding recommended maximum %d", depth, cfg.MaxSubdomainDepth))
		}
	}

	res.Safe = true
	res.DisplayDomain = lowerHost
	res.Normalized = u.String()
	if len(warnings) > 0 {
		res.Warning = strings.Join(warnings, "; ")
	}
	return res
}

func isLocalhost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

// isPrivateIP reports RFC 1918 IPv4 ranges and IPv6 unique-local (fc00::/7).
func isPrivateIP(ip net.IP) bool {
	if v4 := ip.To4(); v4 != nil {
		return v4[0] == 10 ||
			(v4[0] == 172 && v4[1]&0xf0 == 16) ||
			(v4[0] == 192 && v4[1] == 168)
	}
	return ip.To16() != nil && ip.To4() == nil && ip[0]&0xfe == 0xfc
}

// isLinkLocalIP reports IPv4 link-local (169.254/16, including the cloud
// metadata endpoint 169.254.169.254) and IPv6 link-local (fe80::/10).
func isLinkLocalIP(ip net.IP) bool {
	return ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}

// subdomainDepth counts labels below the registrable domain (eTLD+1).
// Falls back to a simple label count when the host has no recognized
// public suffix.
func subdomainDepth(host string) int {
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil || etld1 == "" || etld1 == host {
		labels := strings.Split(host, ".")
		if len(labels) == 0 {
			return 0
		}
		return len(labels) - 1
	}
	remainder := strings.TrimSuffix(host, etld1)
	remainder = strings.TrimSuffix(remainder, ".")
	if remainder == "" {
		return 0
	}
	return len(strings.Split(remainder, "."))
}

func hostMatchesList(host string, list []string) bool {
	for _, candidate := range list {
		if strings.EqualFold(host, candidate) {
			return true
		}
	}
	return false
}
