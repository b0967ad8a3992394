package http

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// trustedProxies may set X-Forwarded-For and X-Real-IP.
var trustedProxies = []*net.IPNet{
	mustParseCIDR("127.0.0.0/8"),
	mustParseCIDR("::1/128"),
	mustParseCIDR("10.0.0.0/8"),
	mustParseCIDR("172.16.0.0/12"),
	mustParseCIDR("192.168.0.0/16"),
}

func mustParseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

func isTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP returns the peer address, or the first forwarded
// address when the peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	peer := net.ParseIP(directIP)
	if peer == nil || !isTrustedProxy(peer) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

var (
	probePatterns = []string{
		"../", "..\\", ".env", ".git", "wp-admin", "phpmyadmin",
		"etc/passwd", "union select", "<script",
	}
	scannerAgents = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb"}
)

// detectSuspiciousRequest flags paths, queries and user agents that look
// like automated probing. Flagged requests are still served.
func detectSuspiciousRequest(r *http.Request) bool {
	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	if containsAny(target, probePatterns) {
		return true
	}
	if containsAny(strings.ToLower(r.UserAgent()), scannerAgents) {
		return true
	}
	return len(r.URL.String()) > 2048
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
