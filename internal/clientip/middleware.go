// Package clientip extracts real client IPs in a platform-agnostic way
// (Fly.io, Cloudflare, nginx, bare TCP).
package clientip

import (
	"context"
	"net/http"
	"sort"
	"strings"
)

type contextKey struct{}

var clientIPKey = contextKey{}

// Info contains extracted client IP information
type Info struct {
	// Primary is the most trusted single IP (for logging, display)
	Primary string

	// RateLimitKey is a composite of every observed IP. Even when proxy
	// headers are spoofed, RemoteAddr anchors the key.
	RateLimitKey string
}

// trustedHeaders in priority order. The first header with a value supplies
// the primary IP; all of them feed the composite rate limit key.
//   - Fly-Client-IP: set by the Fly.io edge proxy
//   - CF-Connecting-IP: set by Cloudflare
//   - True-Client-IP: Akamai / Cloudflare Enterprise
//   - X-Real-IP: nginx reverse proxy
//   - X-Forwarded-For: first hop only, partially trusted
var trustedHeaders = []string{
	"Fly-Client-IP",
	"CF-Connecting-IP",
	"True-Client-IP",
	"X-Real-IP",
	"X-Forwarded-For",
}

// Middleware extracts client IPs, rewrites r.RemoteAddr to the most trusted
// one, and stores Info in the request context for the rate limiter and
// logging downstream.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := extract(r)

		r.RemoteAddr = info.Primary

		ctx := context.WithValue(r.Context(), clientIPKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext retrieves Info from context.
// Returns zero Info if not present.
func FromContext(ctx context.Context) Info {
	if info, ok := ctx.Value(clientIPKey).(Info); ok {
		return info
	}
	return Info{}
}

// FromRequest is a convenience wrapper around FromContext
func FromRequest(r *http.Request) Info {
	return FromContext(r.Context())
}

// extract pulls IPs from all known headers and computes Primary + RateLimitKey
func extract(r *http.Request) Info {
	allIPs := make(map[string]bool)

	// The TCP peer address is always part of the key
	remoteIP := extractIPFromAddr(r.RemoteAddr)
	if remoteIP != "" {
		allIPs[remoteIP] = true
	}

	var primary string
	for _, header := range trustedHeaders {
		value := r.Header.Get(header)
		if header == "X-Forwarded-For" {
			// Only the first hop is attributable to the client
			value, _, _ = strings.Cut(value, ",")
		}
		ip := strings.TrimSpace(value)
		if ip == "" {
			continue
		}
		allIPs[ip] = true
		if primary == "" {
			primary = ip
		}
	}
	if primary == "" {
		primary = remoteIP
	}

	// Sorted so the same set of IPs always yields the same key
	ipList := make([]string, 0, len(allIPs))
	for ip := range allIPs {
		ipList = append(ipList, ip)
	}
	sort.Strings(ipList)

	return Info{
		Primary:      primary,
		RateLimitKey: strings.Join(ipList, "|"),
	}
}

// extractIPFromAddr strips an optional port from an address.
// Handles "IP:port", "[IPv6]:port", "IP", and "IPv6".
func extractIPFromAddr(addr string) string {
	if addr == "" {
		return ""
	}

	if strings.HasPrefix(addr, "[") {
		if idx := strings.LastIndex(addr, "]:"); idx != -1 {
			return strings.Trim(addr[:idx+1], "[]")
		}
		return strings.Trim(addr, "[]")
	}

	// Bare IPv6 addresses have more than one colon and no port
	if strings.Count(addr, ":") == 1 {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
	}

	return addr
}
