package metadata

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"cropchain/pkg/requestcontext"
)

// ClientMetadata resolves the caller address and a short user agent summary
// and stores both in the request context for audit events.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIPFromRequest(r)
		client := DescribeUserAgent(r.Header.Get("User-Agent"))
		ctx := requestcontext.WithClientMetadata(r.Context(), ip, client)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DescribeUserAgent renders e.g. "Firefox 121.0 (Linux x86_64)"; bots keep
// their name and an empty header yields "unknown".
func DescribeUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "unknown"
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if ua.Bot() {
		return name
	}
	desc := strings.TrimSpace(fmt.Sprintf("%s %s", name, version))
	if platform := ua.OS(); platform != "" {
		desc = fmt.Sprintf("%s (%s)", desc, platform)
	}
	if desc == "" {
		return "unknown"
	}
	return desc
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// first entry is the original client
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}

	return "unknown"
}
