package ratelimit

import (
	"net/http"
	"strings"
)

// UnknownClient is the identifier used when no address header is present.
// All such requests share one quota.
const UnknownClient = "unknown"

// ClientIdentifier picks the client address from proxy headers. Any of them
// can be forged by a direct client; the result is only good enough to slow
// down casual abuse.
func ClientIdentifier(h http.Header) string {
	if xff := strings.TrimSpace(h.Get("X-Forwarded-For")); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(h.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(h.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	return UnknownClient
}
