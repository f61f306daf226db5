package socket

import (
	"net/http"
	"strings"
)

// OriginChecker restricts which browser origins may open a socket
type OriginChecker struct {
	allowedOrigins map[string]bool
	allowAll       bool
}

// NewOriginChecker allows the listed origins; "*" or an empty list allows any
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{
		allowedOrigins: make(map[string]bool),
		allowAll:       len(origins) == 0,
	}

	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			return oc
		}
		oc.allowedOrigins[strings.ToLower(origin)] = true
	}

	return oc
}

// Check reports whether r's origin is allowed
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients send no origin
		return true
	}

	return oc.allowedOrigins[strings.ToLower(origin)]
}
