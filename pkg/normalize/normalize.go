// Package normalize canonicalizes relay URLs so the same relay never
// appears under two spellings.
package normalize

import (
	"net/url"
	"strings"
)

// URL normalizes the url and replaces http://, https:// schemes by
// ws://, wss://. Returns "" when the input cannot be parsed.
func URL(u string) string {
	if u == "" {
		return ""
	}
	u = strings.TrimSpace(u)
	u = strings.ToLower(u)
	// a bare host is assumed to mean secure websocket
	if !(strings.HasPrefix(u, "http://") ||
		strings.HasPrefix(u, "https://") ||
		strings.HasPrefix(u, "ws://") ||
		strings.HasPrefix(u, "wss://")) {
		u = "wss://" + u
	}
	p, err := url.Parse(u)
	if err != nil {
		return ""
	}
	switch p.Scheme {
	case "https":
		p.Scheme = "wss"
	case "http":
		p.Scheme = "ws"
	}
	p.Path = strings.TrimRight(p.Path, "/")
	return p.String()
}
