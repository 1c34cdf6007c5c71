// Package security sets response hardening headers and flags suspicious requests.
package security

import (
	"fmt"
	"net/http"
	"strings"
)

// HeadersConfig lists the hardening headers sent with every response.
// Empty values are not sent.
type HeadersConfig struct {
	CSP map[string][]string

	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginResource string
}

// DefaultHeadersConfig allows htmx from unpkg and receipt images from any
// https host, since receipts live in external object storage.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: map[string][]string{
			"default-src":     {"'self'"},
			"script-src":      {"'self'", "https://unpkg.com"},
			"style-src":       {"'self'", "'unsafe-inline'"},
			"img-src":         {"'self'", "https:", "data:"},
			"connect-src":     {"'self'"},
			"object-src":      {"'none'"},
			"frame-ancestors": {"'none'"},
			"base-uri":        {"'self'"},
			"form-action":     {"'self'"},
		},
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:     "same-origin",
		CrossOriginResource:   "same-origin",
	}
}

// cspDirectiveOrder keeps the rendered policy stable.
var cspDirectiveOrder = []string{
	"default-src", "script-src", "style-src", "img-src", "connect-src",
	"font-src", "media-src", "object-src", "frame-ancestors", "base-uri", "form-action",
}

// Policy renders the CSP map into a header value.
func (c HeadersConfig) Policy() string {
	parts := make([]string, 0, len(c.CSP))
	for _, d := range cspDirectiveOrder {
		if src, ok := c.CSP[d]; ok && len(src) > 0 {
			parts = append(parts, d+" "+strings.Join(src, " "))
		}
	}
	return strings.Join(parts, "; ")
}

type HeadersMiddleware struct {
	config HeadersConfig
	policy string
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{config: config, policy: config.Policy()}
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.apply(w.Header(), r.TLS != nil)
		next.ServeHTTP(w, r)
	})
}

func (h *HeadersMiddleware) apply(headers http.Header, tls bool) {
	set := func(k, v string) {
		if v != "" {
			headers.Set(k, v)
		}
	}
	set("Content-Security-Policy", h.policy)
	set("X-Content-Type-Options", h.config.XContentTypeOptions)
	set("X-Frame-Options", h.config.XFrameOptions)
	set("Referrer-Policy", h.config.ReferrerPolicy)
	set("Permissions-Policy", h.config.PermissionsPolicy)
	set("Cross-Origin-Opener-Policy", h.config.CrossOriginOpener)
	set("Cross-Origin-Resource-Policy", h.config.CrossOriginResource)

	if tls && h.config.HSTSMaxAge > 0 {
		v := fmt.Sprintf("max-age=%d", h.config.HSTSMaxAge)
		if h.config.HSTSIncludeSubdomains {
			v += "; includeSubDomains"
		}
		headers.Set("Strict-Transport-Security", v)
	}
}

// NoStore marks responses as uncacheable. Bill lists and receipts go through it
// so each navigation fetches fresh data.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware adds long-lived caching headers for embedded assets.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
