package http

import (
	"net/http"
	"strings"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(stripControl(s))
}

// stripControl removes control characters except tab, newline and carriage return.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get(HeaderHXRequest) == "true"
}

// navigate sends the client to route: an HX-Redirect for htmx requests,
// a 303 otherwise.
func navigate(w http.ResponseWriter, r *http.Request, route string) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect(route).Write(w)
		return
	}
	http.Redirect(w, r, route, http.StatusSeeOther)
}
