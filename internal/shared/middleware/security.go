package middleware

import (
	"net"
	"net/http"
	"strings"
)

const hstsPolicy = "max-age=31536000; includeSubDomains"

// HSTS pins browsers to HTTPS for a year. Only mounted when TLS is enabled.
func HSTS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", hstsPolicy)
		next.ServeHTTP(w, r)
	})
}

// SecureCookies hardens every Set-Cookie header just before the status line
// is written. Cookies leave with Secure and HttpOnly set, and with
// SameSite=Strict unless the handler chose a mode.
func SecureCookies(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&cookieHardener{ResponseWriter: w}, r)
	})
}

type cookieHardener struct {
	http.ResponseWriter
	flushed bool
}

func (w *cookieHardener) WriteHeader(status int) {
	if !w.flushed {
		w.flushed = true
		h := w.Header()
		if raw := h.Values("Set-Cookie"); len(raw) > 0 {
			hardened := make([]string, len(raw))
			for i, c := range raw {
				hardened[i] = hardenCookie(c)
			}
			h["Set-Cookie"] = hardened
		}
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *cookieHardener) Write(b []byte) (int, error) {
	if !w.flushed {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// hardenCookie leaves headers it cannot parse untouched.
func hardenCookie(raw string) string {
	c, err := http.ParseSetCookie(raw)
	if err != nil {
		return raw
	}
	c.Secure = true
	c.HttpOnly = true
	if c.SameSite == http.SameSiteDefaultMode {
		c.SameSite = http.SameSiteStrictMode
	}
	return c.String()
}

// IsHostAllowed reports whether host (optionally with a port) matches the
// allow list. Entries without a port match any port. An empty list allows
// everything.
func IsHostAllowed(host string, allowedHosts []string) bool {
	if len(allowedHosts) == 0 {
		return true
	}

	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return false
	}
	name := stripPort(host)

	for _, allowed := range allowedHosts {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if host == allowed || name == stripPort(allowed) {
			return true
		}
	}
	return false
}

// stripPort also removes IPv6 brackets.
func stripPort(h string) string {
	if name, _, err := net.SplitHostPort(h); err == nil {
		return name
	}
	return strings.Trim(h, "[]")
}
