package middleware

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// PageOrigin describes the page a request was submitted from, in the terms a
// browser uses for window.location: Protocol includes the trailing colon.
type PageOrigin struct {
	Protocol string
	Hostname string
}

// IsSecure reports whether the page may prompt for push notifications:
// served over HTTPS or from localhost.
func (o PageOrigin) IsSecure() bool {
	return o.Protocol == "https:" || o.Hostname == "localhost"
}

type ctxPageOriginKey struct{}

// Origin returns middleware that records the submitting page's origin.
// The Origin header wins, then Referer, then the request's own scheme and host.
func Origin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxPageOriginKey{}, resolvePageOrigin(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PageOriginFromContext returns the origin recorded by Origin, if any.
func PageOriginFromContext(ctx context.Context) (PageOrigin, bool) {
	if ctx == nil {
		return PageOrigin{}, false
	}
	o, ok := ctx.Value(ctxPageOriginKey{}).(PageOrigin)
	return o, ok
}

func resolvePageOrigin(r *http.Request) PageOrigin {
	for _, raw := range []string{r.Header.Get("Origin"), r.Header.Get("Referer")} {
		if o, ok := parseOrigin(raw); ok {
			return o
		}
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	// Only meaningful behind a trusted proxy, same as chi's RealIP.
	if proto := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))); proto == "https" || proto == "http" {
		scheme = proto
	}
	return PageOrigin{Protocol: scheme + ":", Hostname: hostname(r.Host)}
}

func parseOrigin(raw string) (PageOrigin, bool) {
	if raw == "" || raw == "null" {
		return PageOrigin{}, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return PageOrigin{}, false
	}
	return PageOrigin{Protocol: strings.ToLower(u.Scheme) + ":", Hostname: strings.ToLower(u.Hostname())}, true
}

func hostname(hostport string) string {
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.ToLower(strings.Trim(h, "[]"))
	}
	return strings.ToLower(strings.Trim(hostport, "[]"))
}
