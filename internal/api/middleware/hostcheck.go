package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// HostCheck rejects requests with non-loopback Host headers. The console
// API carries the session token's power, so it is never exposed beyond the
// loopback interface.
func HostCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.Host)
		if err != nil {
			// No port. Bracketed IPv6 literals still carry brackets here.
			host = strings.Trim(r.Host, "[]")
		}

		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			slog.Warn("rejected non-localhost request",
				"host", r.Host,
				"remoteAddr", r.RemoteAddr,
			)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
