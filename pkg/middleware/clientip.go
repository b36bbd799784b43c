package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP identifies the caller for rate limiting. Behind the reverse
// proxy the first X-Forwarded-For entry is the original client; without the
// header the peer address is used, port stripped.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.Split(forwarded, ",")[0]
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
