package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "10.0.0.1:54321",
			want:       "10.0.0.1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "10.0.0.1",
			want:       "10.0.0.1",
		},
		{
			name:       "single forwarded value",
			remoteAddr: "172.16.0.1:1111",
			forwarded:  "203.0.113.7",
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded chain takes first hop",
			remoteAddr: "172.16.0.1:1111",
			forwarded:  "203.0.113.7, 198.51.100.2, 172.16.0.1",
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded value is trimmed",
			remoteAddr: "172.16.0.1:1111",
			forwarded:  "  203.0.113.7 , 198.51.100.2",
			want:       "203.0.113.7",
		},
		{
			name:       "empty forwarded falls back to remote addr",
			remoteAddr: "10.0.0.1:54321",
			forwarded:  "",
			want:       "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
