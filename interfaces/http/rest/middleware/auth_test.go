package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		target string
		want   string
	}{
		{
			name:   "bearer header",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc") },
			target: "/",
			want:   "abc",
		},
		{
			name:   "lowercase scheme",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "bearer abc") },
			target: "/",
			want:   "abc",
		},
		{
			name:   "non bearer header wins and yields nothing",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Basic Zm9vOmJhcg==") },
			target: "/?token=query",
			want:   "",
		},
		{
			name:   "cookie",
			setup:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "cookie"}) },
			target: "/?token=query",
			want:   "cookie",
		},
		{
			name:   "query parameter",
			setup:  func(r *http.Request) {},
			target: "/?token=query",
			want:   "query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			tt.setup(r)
			assert.Equal(t, tt.want, extractToken(r))
		})
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	assert.Equal(t, "203.0.113.7", clientIP(r))

	r.RemoteAddr = "203.0.113.7"
	assert.Equal(t, "203.0.113.7", clientIP(r))
}
