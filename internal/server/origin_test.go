package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func requestWithOrigin(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

// TestOriginPolicy verifies origin matching against the normalized allow-list.
func TestOriginPolicy(t *testing.T) {
	policy := newOriginPolicy([]string{"HTTP://LocalHost:8080", "not a url", " "}, testLogger())

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"exact match", "http://localhost:8080", true},
		{"case insensitive", "http://LOCALHOST:8080", true},
		{"path ignored", "http://localhost:8080/chat", true},
		{"other port", "http://localhost:9090", false},
		{"other scheme", "https://localhost:8080", false},
		{"missing header", "", false},
		{"unparseable header", "localhost", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, policy.checkOrigin(requestWithOrigin(tt.origin)))
		})
	}
}

// TestOriginPolicyWildcard verifies "*" admits any well-formed origin but
// still requires the header.
func TestOriginPolicyWildcard(t *testing.T) {
	policy := newOriginPolicy([]string{"*"}, testLogger())

	require.True(t, policy.isAllowed(requestWithOrigin("https://anywhere.example")))
	require.False(t, policy.isAllowed(requestWithOrigin("")))
}

// TestOriginPolicyEmpty verifies an empty allow-list rejects everything.
func TestOriginPolicyEmpty(t *testing.T) {
	policy := newOriginPolicy(nil, testLogger())

	require.False(t, policy.isAllowed(requestWithOrigin("http://localhost:8080")))
}
