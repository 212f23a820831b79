package ui

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "api:"+r.URL.Path)
	})
	h, err := Handler(api)
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		wantCode int
		contains string
	}{
		{"index", "/", http.StatusOK, "<title>mossy</title>"},
		{"asset", "/app.js", http.StatusOK, "/api/v1"},
		{"client route falls back", "/history", http.StatusOK, "<title>mossy</title>"},
		{"missing asset", "/missing.png", http.StatusNotFound, ""},
		{"api passthrough", "/api/v1/users", http.StatusOK, "api:/api/v1/users"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.contains != "" {
				assert.Contains(t, w.Body.String(), tt.contains)
			}
		})
	}
}
