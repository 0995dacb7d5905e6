package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIKeyAuth(t *testing.T) {
	var seen string
	h := APIKeyAuth(map[string]string{"extension": "secret-key"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetClientFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"wrong key", "Bearer nope", http.StatusUnauthorized},
		{"bearer", "Bearer secret-key", http.StatusOK},
		{"bare key", "secret-key", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodPost, "/analyze-url", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "extension", seen)
			}
		})
	}
}

func TestAPIKeyAuth_DisabledWithoutKeys(t *testing.T) {
	h := APIKeyAuth(nil)(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/analyze-url", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
}
