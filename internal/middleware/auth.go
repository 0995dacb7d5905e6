package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type contextKey string

// ClientKey holds the name of the authenticated API client.
const ClientKey contextKey = "client"

// APIKeyAuth validates the API key from the Authorization header.
// validKeys maps a client name to its key. An empty map disables the check.
func APIKeyAuth(validKeys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				WriteError(w, http.StatusUnauthorized, "Unauthorized", "missing Authorization header")
				return
			}

			// Support both "Bearer <key>" and "<key>" formats
			apiKey := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if apiKey == "" {
				WriteError(w, http.StatusUnauthorized, "Unauthorized", "invalid Authorization header format")
				return
			}

			// Constant-time comparison to prevent timing attacks
			client := ""
			for name, key := range validKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					client = name
					break
				}
			}

			if client == "" {
				WriteError(w, http.StatusUnauthorized, "Unauthorized", "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), ClientKey, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClientFromContext extracts the authenticated client name from context
func GetClientFromContext(ctx context.Context) string {
	if client, ok := ctx.Value(ClientKey).(string); ok {
		return client
	}
	return ""
}
