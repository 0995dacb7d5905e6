package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrMissingCredential indicates no API key was configured for the provider.
var ErrMissingCredential = errors.New("ai api key not configured")
