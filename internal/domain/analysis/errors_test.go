package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := E(KindFetchFailed, "fetch", context.DeadlineExceeded)

	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrClassifierUnavailable)
}

func TestError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("analyze url: %w", Errorf(KindClassifierResponseMalformed, "classify", "no choices"))

	assert.ErrorIs(t, err, ErrClassifierResponseMalformed)
	assert.Equal(t, KindClassifierResponseMalformed, KindOf(err))
	assert.Equal(t, "analyze url: classify: no choices", err.Error())
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("boom")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestIsClientError(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{KindInvalidInput, true},
		{KindInvalidURLFormat, true},
		{KindFetchFailed, false},
		{KindEmailParseFailed, false},
		{KindClassifierUnavailable, false},
		{KindClassifierResponseMalformed, false},
		{KindPersistenceFailed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, IsClientError(E(tt.kind, "", errors.New("x"))))
		})
	}
}

func TestError_MessageWithoutCause(t *testing.T) {
	assert.Equal(t, "InvalidInput", ErrInvalidInput.Error())
}
