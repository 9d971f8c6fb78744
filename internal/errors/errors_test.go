package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is_MatchesByCode(t *testing.T) {
	err := Providerf("synthesis failed for chapter %d", 3)
	assert.True(t, Is(err, ErrProvider))
	assert.False(t, Is(err, ErrNotFound))
}

func TestError_WrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, CodeProvider, "synthesize batch")

	assert.True(t, Is(err, ErrProvider))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		status int
	}{
		{"not found", NotFound("no such book"), http.StatusNotFound},
		{"validation", Validation("bad selection"), http.StatusBadRequest},
		{"provider", Provider("tts down"), http.StatusBadGateway},
		{"internal", Internal("boom"), http.StatusInternalServerError},
		{"extraction", Extraction("anchor missing"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus())
		})
	}
}

func TestError_AsExtractsCode(t *testing.T) {
	var domainErr *Error
	err := Validationf("invalid selection %q", "a-b")

	assert.True(t, As(err, &domainErr))
	assert.Equal(t, CodeValidation, domainErr.Code)
}
