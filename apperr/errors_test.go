package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/newsdesk/apperr"
)

func TestNewValidation(t *testing.T) {
	err := apperr.NewValidation("title", "title is required")

	assert.Equal(t, "title is required", err.Error())
	assert.Equal(t, "title", err.Field)
	assert.Nil(t, err.Unwrap())
}

func TestNewValidationWrap(t *testing.T) {
	inner := fmt.Errorf("too long")
	err := apperr.NewValidationWrap("excerpt", "invalid excerpt", inner)

	assert.Equal(t, "invalid excerpt: too long", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestValidationErrorSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("create article: %w", apperr.NewValidation("title", "title is too long"))

	var ve *apperr.ValidationError
	require.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "title is too long", ve.Message)
}

func TestStorageKeepsSentinels(t *testing.T) {
	assert.Nil(t, apperr.Storage("get", nil))

	nf := fmt.Errorf("article %q: %w", "x", apperr.ErrNotFound)
	assert.Same(t, nf, apperr.Storage("get", nf))

	err := apperr.Storage("insert article", errors.New("disk full"))
	var se *apperr.StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "insert article", se.Op)
	assert.Equal(t, "storage: insert article: disk full", err.Error())

	// Already wrapped errors are not wrapped twice.
	assert.Same(t, err, apperr.Storage("other", err))
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", apperr.NewValidation("title", "bad"), http.StatusBadRequest},
		{"not found", fmt.Errorf("x: %w", apperr.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("x: %w", apperr.ErrConflict), http.StatusConflict},
		{"storage", apperr.Storage("op", errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.Status(tt.err))
		})
	}
}
