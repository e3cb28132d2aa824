package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithCauseKeepsSentinelIntact(t *testing.T) {
	cause := errors.New("no sheets")
	err := ErrEmptyInput.WithCause(cause)

	assert.Nil(t, ErrEmptyInput.Cause)
	assert.Equal(t, cause, err.Cause)
	assert.True(t, errors.Is(err, ErrEmptyInput))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "EMPTY_INPUT")
	assert.Contains(t, err.Error(), "no sheets")
}

func TestFrom(t *testing.T) {
	wrapped := fmt.Errorf("read workbook: %w", ErrMissingColumns.WithDetails(map[string]any{"missing": []string{"ARR"}}))

	got := From(wrapped)
	assert.Equal(t, "MISSING_COLUMNS", got.Code)
	assert.Equal(t, http.StatusBadRequest, got.StatusCode)
	assert.Equal(t, []string{"ARR"}, got.Details["missing"])

	unknown := From(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, unknown.Code)
	assert.Equal(t, http.StatusInternalServerError, unknown.StatusCode)
}

func TestBody(t *testing.T) {
	assert.Equal(t, map[string]any{"error": "Too many requests", "code": "TOO_MANY_REQUESTS"}, ErrTooManyRequests.Body())

	body := ErrForbidden.WithDetails(map[string]any{"required": "admin"}).Body()
	assert.Equal(t, "FORBIDDEN", body["code"])
	assert.Equal(t, map[string]any{"required": "admin"}, body["details"])
}
