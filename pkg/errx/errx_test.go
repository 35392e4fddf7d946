package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPrefixesCodes(t *testing.T) {
	reg := NewRegistry("TEST")
	code := reg.Register("BOOM", TypeInternal, http.StatusInternalServerError, "it broke")
	assert.Equal(t, Code("TEST_BOOM"), code)
}

func TestRegistryPanicsOnDuplicateCode(t *testing.T) {
	reg := NewRegistry("TEST")
	reg.Register("BOOM", TypeInternal, http.StatusInternalServerError, "it broke")
	assert.Panics(t, func() {
		reg.Register("BOOM", TypeInternal, http.StatusInternalServerError, "again")
	})
}

func TestErrorCarriesCauseAndDetails(t *testing.T) {
	reg := NewRegistry("TEST")
	code := reg.Register("EXT", TypeExternal, http.StatusBadGateway, "upstream failed")

	cause := errors.New("connection reset")
	err := reg.NewWithCause(code, cause).
		WithDetail("host", "example.com").
		WithDetails(map[string]any{"attempt": 2})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "upstream failed")
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, "example.com", err.Details["host"])
	assert.Equal(t, 2, err.Details["attempt"])
}

func TestHasCodeSeesThroughWrapping(t *testing.T) {
	reg := NewRegistry("TEST")
	code := reg.Register("NF", TypeNotFound, http.StatusNotFound, "missing")

	wrapped := fmt.Errorf("outer context: %w", reg.New(code))
	assert.True(t, HasCode(wrapped, code))
	assert.False(t, HasCode(wrapped, Code("TEST_OTHER")))
	assert.False(t, HasCode(errors.New("plain"), code))
}

func TestIsType(t *testing.T) {
	reg := NewRegistry("TEST")
	code := reg.Register("VAL", TypeValidation, http.StatusBadRequest, "bad input")

	err := reg.New(code)
	assert.True(t, IsType(err, TypeValidation))
	assert.False(t, IsType(err, TypeInternal))
}

func TestToHTTPResponse(t *testing.T) {
	reg := NewRegistry("TEST")
	code := reg.Register("VAL", TypeValidation, http.StatusBadRequest, "bad input")

	err := reg.New(code).WithDetail("field", "name")
	body := err.ToHTTPResponse()

	assert.Equal(t, Code("TEST_VAL"), body["code"])
	assert.Equal(t, TypeValidation, body["type"])
	assert.Equal(t, "bad input", body["message"])
	require.Contains(t, body, "details")
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "context"))

	err := Wrap(errors.New("inner"), "context")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context: inner")
}
