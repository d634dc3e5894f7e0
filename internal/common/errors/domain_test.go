package commonerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsSurvivesWithCauseAndMessage(t *testing.T) {
	cause := errors.New("db down")
	err := ErrDatabaseError.WithCause(cause).WithMessage("lookup failed")

	assert.ErrorIs(t, err, ErrDatabaseError)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInternalError)
	assert.Equal(t, "lookup failed", err.Message())
	assert.Equal(t, "lookup failed: db down", err.Error())
}

func TestDomainError_AsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", ErrUserNotFound)

	de, ok := AsDomainError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus())
	assert.Equal(t, CategoryNotFound, de.Category())
	assert.True(t, IsDomainError(wrapped))

	_, ok = AsDomainError(errors.New("plain"))
	assert.False(t, ok)
}

func TestDomainError_SentinelsUnchangedByDerivation(t *testing.T) {
	_ = ErrCircuitOpen.WithMessage("other")
	assert.Equal(t, "circuit breaker is open", ErrCircuitOpen.Message())
	assert.Nil(t, ErrCircuitOpen.Unwrap())
}
