package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/georepute/backend/internal/contracts"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(contracts.NewValidationError("x", "bad")))
	assert.Equal(t, http.StatusNotFound, StatusFor(fmt.Errorf("wrapped: %w", contracts.ErrNotFound)))
	assert.Equal(t, http.StatusConflict, StatusFor(contracts.ErrInvalidTransition))
	assert.Equal(t, http.StatusConflict, StatusFor(contracts.ErrNotDeletable))
	assert.Equal(t, http.StatusTooManyRequests, StatusFor(contracts.ErrRateLimited))
	assert.Equal(t, http.StatusBadGateway, StatusFor(contracts.NewStageError(contracts.StageDCS, errors.New("x"))))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("x")))
}

func TestRequestContextRoundTrip(t *testing.T) {
	_, ok := RequestContextFrom(context.Background())
	assert.False(t, ok)

	_, ok = RequestContextFrom(WithRequestContext(context.Background(), contracts.RequestContext{}))
	assert.False(t, ok, "empty user id is not an identity")

	rc, ok := RequestContextFrom(WithRequestContext(context.Background(), contracts.RequestContext{UserID: "u"}))
	assert.True(t, ok)
	assert.Equal(t, "u", rc.UserID)
}
