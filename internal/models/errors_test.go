package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGisError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("resolve: %w", NewNetworkError("layer census-districts: HTTP GET", cause))

	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrNoData)
	assert.NotErrorIs(t, err, ErrMultipleMatches)
	assert.ErrorIs(t, err, cause)
	assert.EqualError(t, err, "resolve: NETWORK_ERROR: layer census-districts: HTTP GET: connection refused")

	gerr, ok := AsGisError(err)
	assert.True(t, ok)
	assert.Equal(t, CodeNetworkError, gerr.Code)

	noData := NewNoDataError("outside known administrative areas")
	assert.ErrorIs(t, noData, ErrNoData)
	assert.Equal(t, "NO_DATA: outside known administrative areas", noData.Error())

	_, ok = AsGisError(cause)
	assert.False(t, ok)
}
