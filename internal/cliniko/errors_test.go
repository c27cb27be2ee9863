package cliniko

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_LongBodyIsMarkedTruncated(t *testing.T) {
	long := strings.Repeat("x", maxErrorBody+10)
	api := newFakeAPI(t, http.StatusInternalServerError, long)
	c := newTestClient(t, api)

	_, err := c.GetPatient(context.Background(), 1)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Truncated)
	assert.True(t, strings.HasSuffix(apiErr.Body, truncatedSuffix))
	assert.Equal(t, long[:maxErrorBody], strings.TrimSuffix(apiErr.Body, truncatedSuffix))
}

func TestAPIError_BodyAtLimitIsKeptWhole(t *testing.T) {
	exact := strings.Repeat("y", maxErrorBody)
	api := newFakeAPI(t, http.StatusBadRequest, exact)
	c := newTestClient(t, api)

	_, err := c.GetPatient(context.Background(), 1)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.False(t, apiErr.Truncated)
	assert.Equal(t, exact, apiErr.Body)
}
