package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Distribute(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.rankedBoard(t)
	require.NoError(t, ts.ledger.Mint("reward-vault", 5000))

	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	c := NewClient(srv.URL+"/", ts.token(t, admin))
	dist, err := c.Distribute(context.Background(), 2, 1000)
	require.NoError(t, err)
	assert.Equal(t, "run-1", dist.RunID)
	require.Len(t, dist.Payouts, 2)
	assert.Equal(t, uint64(750), dist.Payouts[0].Amount)
	assert.Equal(t, uint64(250), dist.Payouts[1].Amount)
}

func TestClient_DistributePartial(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.rankedBoard(t)
	require.NoError(t, ts.ledger.Mint("reward-vault", 800))

	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	dist, err := NewClient(srv.URL, ts.token(t, admin)).Distribute(context.Background(), 2, 1000)
	require.Error(t, err)
	require.NotNil(t, dist)
	assert.Len(t, dist.Payouts, 1)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
}

func TestClient_Errors(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.rankedBoard(t)

	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Distribute(context.Background(), 2, 1000)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	_, err = NewClient(srv.URL, ts.token(t, traderA)).Distribute(context.Background(), 2, 1000)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.NotEmpty(t, apiErr.Message)
}

func TestClient_SetPause(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.rankedBoard(t)

	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	c := NewClient(srv.URL, ts.token(t, admin), WithHTTPClient(srv.Client()))
	paused, err := c.SetPause(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, paused)

	_, err = c.Distribute(context.Background(), 2, 1000)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusLocked, apiErr.Status)
}
