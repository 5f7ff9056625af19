package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatlicense/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	statePath := filepath.Join(t.TempDir(), "license.json")
	c := New(srv.URL+"/", "gocbt-test",
		WithStatePath(statePath),
		WithDeviceID("hw-test"),
		WithRetry(3, time.Millisecond),
	)
	return c, statePath
}

func respond(w http.ResponseWriter, status int, body models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestActivateVerifyDeactivate(t *testing.T) {
	c, statePath := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/activate":
			var req models.ActivateRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "hw-test", req.HWID)
			assert.Equal(t, "buyer@example.com", req.Email)
			respond(w, http.StatusOK, models.TokenResponse("token-1", 1))
		case "/verify":
			var req models.VerifyRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "token-1", req.Token)
			respond(w, http.StatusOK, models.APIResponse{OK: true, Token: "token-2"})
		case "/deactivate":
			var req models.DeactivateRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "token-2", req.Token)
			respond(w, http.StatusOK, models.SuccessResponse())
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	state, err := c.Activate(ctx, " buyer@example.com ", "GOCBT-AAAA")
	require.NoError(t, err)
	assert.Equal(t, "token-1", state.Token)

	saved, err := LoadState(statePath)
	require.NoError(t, err)
	assert.Equal(t, state, saved)

	state, err = c.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-2", state.Token)

	require.NoError(t, c.Deactivate(ctx))
	_, err = LoadState(statePath)
	assert.ErrorIs(t, err, ErrNotActivated)
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		respond(w, http.StatusForbidden, models.ErrorResponse("device limit reached"))
	})

	_, err := c.Activate(context.Background(), "buyer@example.com", "GOCBT-AAAA")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusForbidden))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "device limit reached", apiErr.Msg)
	assert.EqualValues(t, 1, calls.Load())
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			respond(w, http.StatusServiceUnavailable, models.ErrorResponse("temporarily unavailable, please retry"))
			return
		}
		respond(w, http.StatusOK, models.TokenResponse("token-1", 1))
	})

	_, err := c.Activate(context.Background(), "buyer@example.com", "GOCBT-AAAA")
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestVerifyClearsRevokedState(t *testing.T) {
	c, statePath := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusForbidden, models.ErrorResponse("revoked"))
	})
	require.NoError(t, SaveState(statePath, State{Email: "a@b.c", LicenseKey: "K", Token: "T", HWID: "hw-test"}))

	_, err := c.Verify(context.Background())
	assert.True(t, IsStatus(err, http.StatusForbidden))

	_, err = LoadState(statePath)
	assert.ErrorIs(t, err, ErrNotActivated)
}

func TestVerifyWithoutActivation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.Verify(context.Background())
	assert.ErrorIs(t, err, ErrNotActivated)
}

func TestStateRoundTripAndCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	want := State{Email: "a@b.c", LicenseKey: "K", Token: "T", HWID: "H"}
	require.NoError(t, SaveState(path, want))

	got, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, ClearState(path))
	require.NoError(t, ClearState(path))

	require.NoError(t, SaveState(path, State{Email: "a@b.c"}))
	_, err = LoadState(path)
	assert.ErrorIs(t, err, ErrNotActivated)
}

func TestDeviceIDIsStable(t *testing.T) {
	assert.Equal(t, DeviceID("gocbt"), DeviceID("gocbt"))
	assert.Len(t, fallbackDeviceID("gocbt"), 64)
	assert.NotEqual(t, fallbackDeviceID("a"), fallbackDeviceID("b"))
}
