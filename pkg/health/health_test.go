package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, endpoint http.HandlerFunc) (int, statusResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	endpoint(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var resp statusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestReadinessGate(t *testing.T) {
	h := New()

	code, resp := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code, "not ready until SetReady(true)")
	assert.Equal(t, "unhealthy", resp.Status)

	h.SetReady(true)
	code, resp = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, h.IsReady())

	// Draining flips it back.
	h.SetReady(false)
	code, _ = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, h.IsReady())
}

func TestLivenessDefaultsHealthy(t *testing.T) {
	h := New()
	h.AddLivenessCheck("never-run", time.Second, func(context.Context) error {
		return errors.New("would fail")
	})

	// Checks start healthy; only repeated observed failures flip them.
	code, _ := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
}

func TestFailureThreshold(t *testing.T) {
	c := newCheck("flaky", time.Second, func(context.Context) error {
		return errors.New("down")
	})
	ctx := context.Background()

	c.run(ctx)
	c.run(ctx)
	assert.True(t, c.healthy.Load(), "two failures stay below the threshold")

	c.run(ctx)
	assert.False(t, c.healthy.Load(), "third consecutive failure trips the check")
}

func TestRecoveryAfterFailure(t *testing.T) {
	var failing bool
	c := newCheck("store", time.Second, func(context.Context) error {
		if failing {
			return errors.New("down")
		}
		return nil
	})
	ctx := context.Background()

	failing = true
	for i := 0; i < failureThreshold; i++ {
		c.run(ctx)
	}
	require.False(t, c.healthy.Load())

	failing = false
	c.run(ctx)
	assert.True(t, c.healthy.Load(), "one success restores the check")
}

func TestReadyEndpointReportsFailingCheck(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("postgres", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	// Trip the check directly instead of waiting for the background loop.
	h.mu.RLock()
	c := h.readiness[0]
	h.mu.RUnlock()
	for i := 0; i < failureThreshold; i++ {
		c.run(context.Background())
	}

	code, resp := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, resp.Checks["postgres"], "connection refused")
	assert.False(t, h.IsReady())
}

func TestStartAndStop(t *testing.T) {
	h := New()
	ran := make(chan struct{}, 1)
	h.AddLivenessCheck("probe", time.Second, func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	h.Start(context.Background(), time.Hour)
	defer h.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("check did not run after Start")
	}

	h.Stop()
	h.Stop() // repeated Stop is safe
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
