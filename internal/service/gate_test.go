package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porton/gate-relay/internal/metrics"
)

func TestWebhookActuator_Trigger(t *testing.T) {
	t.Run("succeeds on 2xx with empty body", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/webhook/gate", r.URL.Path)
			assert.Equal(t, int64(0), r.ContentLength)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		a := NewWebhookActuator(srv.URL+"/api/webhook/gate", "post", time.Second, metrics.New())
		require.NoError(t, a.Trigger(context.Background()))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("uses configured method", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
		}))
		defer srv.Close()

		a := NewWebhookActuator(srv.URL, "PUT", time.Second, nil)
		assert.NoError(t, a.Trigger(context.Background()))
	})

	t.Run("fails on non-2xx without retry", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		a := NewWebhookActuator(srv.URL, "POST", time.Second, nil)
		err := a.Trigger(context.Background())
		assert.ErrorIs(t, err, ErrActuatorFailed)
		assert.Contains(t, err.Error(), "500")
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("fails on timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		a := NewWebhookActuator(srv.URL, "POST", 50*time.Millisecond, nil)
		start := time.Now()
		err := a.Trigger(context.Background())
		assert.ErrorIs(t, err, ErrActuatorFailed)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("fails on unreachable host", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		a := NewWebhookActuator(url, "POST", time.Second, nil)
		assert.ErrorIs(t, a.Trigger(context.Background()), ErrActuatorFailed)
	})

	t.Run("defaults timeout and method", func(t *testing.T) {
		a := NewWebhookActuator("https://example.com", "", 0, nil)
		assert.Equal(t, defaultWebhookTimeout, a.timeout)
		assert.Equal(t, http.MethodPost, a.method)
	})
}
