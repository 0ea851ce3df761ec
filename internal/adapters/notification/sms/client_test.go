package sms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_Notify_Delivered(t *testing.T) {
	ts := newGateway(t, http.StatusOK, `{"id":"prov-123","status":"queued"}`, func(r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("X-Api-Key"))

		var req sendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "+51999888777", req.To)
		assert.Equal(t, "CLINICA", req.From)
		assert.Contains(t, req.Message, "BCG")
	})

	c, err := NewClient(Config{BaseURL: ts.URL, APIKey: "key-1", Sender: "CLINICA"})
	require.NoError(t, err)

	d, err := c.Notify(context.Background(), "+51999888777", "Recordatorio: BCG dosis 1")
	require.NoError(t, err)
	assert.True(t, d.Delivered)
	assert.Equal(t, "prov-123", d.ProviderReference)
}

func TestClient_Notify_RejectedByProvider(t *testing.T) {
	ts := newGateway(t, http.StatusOK, `{"id":"prov-9","status":"failed","error":"unreachable handset"}`, nil)

	c, err := NewClient(Config{BaseURL: ts.URL, APIKey: "key-1"})
	require.NoError(t, err)

	d, err := c.Notify(context.Background(), "+51999888777", "hola")
	require.NoError(t, err)
	assert.False(t, d.Delivered)
	assert.Equal(t, "unreachable handset", d.ErrorDetail)
}

func TestClient_Notify_Unauthorized(t *testing.T) {
	ts := newGateway(t, http.StatusUnauthorized, `{"error":"bad key"}`, nil)

	c, err := NewClient(Config{BaseURL: ts.URL, APIKey: "wrong"})
	require.NoError(t, err)

	_, err = c.Notify(context.Background(), "+51999888777", "hola")
	assert.True(t, errors.Is(err, ErrSMSUnauthorized))
}

func TestClient_Notify_Upstream(t *testing.T) {
	ts := newGateway(t, http.StatusBadGateway, `oops`, nil)

	c, err := NewClient(Config{BaseURL: ts.URL, APIKey: "k"})
	require.NoError(t, err)

	d, err := c.Notify(context.Background(), "+51999888777", "hola")
	assert.True(t, errors.Is(err, ErrSMSUpstream))
	assert.False(t, d.Delivered)
}

func TestClient_Notify_NotConfigured(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)

	_, err = c.Notify(context.Background(), "+51999888777", "hola")
	assert.ErrorIs(t, err, ErrSMSNotConfigured)
}

func TestClient_Notify_RetryKeepsIdempotencyKey(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get(IdempotencyHeader))
		attempt := len(keys)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if attempt == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":"prov-1","status":"queued"}`))
	}))
	t.Cleanup(ts.Close)

	c, err := NewClient(Config{BaseURL: ts.URL, APIKey: "key-1", RetryCount: 2})
	require.NoError(t, err)

	d, err := c.Notify(context.Background(), "+51999888777", "hola")
	require.NoError(t, err)
	assert.True(t, d.Delivered)

	seen := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), keys...)
	}

	got := seen()
	require.Len(t, got, 2)
	assert.NotEmpty(t, got[0])
	assert.Equal(t, got[0], got[1])

	// otro envío, otra clave
	_, err = c.Notify(context.Background(), "+51999888777", "chau")
	require.NoError(t, err)
	got = seen()
	require.Len(t, got, 3)
	assert.NotEqual(t, got[0], got[2])
}
