package userdir

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/devllyservices-png/zedyoumplus2-sub000/pkg/errors"
	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/httpclient"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func plainClient() *httpclient.Client {
	return httpclient.New(httpclient.Config{Timeout: 2 * time.Second})
}

func TestExists_Found(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/7d9f3c1e-5a4b-4c2d-9e8f-1a2b3c4d5e6f", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"7d9f3c1e-5a4b-4c2d-9e8f-1a2b3c4d5e6f"}}`))
	})

	ok, err := NewHTTPDirectory(plainClient(), srv.URL+"/").Exists(context.Background(), "7d9f3c1e-5a4b-4c2d-9e8f-1a2b3c4d5e6f")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExists_NotFound(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"user not found"}}`))
	})

	ok, err := NewHTTPDirectory(plainClient(), srv.URL).Exists(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExists_EscapesID(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/a%2Fb", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := NewHTTPDirectory(plainClient(), srv.URL).Exists(context.Background(), "a/b")
	require.NoError(t, err)
}

func TestExists_EmptyIDSkipsCall(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	})

	ok, err := NewHTTPDirectory(plainClient(), srv.URL).Exists(context.Background(), " ")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, calls.Load())
}

func TestExists_ServiceUnavailable(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":"UNAVAILABLE","message":"maintenance"}}`))
	})

	_, err := NewHTTPDirectory(plainClient(), srv.URL).Exists(context.Background(), "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
}

type failingDoer struct{}

func (failingDoer) Do(context.Context, *http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestExists_TransportError(t *testing.T) {
	_, err := NewHTTPDirectory(failingDoer{}, "http://users").Exists(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call user service")
}

func TestExists_ThroughCircuitBreaker(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cb := httpclient.NewCircuitBreakerClient(plainClient(), httpclient.DefaultCircuitBreakerConfig("user-directory-test"), logger)

	ok, err := NewHTTPDirectory(cb, srv.URL).Exists(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}
