package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONClient_Post(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/echo", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["say"]})
	}))
	defer server.Close()
	client := NewJSONClient(Options{Service: "test", BaseURL: server.URL + "/"})

	// Act
	var out map[string]string
	err := client.Post(context.Background(), "echo", "/echo", map[string]string{"say": "hi"}, &out)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "hi", out["echo"])
}

func TestJSONClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such session", http.StatusNotFound)
	}))
	defer server.Close()
	client := NewJSONClient(Options{Service: "test", BaseURL: server.URL})

	err := client.Get(context.Background(), "load", "/session/x", nil)

	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "no such session", statusErr.Body)
}

func TestJSONClient_BreakerOpensOnServerErrors(t *testing.T) {
	// Arrange
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()
	client := NewJSONClient(Options{
		Service: "test",
		BaseURL: server.URL,
		Breaker: BreakerConfig{MaxRequests: 1, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 2},
	})
	ctx := context.Background()

	// Act
	for i := 0; i < 2; i++ {
		_ = client.Post(ctx, "op", "/", struct{}{}, nil)
	}
	err := client.Post(ctx, "op", "/", struct{}{}, nil)

	// Assert
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, calls)
}

func TestJSONClient_ClientErrorsKeepBreakerClosed(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()
	client := NewJSONClient(Options{
		Service: "test",
		BaseURL: server.URL,
		Breaker: BreakerConfig{MaxRequests: 1, Timeout: time.Minute, FailureThreshold: 0.5, MinRequests: 2},
	})

	for i := 0; i < 4; i++ {
		err := client.Post(context.Background(), "op", "/", struct{}{}, nil)
		assert.True(t, IsStatus(err, http.StatusBadRequest))
	}
	assert.Equal(t, 4, calls)
}
