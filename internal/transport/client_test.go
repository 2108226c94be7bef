package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noDelay() backoff.BackOff { return &backoff.ZeroBackOff{} }

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ndnm", r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, `{"name":"sdk","count":2}`)
	}))
	defer server.Close()

	var payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	client := New(5*time.Second, WithBackOff(noDelay))
	require.NoError(t, client.GetJSON(context.Background(), server.URL, &payload))
	assert.Equal(t, "sdk", payload.Name)
	assert.Equal(t, 2, payload.Count)
}

func TestGetJSONDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	}))
	defer server.Close()

	var payload map[string]any
	err := New(5*time.Second).GetJSON(context.Background(), server.URL, &payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	var payload map[string]any
	client := New(5*time.Second, WithRetries(1), WithBackOff(noDelay))
	require.NoError(t, client.GetJSON(context.Background(), server.URL, &payload))
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetryBudgetExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	var payload map[string]any
	client := New(5*time.Second, WithRetries(2), WithBackOff(noDelay))
	err := client.GetJSON(context.Background(), server.URL, &payload)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := New(5*time.Second, WithRetries(3), WithBackOff(noDelay)).GetStream(context.Background(), server.URL)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "archive-bytes")
	}))
	defer server.Close()

	body, err := New(5*time.Second).GetStream(context.Background(), server.URL)
	require.NoError(t, err)
	defer func() { _ = body.Close() }()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "archive-bytes", string(data))
}

func TestContentLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Length", "1234")
	}))
	defer server.Close()

	n, err := New(5*time.Second).ContentLength(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), n)
}

func TestContentLengthUnknown(t *testing.T) {
	client := New(5*time.Second, WithHTTPClient(doerFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode:    http.StatusOK,
			Status:        "200 OK",
			ContentLength: -1,
			Header:        http.Header{},
			Body:          io.NopCloser(strings.NewReader("")),
		}, nil
	})))

	n, err := client.ContentLength(context.Background(), "https://example.test/sdk.tar.gz")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCanceledContextIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := New(5*time.Second, WithRetries(3), WithBackOff(noDelay), WithHTTPClient(doerFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, context.Canceled
	})))

	_, err := client.GetStream(context.Background(), "https://example.test/sdk.tar.gz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(1), calls.Load())
}
