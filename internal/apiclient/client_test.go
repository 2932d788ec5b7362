package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kamilpajak/qaharness/internal/config"
	"github.com/kamilpajak/qaharness/internal/logging"
	"github.com/kamilpajak/qaharness/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type post struct {
	ID    int    `json:"id,omitempty"`
	Title string `json:"title"`
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Options{
		BaseURL: url,
		Timeout: 5 * time.Second,
		Retry:   retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
	})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Options{})

	var missing *config.MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "api.base_url", missing.Key)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/posts/1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get(logging.CorrelationHeader))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"title":"hello"}`))
	}))
	defer srv.Close()

	var got post
	resp, err := newTestClient(t, srv.URL+"/").GetJSON(context.Background(), "/posts/1", &got)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, resp.Attempts)
	assert.Equal(t, post{ID: 1, Title: "hello"}, got)
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in post
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = 101
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	var created post
	resp, err := newTestClient(t, srv.URL).PostJSON(context.Background(), "posts", post{Title: "new"}, &created)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, post{ID: 101, Title: "new"}, created)
}

func TestDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL).Delete(context.Background(), "/posts/1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCorrelationIDPropagated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "run-42", r.Header.Get(logging.CorrelationHeader))
	}))
	defer srv.Close()

	ctx := logging.WithCorrelationID(context.Background(), "run-42")
	_, err := newTestClient(t, srv.URL).GetJSON(ctx, "/", nil)
	require.NoError(t, err)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ids := make(chan string, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get(logging.CorrelationHeader)
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL).GetJSON(context.Background(), "/health", nil)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Attempts)
	first := <-ids
	assert.Equal(t, first, <-ids, "retries keep the correlation ID")
	assert.Equal(t, first, <-ids)
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL).GetJSON(context.Background(), "/", nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "upstream down", statusErr.Body)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 3, resp.Attempts)
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"invalid title"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).PostJSON(context.Background(), "/posts", post{}, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.False(t, statusErr.Retryable())
	assert.Equal(t, int32(1), calls.Load())
}

func TestDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out post
	_, err := newTestClient(t, srv.URL).GetJSON(context.Background(), "/", &out)
	assert.ErrorContains(t, err, "failed to decode")
}

func TestTransportErrorRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url).GetJSON(context.Background(), "/", nil)
	require.Error(t, err)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.Defaults().API, logging.Discard())

	assert.Equal(t, 3, opts.Retry.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, opts.Retry.BaseDelay)
	assert.Equal(t, 30*time.Second, opts.Timeout)
}
