package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.MinWait = time.Millisecond
	cfg.MaxWait = 5 * time.Millisecond
	cfg.BaseURL = baseURL
	return cfg
}

func TestDefaultConfigHasNoUserAgent(t *testing.T) {
	assert.Empty(t, DefaultConfig().UserAgent)
}

func TestRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ServiceUserAgent, r.Header.Get("User-Agent"))
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.UserAgent = ServiceUserAgent
	req, err := New(cfg).Request(context.Background())
	require.NoError(t, err)

	resp, err := req.Get("/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestDoesNotRetryClientErrorsOrNotImplemented(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusNotImplemented} {
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(status)
		}))

		req, err := New(testConfig(srv.URL)).Request(context.Background())
		require.NoError(t, err)
		resp, err := req.Get("/")
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode())
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "status %d", status)
		srv.Close()
	}
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 10*time.Millisecond, Backoff(10*time.Millisecond, time.Second, 1, nil))
	assert.Equal(t, 40*time.Millisecond, Backoff(10*time.Millisecond, time.Second, 3, nil))
	assert.Equal(t, 50*time.Millisecond, Backoff(10*time.Millisecond, 50*time.Millisecond, 8, nil))
}
