package http

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		client := NewClient()

		assert.Equal(t, 5*time.Second, client.HTTPClient.Timeout)
		assert.Equal(t, 1*time.Second, client.RetryWaitMin)
		assert.Equal(t, 5*time.Second, client.RetryWaitMax)
		assert.Equal(t, 2, client.RetryMax)
	})

	t.Run("options override defaults", func(t *testing.T) {
		client := NewClient(
			WithTimeout(time.Second),
			WithRetryWaitMin(10*time.Millisecond),
			WithRetryWaitMax(20*time.Millisecond),
			WithRetryMax(1),
		)

		assert.Equal(t, time.Second, client.HTTPClient.Timeout)
		assert.Equal(t, 10*time.Millisecond, client.RetryWaitMin)
		assert.Equal(t, 20*time.Millisecond, client.RetryWaitMax)
		assert.Equal(t, 1, client.RetryMax)
	})

	t.Run("retries 5xx responses", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client := NewClient(
			WithRetryMax(2),
			WithRetryWaitMin(time.Millisecond),
			WithRetryWaitMax(2*time.Millisecond),
		)

		res, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer res.Body.Close()

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, int32(2), calls.Load())
	})
}
