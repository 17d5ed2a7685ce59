package jsonrpc

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Fetch(t *testing.T) {
	t.Run("sends a well-formed request and returns the raw result", func(t *testing.T) {
		type request struct {
			JsonRPC string `json:"jsonrpc"`
			ID      string `json:"id"`
			Method  string `json:"method"`
			Params  []any  `json:"params"`
		}
		got := make(chan request, 1)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)

			var req request
			_ = json.Unmarshal(body, &req)
			got <- req

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"jsonrpc": "2.0", "result": {"value": 42}}`))
		}))
		defer srv.Close()

		result, err := NewClient(srv.Client(), srv.URL).Fetch(t.Context(), "getBalance", "W", map[string]any{"limit": 5})

		require.NoError(t, err)
		assert.JSONEq(t, `{"value": 42}`, string(result))

		req := <-got
		assert.Equal(t, "2.0", req.JsonRPC)
		assert.NotEmpty(t, req.ID)
		assert.Equal(t, "getBalance", req.Method)
		require.Len(t, req.Params, 2)
		assert.Equal(t, "W", req.Params[0])
	})

	t.Run("provider error objects map to the sentinel error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"jsonrpc": "2.0", "error": {"code": -32601, "message": "method not found"}}`))
		}))
		defer srv.Close()

		_, err := NewClient(srv.Client(), srv.URL).Fetch(t.Context(), "unknownMethod")

		require.ErrorIs(t, err, ErrProviderReturnedError)
		assert.Contains(t, err.Error(), "-32601")
	})

	t.Run("unreachable endpoint fails", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		_, err := NewClient(http.DefaultClient, srv.URL).Fetch(t.Context(), "getBalance")

		assert.Error(t, err)
	})
}
