package ethereum

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leon-do/web3hook-emit/internal/pkg/transport/jsonrpc"

	"github.com/stretchr/testify/require"
)

// rpcHandler resolves a JSON-RPC method call into a result or an error.
type rpcHandler func(method string, params []any) (any, error)

// newTestClient spins up a JSON-RPC test server backed by the given handler
// and returns an Ethereum client pointed at it.
func newTestClient(t *testing.T, handler rpcHandler, opts ...Option) *client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     string `json:"id"`
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		body := map[string]any{"jsonrpc": "2.0", "id": req.ID}

		result, err := handler(req.Method, req.Params)
		if err != nil {
			body["error"] = map[string]any{"code": -32000, "message": err.Error()}
		} else {
			body["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	t.Cleanup(srv.Close)

	conn := jsonrpc.NewClient(srv.Client(), srv.URL)
	return NewClient(conn, opts...)
}
