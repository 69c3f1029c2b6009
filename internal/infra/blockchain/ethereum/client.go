// Package ethereum adapts an Ethereum-compatible JSON-RPC node to the block
// stream and transaction fetch interfaces. One client serves both: block
// polling for the stream and per-hash transaction lookups for the dispatch
// pipeline.
package ethereum

import (
	"time"

	"github.com/leon-do/web3hook-emit/internal/chainstream"
	"github.com/leon-do/web3hook-emit/internal/pkg/transport/jsonrpc"
	"github.com/leon-do/web3hook-emit/internal/triggerwatch"
)

// defaultPollInterval is how often the node is asked for its latest block
// number. Catch-up fetching makes a short interval safe: an idle round is a
// single eth_blockNumber call.
const defaultPollInterval = 500 * time.Millisecond

// client talks to an Ethereum-compatible node via JSON-RPC.
type client struct {
	conn         jsonrpc.Client
	pollInterval time.Duration
}

var (
	_ chainstream.Blockchain          = (*client)(nil)
	_ triggerwatch.TransactionFetcher = (*client)(nil)
)

// Option customizes the Ethereum client.
type Option func(*client)

// WithPollInterval overrides how often the node is polled for new blocks.
func WithPollInterval(d time.Duration) Option {
	return func(c *client) {
		c.pollInterval = d
	}
}

// NewClient creates an Ethereum blockchain client over the given JSON-RPC
// connection.
func NewClient(conn jsonrpc.Client, opts ...Option) *client {
	c := &client{
		conn:         conn,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}
