package ethereum

import (
	"context"
	"encoding/json"
	"time"

	"github.com/leon-do/web3hook-emit/internal/chainstream"
	"github.com/leon-do/web3hook-emit/internal/pkg/types"
	"github.com/leon-do/web3hook-emit/internal/pkg/x/chflow"
)

// subscriptionChannelBufferSize bounds how far the poller can run ahead of
// the consumer during catch-up.
const subscriptionChannelBufferSize = 10

// blockResponse is the block shape returned by eth_getBlockByNumber with full
// transaction objects disabled: the transactions field carries hashes only.
type blockResponse struct {
	Hash         string    `json:"hash"`
	Number       types.Hex `json:"number"`
	Transactions []string  `json:"transactions"`
}

// toChainstreamBlock converts a blockResponse into a chainstream.Block.
func (b blockResponse) toChainstreamBlock() chainstream.Block {
	return chainstream.Block{
		Height:            b.Number,
		Hash:              b.Hash,
		TransactionHashes: b.Transactions,
	}
}

// getLatestBlockNumber fetches the latest block number known to the node.
func (c *client) getLatestBlockNumber(ctx context.Context) (types.Hex, error) {
	data, err := c.conn.Fetch(ctx, "eth_blockNumber")
	if err != nil {
		return "", err
	}

	var blockNumber types.Hex
	return blockNumber, json.Unmarshal(data, &blockNumber)
}

// FetchBlockByHeight implements the chainstream.Blockchain interface.
//
// Blocks are fetched with transaction hashes only. The node returns null for
// heights it has not produced yet, which maps to chainstream.ErrBlockNotFound.
func (c *client) FetchBlockByHeight(ctx context.Context, height types.Hex) (chainstream.Block, error) {
	data, err := c.conn.Fetch(ctx, "eth_getBlockByNumber", height, false)
	if err != nil {
		return chainstream.Block{}, err
	}

	var res *blockResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return chainstream.Block{}, err
	}

	if res == nil || res.Hash == "" {
		return chainstream.Block{}, chainstream.ErrBlockNotFound
	}

	return res.toChainstreamBlock(), nil
}

// pollNewBlocks emits every block in the range [fromHeight, latest] and
// returns the next height to poll from. When the node has produced nothing
// new it returns fromHeight unchanged without emitting any event. Sends honor
// cancellation, so a full channel never wedges the poller past ctx.
//
// A failed latest-number call is reported against fromHeight, the next block
// the stream is waiting for.
func (c *client) pollNewBlocks(ctx context.Context, fromHeight types.Hex, eventsCh chan<- chainstream.BlockchainEvent) types.Hex {
	latest, err := c.getLatestBlockNumber(ctx)
	if err != nil {
		_ = chflow.Send(ctx, eventsCh, chainstream.BlockchainEvent{Height: fromHeight, Err: err})
		return fromHeight
	}

	current := fromHeight
	for current.Int() <= latest.Int() {
		block, err := c.FetchBlockByHeight(ctx, current)

		event := chainstream.BlockchainEvent{
			Height: current,
			Block:  block,
			Err:    err,
		}
		if ok := chflow.Send(ctx, eventsCh, event); !ok {
			return current
		}

		current = current.Add(1)
	}

	return current
}

// Subscribe implements the chainstream.Blockchain interface.
//
// It polls the node on a fixed interval and emits every block from fromHeight
// onward, catching up over ranges when the chain moved more than one block
// between rounds. An empty fromHeight starts from the latest block at the
// time of the call. The returned channel is closed when ctx is canceled.
func (c *client) Subscribe(ctx context.Context, fromHeight types.Hex) (<-chan chainstream.BlockchainEvent, error) {
	if fromHeight.IsEmpty() {
		latest, err := c.getLatestBlockNumber(ctx)
		if err != nil {
			return nil, err
		}

		fromHeight = latest
	}

	eventsCh := make(chan chainstream.BlockchainEvent, subscriptionChannelBufferSize)
	go func() {
		defer close(eventsCh)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.pollInterval):
				fromHeight = c.pollNewBlocks(ctx, fromHeight, eventsCh)
			}
		}
	}()

	return eventsCh, nil
}
