package ethereum

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leon-do/web3hook-emit/internal/pkg/types"
	"github.com/leon-do/web3hook-emit/internal/triggerwatch"
)

// transactionResponse is the transaction shape returned by
// eth_getTransactionByHash. Only the fields the dispatch pipeline needs are
// decoded.
type transactionResponse struct {
	Hash    string    `json:"hash"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	ChainID types.Hex `json:"chainId"`
	Value   types.Hex `json:"value"`
	Input   string    `json:"input"`
	Gas     types.Hex `json:"gas"`
}

// toTriggerwatchTransaction converts a transactionResponse into a
// triggerwatch.Transaction. The To field stays empty for contract creations.
func (t transactionResponse) toTriggerwatchTransaction() triggerwatch.Transaction {
	return triggerwatch.Transaction{
		Hash:     t.Hash,
		From:     t.From,
		To:       t.To,
		ChainID:  t.ChainID.Int(),
		Value:    t.Value,
		Data:     t.Input,
		GasLimit: t.Gas,
	}
}

// FetchTransactionByHash implements the triggerwatch.TransactionFetcher
// interface.
//
// The node returns null for unknown hashes, which maps to
// triggerwatch.ErrTransactionNotFound. Records missing their hash or sender
// map to triggerwatch.ErrMalformedTransaction so the pipeline can skip them.
func (c *client) FetchTransactionByHash(ctx context.Context, hash string) (triggerwatch.Transaction, error) {
	data, err := c.conn.Fetch(ctx, "eth_getTransactionByHash", hash)
	if err != nil {
		return triggerwatch.Transaction{}, err
	}

	var res *transactionResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return triggerwatch.Transaction{}, fmt.Errorf("%w: %w", triggerwatch.ErrMalformedTransaction, err)
	}

	if res == nil {
		return triggerwatch.Transaction{}, triggerwatch.ErrTransactionNotFound
	}

	if res.Hash == "" || res.From == "" {
		return triggerwatch.Transaction{}, triggerwatch.ErrMalformedTransaction
	}

	return res.toTriggerwatchTransaction(), nil
}
