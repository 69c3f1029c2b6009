// Package triggerwatch implements the trigger-dispatch pipeline: for every
// observed block it fetches each transaction, matches it against registered
// triggers, posts a notification payload to every matching trigger's webhook
// endpoint, and meters the owner's credit balance.
package triggerwatch

import (
	"context"
	"errors"

	"github.com/leon-do/web3hook-emit/internal/pkg/types"
)

// ErrNetworkNotRegistered is returned when a block arrives for a network that
// has no transaction fetcher configured.
var ErrNetworkNotRegistered = errors.New("network not registered")

// ErrTransactionNotFound indicates that the node does not know the requested
// transaction hash.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrMalformedTransaction indicates that the node returned a transaction
// record missing mandatory fields. Such records are skipped, never fatal.
var ErrMalformedTransaction = errors.New("malformed transaction record")

// Transaction is the full detail of a blockchain transaction as needed for
// trigger matching and payload construction.
type Transaction struct {
	Hash     string    // Unique transaction hash identifier
	From     string    // Sender address
	To       string    // Recipient address; empty for contract creation
	ChainID  int64     // Chain the transaction was mined on
	Value    types.Hex // Transferred value in the chain's smallest unit
	Data     string    // Raw call data
	GasLimit types.Hex // Gas limit of the transaction
}

// Block identifies a block whose transactions should be run through the
// trigger pipeline. Only transaction hashes are carried; the pipeline fetches
// full detail per transaction with bounded concurrency.
type Block struct {
	Network           string    // Blockchain network the block belongs to
	Height            types.Hex // Block height
	Hash              string    // Unique block hash
	TransactionHashes []string  // Hashes of the transactions contained in the block
}

// TransactionFetcher retrieves full transaction detail from a node.
type TransactionFetcher interface {
	// FetchTransactionByHash returns the transaction with the given hash. It
	// returns ErrTransactionNotFound when the node does not know the hash,
	// ErrMalformedTransaction when the record cannot be decoded into a usable
	// Transaction, or a transport error otherwise. Reads are idempotent and
	// safe to retry.
	FetchTransactionByHash(ctx context.Context, hash string) (Transaction, error)
}
