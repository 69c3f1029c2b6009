// Package chainstream turns one or more blockchain nodes into an ordered
// stream of observed blocks. Each registered network is polled independently,
// resuming from its last checkpoint, and every block that could not be
// fetched is retried off the hot path before being reported as a dispatch
// failure.
package chainstream

import "github.com/leon-do/web3hook-emit/internal/pkg/types"

// Block represents a blockchain block with its height, hash, and the hashes
// of the transactions it contains. Full transaction detail is fetched
// downstream, one transaction at a time, by the consumers that need it.
type Block struct {
	Height            types.Hex // Block height represented as a hex string
	Hash              string    // Unique block hash
	TransactionHashes []string  // Hashes of the transactions contained in the block
}

// ObservedBlock is a block detected by the stream, annotated with the network
// it originated from. It is the primary output of this package.
type ObservedBlock struct {
	Network string // Name of the blockchain network (e.g., "ethereum")
	Block           // Embedded block data
}
