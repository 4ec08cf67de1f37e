package solana

import "context"

// RPCClient defines the subset of Solana RPC HTTP calls the listener actually issues: fetching a
// transaction and paginating signatures for the gap scanner (C6), and the current slot for the
// lag gauge (C9). GetBlock/GetBlockTime/GetAccountInfo remain on HTTPClient as transport-layer
// methods but are not part of this interface since no listener operation calls them.
type RPCClient interface {
	// GetTransaction retrieves a transaction by signature.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSignaturesForAddress retrieves signatures for an address with pagination.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetSlot retrieves the current (confirmed) slot, used to compute checkpoint lag.
	GetSlot(ctx context.Context) (int64, error)
}

// Transaction represents a Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err         interface{}
	LogMessages []string
}

// TransactionMessage contains parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
}
