package schema

import (
	json "github.com/goccy/go-json"
)

// TransactionPayload is an opaque provider-defined transaction body.
// Adapters forward it verbatim; walletgate never constructs or inspects transactions.
type TransactionPayload = json.RawMessage

// SignOptions carries provider-specific signing options forwarded verbatim.
type SignOptions map[string]any

// Clone returns a shallow copy so callers can mutate their options after a call.
func (o SignOptions) Clone() SignOptions {
	if len(o) == 0 {
		return nil
	}
	out := make(SignOptions, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// PendingTransaction reports the identifier of a submitted transaction.
type PendingTransaction struct {
	Hash string `json:"hash"`
}
