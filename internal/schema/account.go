// Package schema defines the wallet-facing domain types shared across adapters.
package schema

import "strings"

// AccountInfo caches the public identifiers of the active wallet account.
type AccountInfo struct {
	Address   string `json:"address"`
	PublicKey string `json:"publicKey,omitempty"`
	AuthKey   string `json:"authKey,omitempty"`
}

// Empty reports whether the account carries no address.
func (a AccountInfo) Empty() bool {
	return strings.TrimSpace(a.Address) == ""
}

// ReadyState captures the adapter's belief about provider availability.
type ReadyState int

const (
	// ReadyStateUnsupported marks a permanently unavailable provider (no runtime environment).
	ReadyStateUnsupported ReadyState = iota
	// ReadyStateNotDetected marks a provider that has not been observed yet.
	ReadyStateNotDetected
	// ReadyStateLoadable marks a provider that can be loaded on demand.
	ReadyStateLoadable
	// ReadyStateInstalled marks a detected, usable provider.
	ReadyStateInstalled
)

// Usable reports whether operations may be forwarded to the provider.
func (s ReadyState) Usable() bool {
	return s == ReadyStateLoadable || s == ReadyStateInstalled
}

func (s ReadyState) String() string {
	switch s {
	case ReadyStateUnsupported:
		return "unsupported"
	case ReadyStateNotDetected:
		return "not_detected"
	case ReadyStateLoadable:
		return "loadable"
	case ReadyStateInstalled:
		return "installed"
	default:
		return "unknown"
	}
}
