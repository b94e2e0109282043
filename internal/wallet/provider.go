// Package wallet adapts external wallet providers to a uniform adapter surface.
package wallet

import (
	"context"

	"github.com/coachpo/walletgate/internal/schema"
)

// ConnectResponse is the provider's reply to a connection request.
type ConnectResponse struct {
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
	Method    string `json:"method"`
	Status    int    `json:"status"`
}

// SubmitResult carries the identifier of a submitted transaction.
type SubmitResult struct {
	Hash string `json:"hash"`
}

// SubmitResponse is the provider's reply to a combined sign-and-submit request.
type SubmitResponse struct {
	Success bool         `json:"success"`
	Result  SubmitResult `json:"result"`
	Error   string       `json:"error,omitempty"`
}

// SignMessageResult carries the signed message produced by the provider.
type SignMessageResult struct {
	HexString string `json:"hexString"`
}

// SignMessageResponse is the provider's reply to a message signing request.
type SignMessageResponse struct {
	Success bool              `json:"success"`
	Result  SignMessageResult `json:"result"`
	Error   string            `json:"error,omitempty"`
}

// Provider is the external wallet boundary. Implementations own all key
// material and signing; the adapter only forwards and translates.
type Provider interface {
	Connect(ctx context.Context) (*ConnectResponse, error)
	Account(ctx context.Context) (string, error)
	PublicKey(ctx context.Context) (string, error)
	IsConnected(ctx context.Context) (bool, error)
	Disconnect(ctx context.Context) error
	SignTransaction(ctx context.Context, payload schema.TransactionPayload, opts schema.SignOptions) ([]byte, error)
	SignAndSubmit(ctx context.Context, payload schema.TransactionPayload, opts schema.SignOptions) (*SubmitResponse, error)
	SignMessage(ctx context.Context, message string) (*SignMessageResponse, error)
}

// Locator performs provider discovery. Detect returns a nil Provider without
// error while the provider has not appeared yet; the adapter polls until a
// bounded number of attempts is exhausted.
type Locator interface {
	Detect(ctx context.Context) (Provider, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context) (Provider, error)

// Detect implements Locator.
func (f LocatorFunc) Detect(ctx context.Context) (Provider, error) {
	return f(ctx)
}

// StaticLocator returns a locator that always resolves to the given provider.
func StaticLocator(p Provider) Locator {
	return LocatorFunc(func(context.Context) (Provider, error) {
		return p, nil
	})
}
