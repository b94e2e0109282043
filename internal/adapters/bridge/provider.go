package bridge

import (
	"context"

	"github.com/coachpo/walletgate/internal/schema"
	"github.com/coachpo/walletgate/internal/wallet"
)

// Bridge method names mirror the adapter operation surface.
const (
	methodConnect       = "connect"
	methodAccount       = "account"
	methodPublicKey     = "publicKey"
	methodIsConnected   = "isConnected"
	methodDisconnect    = "disconnect"
	methodSignTx        = "signTransaction"
	methodSignAndSubmit = "signAndSubmitTransaction"
	methodSignMessage   = "signMessage"
)

type signParams struct {
	Payload schema.TransactionPayload `json:"payload"`
	Options schema.SignOptions        `json:"options,omitempty"`
}

type signMessageParams struct {
	Message string `json:"message"`
}

type signTxResult struct {
	SignedTxn []byte `json:"signedTxn"`
}

// Provider forwards wallet operations to the bridge over the shared client.
type Provider struct {
	client *Client
}

// NewProvider wraps an established bridge client.
func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

// Close releases the bridge connection.
func (p *Provider) Close() { p.client.Close() }

// Connect asks the bridge to open the extension session.
func (p *Provider) Connect(ctx context.Context) (*wallet.ConnectResponse, error) {
	resp := new(wallet.ConnectResponse)
	if err := p.client.Call(ctx, methodConnect, nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Account fetches the active account address.
func (p *Provider) Account(ctx context.Context) (string, error) {
	var address string
	if err := p.client.Call(ctx, methodAccount, nil, &address); err != nil {
		return "", err
	}
	return address, nil
}

// PublicKey fetches the active account public key.
func (p *Provider) PublicKey(ctx context.Context) (string, error) {
	var key string
	if err := p.client.Call(ctx, methodPublicKey, nil, &key); err != nil {
		return "", err
	}
	return key, nil
}

// IsConnected reports the bridge-side session state.
func (p *Provider) IsConnected(ctx context.Context) (bool, error) {
	var connected bool
	if err := p.client.Call(ctx, methodIsConnected, nil, &connected); err != nil {
		return false, err
	}
	return connected, nil
}

// Disconnect closes the bridge-side session.
func (p *Provider) Disconnect(ctx context.Context) error {
	return p.client.Call(ctx, methodDisconnect, nil, nil)
}

// SignTransaction forwards the payload and returns the signed bytes.
func (p *Provider) SignTransaction(ctx context.Context, payload schema.TransactionPayload, opts schema.SignOptions) ([]byte, error) {
	var result signTxResult
	if err := p.client.Call(ctx, methodSignTx, signParams{Payload: payload, Options: opts}, &result); err != nil {
		return nil, err
	}
	return result.SignedTxn, nil
}

// SignAndSubmit forwards the payload for combined signing and submission.
func (p *Provider) SignAndSubmit(ctx context.Context, payload schema.TransactionPayload, opts schema.SignOptions) (*wallet.SubmitResponse, error) {
	resp := new(wallet.SubmitResponse)
	if err := p.client.Call(ctx, methodSignAndSubmit, signParams{Payload: payload, Options: opts}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SignMessage forwards the message for signing.
func (p *Provider) SignMessage(ctx context.Context, message string) (*wallet.SignMessageResponse, error) {
	resp := new(wallet.SignMessageResponse)
	if err := p.client.Call(ctx, methodSignMessage, signMessageParams{Message: message}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// NewLocator returns a locator that treats an unreachable bridge as provider
// absence. Each detection poll attempts a fresh dial; the first successful
// handshake yields the provider.
func NewLocator(cfg ClientConfig) wallet.Locator {
	return wallet.LocatorFunc(func(ctx context.Context) (wallet.Provider, error) {
		client, err := Dial(ctx, cfg)
		if err != nil {
			// Unreachable bridge means the extension has not appeared yet.
			return nil, nil
		}
		return NewProvider(client), nil
	})
}
