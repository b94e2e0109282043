// Package fake implements a deterministic in-memory wallet provider used for
// development and tests. Signatures are digests, not real cryptography.
package fake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coachpo/walletgate/internal/schema"
	"github.com/coachpo/walletgate/internal/wallet"
)

// Provider simulates a browser wallet extension.
type Provider struct {
	opts Options

	mu        sync.Mutex
	connected bool
}

// NewProvider constructs a fake provider.
func NewProvider(opts Options) *Provider {
	return &Provider{opts: withDefaults(opts)}
}

// NewLocator returns a locator that reports the provider absent for the first
// InjectAfter detection polls, then resolves it on every later poll.
func NewLocator(opts Options) wallet.Locator {
	p := NewProvider(opts)
	var polls atomic.Int64
	return wallet.LocatorFunc(func(context.Context) (wallet.Provider, error) {
		if polls.Add(1) <= int64(p.opts.InjectAfter) {
			return nil, nil
		}
		return p, nil
	})
}

func (p *Provider) simulate(ctx context.Context) error {
	if p.opts.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.opts.Latency):
		return nil
	}
}

// Connect opens a simulated session.
func (p *Provider) Connect(ctx context.Context) (*wallet.ConnectResponse, error) {
	if err := p.simulate(ctx); err != nil {
		return nil, err
	}
	if p.opts.ConnectErr != nil {
		return nil, p.opts.ConnectErr
	}
	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()
	return &wallet.ConnectResponse{
		Address:   p.opts.Address,
		PublicKey: p.opts.PublicKey,
		Method:    "connected",
		Status:    200,
	}, nil
}

// Account returns the simulated account address.
func (p *Provider) Account(ctx context.Context) (string, error) {
	if err := p.simulate(ctx); err != nil {
		return "", err
	}
	return p.opts.Address, nil
}

// PublicKey returns the simulated account public key.
func (p *Provider) PublicKey(ctx context.Context) (string, error) {
	if err := p.simulate(ctx); err != nil {
		return "", err
	}
	return p.opts.PublicKey, nil
}

// IsConnected reports the simulated session state.
func (p *Provider) IsConnected(ctx context.Context) (bool, error) {
	if err := p.simulate(ctx); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected || p.opts.AlreadyConnected, nil
}

// Disconnect closes the simulated session.
func (p *Provider) Disconnect(ctx context.Context) error {
	if err := p.simulate(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	p.connected = false
	p.opts.AlreadyConnected = false
	p.mu.Unlock()
	return p.opts.DisconnectErr
}

// SignTransaction returns a deterministic digest of the payload as the
// signed bytes.
func (p *Provider) SignTransaction(ctx context.Context, payload schema.TransactionPayload, _ schema.SignOptions) ([]byte, error) {
	if err := p.simulate(ctx); err != nil {
		return nil, err
	}
	if p.opts.SignErr != nil {
		return nil, p.opts.SignErr
	}
	sum := sha256.Sum256(payload)
	return sum[:], nil
}

// SignAndSubmit signs the payload and returns a derived transaction hash.
func (p *Provider) SignAndSubmit(ctx context.Context, payload schema.TransactionPayload, _ schema.SignOptions) (*wallet.SubmitResponse, error) {
	if err := p.simulate(ctx); err != nil {
		return nil, err
	}
	if p.opts.SignErr != nil {
		return nil, p.opts.SignErr
	}
	if p.opts.SubmitFailure != "" {
		return &wallet.SubmitResponse{Success: false, Error: p.opts.SubmitFailure}, nil
	}
	sum := sha256.Sum256(payload)
	return &wallet.SubmitResponse{
		Success: true,
		Result:  wallet.SubmitResult{Hash: "0x" + hex.EncodeToString(sum[:])},
	}, nil
}

// SignMessage signs the message and returns its digest as the hex string.
func (p *Provider) SignMessage(ctx context.Context, message string) (*wallet.SignMessageResponse, error) {
	if err := p.simulate(ctx); err != nil {
		return nil, err
	}
	if p.opts.SignErr != nil {
		return nil, p.opts.SignErr
	}
	if p.opts.SignMessageFailure != "" {
		return &wallet.SignMessageResponse{Success: false, Error: p.opts.SignMessageFailure}, nil
	}
	sum := sha256.Sum256([]byte(message))
	return &wallet.SignMessageResponse{
		Success: true,
		Result:  wallet.SignMessageResult{HexString: "0x" + hex.EncodeToString(sum[:])},
	}, nil
}
