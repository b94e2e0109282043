// Package scripted implements a wallet provider whose behaviour is defined by
// a JavaScript module executed in an embedded Goja runtime. It exists for
// prototyping provider integrations without a running extension bridge.
package scripted

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"
	json "github.com/goccy/go-json"

	"github.com/coachpo/walletgate/internal/schema"
	"github.com/coachpo/walletgate/internal/wallet"
)

// Script export names. connect and signTransaction are required; the rest
// fall back to state captured from the connect response.
const (
	fnConnect       = "connect"
	fnAccount       = "account"
	fnPublicKey     = "publicKey"
	fnIsConnected   = "isConnected"
	fnDisconnect    = "disconnect"
	fnSignTx        = "signTransaction"
	fnSignAndSubmit = "signAndSubmitTransaction"
	fnSignMessage   = "signMessage"
)

// Provider executes wallet operations against a script instance.
type Provider struct {
	instance *Instance

	mu        sync.Mutex
	connected bool
	address   string
	publicKey string
}

// NewProvider wraps a compiled script instance. The script must export a
// connect function.
func NewProvider(instance *Instance) (*Provider, error) {
	if instance == nil {
		return nil, errors.New("scripted wallet: instance required")
	}
	if !instance.Has(fnConnect) {
		return nil, fmt.Errorf("scripted wallet: script must export %q", fnConnect)
	}
	return &Provider{instance: instance}, nil
}

// NewProviderFromSource compiles source and wraps the resulting instance.
func NewProviderFromSource(name, source string) (*Provider, error) {
	instance, err := NewInstance(name, source)
	if err != nil {
		return nil, err
	}
	p, err := NewProvider(instance)
	if err != nil {
		instance.Close()
		return nil, err
	}
	return p, nil
}

// Close releases the underlying script runtime.
func (p *Provider) Close() {
	p.instance.Close()
}

// decodeValue round-trips a script return value through JSON into out.
func decodeValue(value goja.Value, out any) error {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return errors.New("scripted wallet: script returned no value")
	}
	raw, err := json.Marshal(value.Export())
	if err != nil {
		return fmt.Errorf("scripted wallet: encode script value: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("scripted wallet: decode script value: %w", err)
	}
	return nil
}

// payloadArg converts the raw transaction payload into a script-friendly value.
func payloadArg(payload schema.TransactionPayload) (any, error) {
	if len(payload) == 0 {
		return map[string]any{}, nil
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("scripted wallet: decode payload: %w", err)
	}
	return decoded, nil
}

// Connect invokes the script's connect export and caches the identifiers.
func (p *Provider) Connect(ctx context.Context) (*wallet.ConnectResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, err := p.instance.Call(fnConnect)
	if err != nil {
		return nil, err
	}
	resp := new(wallet.ConnectResponse)
	if err := decodeValue(value, resp); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.connected = true
	p.address = resp.Address
	p.publicKey = resp.PublicKey
	p.mu.Unlock()
	return resp, nil
}

// Account returns the script's account export or the cached connect address.
func (p *Provider) Account(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !p.instance.Has(fnAccount) {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.address, nil
	}
	value, err := p.instance.Call(fnAccount)
	if err != nil {
		return "", err
	}
	var address string
	if err := decodeValue(value, &address); err != nil {
		return "", err
	}
	return address, nil
}

// PublicKey returns the script's publicKey export or the cached connect key.
func (p *Provider) PublicKey(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !p.instance.Has(fnPublicKey) {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.publicKey, nil
	}
	value, err := p.instance.Call(fnPublicKey)
	if err != nil {
		return "", err
	}
	var key string
	if err := decodeValue(value, &key); err != nil {
		return "", err
	}
	return key, nil
}

// IsConnected reports session state via the script or the cached flag.
func (p *Provider) IsConnected(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !p.instance.Has(fnIsConnected) {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.connected, nil
	}
	value, err := p.instance.Call(fnIsConnected)
	if err != nil {
		return false, err
	}
	var connected bool
	if err := decodeValue(value, &connected); err != nil {
		return false, err
	}
	return connected, nil
}

// Disconnect invokes the script's disconnect export when present and clears
// cached state.
func (p *Provider) Disconnect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var callErr error
	if p.instance.Has(fnDisconnect) {
		_, callErr = p.instance.Call(fnDisconnect)
	}
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	return callErr
}

// SignTransaction forwards the payload to the script and decodes the
// returned hex string into signed bytes.
func (p *Provider) SignTransaction(ctx context.Context, payload schema.TransactionPayload, opts schema.SignOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	arg, err := payloadArg(payload)
	if err != nil {
		return nil, err
	}
	value, err := p.instance.Call(fnSignTx, arg, map[string]any(opts))
	if err != nil {
		return nil, err
	}
	var encoded string
	if err := decodeValue(value, &encoded); err != nil {
		return nil, err
	}
	return decodeSigned(encoded)
}

// SignAndSubmit forwards to the script's combined export.
func (p *Provider) SignAndSubmit(ctx context.Context, payload schema.TransactionPayload, opts schema.SignOptions) (*wallet.SubmitResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	arg, err := payloadArg(payload)
	if err != nil {
		return nil, err
	}
	value, err := p.instance.Call(fnSignAndSubmit, arg, map[string]any(opts))
	if err != nil {
		return nil, err
	}
	resp := new(wallet.SubmitResponse)
	if err := decodeValue(value, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SignMessage forwards the message to the script.
func (p *Provider) SignMessage(ctx context.Context, message string) (*wallet.SignMessageResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, err := p.instance.Call(fnSignMessage, message)
	if err != nil {
		return nil, err
	}
	resp := new(wallet.SignMessageResponse)
	if err := decodeValue(value, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// decodeSigned interprets a script signature as hex when 0x-prefixed,
// otherwise as raw bytes.
func decodeSigned(encoded string) ([]byte, error) {
	trimmed := strings.TrimSpace(encoded)
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		raw, err := hex.DecodeString(trimmed[2:])
		if err != nil {
			return nil, fmt.Errorf("scripted wallet: decode signature: %w", err)
		}
		return raw, nil
	}
	return []byte(trimmed), nil
}
