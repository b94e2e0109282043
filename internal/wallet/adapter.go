package wallet

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/coachpo/walletgate/errs"
	"github.com/coachpo/walletgate/internal/bus/eventbus"
	"github.com/coachpo/walletgate/internal/observability"
	"github.com/coachpo/walletgate/internal/schema"
	"github.com/coachpo/walletgate/internal/telemetry"
)

const (
	defaultDetectInterval = 500 * time.Millisecond
	defaultDetectAttempts = 20
	defaultConnectTimeout = 10 * time.Second

	msgConnectionRejected = "wallet connection rejected"
	msgSignMessageFailed  = "message signing failed"
	msgSignSubmitFailed   = "sign and submit failed"

	opConnect       = "connect"
	opDisconnect    = "disconnect"
	opSignTx        = "sign_transaction"
	opSignAndSubmit = "sign_and_submit_transaction"
	opSignMessage   = "sign_message"
)

// Options configures a wallet adapter instance.
type Options struct {
	Name string

	// Timeout is the connection timeout carried for contract compatibility.
	// Enforcement belongs to the caller or the provider, not the adapter.
	Timeout time.Duration

	DetectInterval time.Duration
	DetectAttempts uint

	Locator Locator
	Bus     eventbus.Bus
	Logger  observability.Logger
}

func (o Options) withDefaults() Options {
	o.Name = strings.TrimSpace(o.Name)
	if o.Name == "" {
		o.Name = "wallet"
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultConnectTimeout
	}
	if o.DetectInterval <= 0 {
		o.DetectInterval = defaultDetectInterval
	}
	if o.DetectAttempts == 0 {
		o.DetectAttempts = defaultDetectAttempts
	}
	if o.Logger == nil {
		o.Logger = observability.Log()
	}
	return o
}

// Adapter is a stateful proxy over an external wallet provider. It detects
// provider presence, forwards connect/disconnect/sign operations, caches the
// active account identifiers, and publishes lifecycle events.
type Adapter struct {
	name           string
	timeout        time.Duration
	detectInterval time.Duration
	detectAttempts uint

	locator Locator
	bus     eventbus.Bus
	log     observability.Logger
	metrics *telemetry.AdapterMetrics

	clock func() time.Time

	mu         sync.Mutex
	provider   Provider
	account    *schema.AccountInfo
	readyState schema.ReadyState
	connecting bool
}

// NewAdapter constructs an adapter. A nil Locator marks the provider
// environment permanently unsupported; otherwise detection starts from
// NotDetected and RunDetection polls until the provider appears.
func NewAdapter(opts Options) *Adapter {
	opts = opts.withDefaults()

	a := new(Adapter)
	a.name = opts.Name
	a.timeout = opts.Timeout
	a.detectInterval = opts.DetectInterval
	a.detectAttempts = opts.DetectAttempts
	a.locator = opts.Locator
	a.bus = opts.Bus
	a.log = opts.Logger
	a.metrics = telemetry.NewAdapterMetrics()
	a.clock = time.Now

	if a.locator == nil {
		a.readyState = schema.ReadyStateUnsupported
	} else {
		a.readyState = schema.ReadyStateNotDetected
	}
	return a
}

// Name returns the wallet name.
func (a *Adapter) Name() string { return a.name }

// ReadyState reports the adapter's belief about provider availability.
func (a *Adapter) ReadyState() schema.ReadyState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.readyState
}

// Connected reports whether an active session record exists.
func (a *Adapter) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.account != nil
}

// Connecting reports whether a connection attempt is in flight.
func (a *Adapter) Connecting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connecting
}

// PublicAccount returns a copy of the cached account identifiers; the zero
// value when no session is active.
func (a *Adapter) PublicAccount() schema.AccountInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.account == nil {
		return schema.AccountInfo{}
	}
	return *a.account
}

// Connect establishes a session with the provider. Calls made while a session
// exists or another connect is in flight return immediately without touching
// the provider.
func (a *Adapter) Connect(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a.mu.Lock()
	if a.connecting || a.account != nil {
		a.mu.Unlock()
		return nil
	}
	if !a.readyState.Usable() || a.provider == nil {
		a.mu.Unlock()
		err := errs.NotReady(a.name)
		a.rejectConnect(ctx, err)
		return err
	}
	a.connecting = true
	provider := a.provider
	a.mu.Unlock()

	start := a.clock()
	err := a.establishSession(ctx, provider)

	a.mu.Lock()
	a.connecting = false
	a.mu.Unlock()

	if err != nil {
		a.metrics.RecordOperation(ctx, a.name, opConnect, telemetry.ResultFailure, a.clock().Sub(start))
		a.rejectConnect(ctx, err)
		return err
	}
	a.metrics.RecordOperation(ctx, a.name, opConnect, telemetry.ResultSuccess, a.clock().Sub(start))
	return nil
}

// establishSession drives the provider handshake and populates the record.
func (a *Adapter) establishSession(ctx context.Context, provider Provider) error {
	// Tear down any stale provider session before establishing new state.
	// Teardown failures at this step are not fatal; the fresh connect proceeds.
	if connected, err := provider.IsConnected(ctx); err == nil && connected {
		if derr := provider.Disconnect(ctx); derr != nil {
			a.log.Debug("stale session teardown failed", observability.String("wallet", a.name), observability.Err(derr))
		}
	}

	resp, err := provider.Connect(ctx)
	if err != nil {
		return errs.New(a.name, errs.CodeConnectionRejected, errs.WithMessage(msgConnectionRejected), errs.WithCause(err))
	}
	if resp == nil {
		return errs.NotConnected(a.name)
	}

	address, err := provider.Account(ctx)
	if err != nil {
		return errs.New(a.name, errs.CodeConnectionRejected, errs.WithMessage(msgConnectionRejected), errs.WithCause(err))
	}

	if strings.TrimSpace(address) != "" {
		publicKey, err := provider.PublicKey(ctx)
		if err != nil {
			return errs.New(a.name, errs.CodeConnectionRejected, errs.WithMessage(msgConnectionRejected), errs.WithCause(err))
		}
		a.mu.Lock()
		a.account = &schema.AccountInfo{Address: address, PublicKey: publicKey, AuthKey: ""}
		a.mu.Unlock()
	}

	// The connect event fires even when the address fetch came back empty; the
	// record stays unset in that case and callers observe Connected()==false.
	a.emit(ctx, eventbus.Event{Type: eventbus.EventConnect, Address: address})
	return nil
}

// Disconnect clears the local session record first, then asks the provider to
// disconnect. Provider-side failures are reported via an error event and never
// re-raised; the disconnect event always fires.
func (a *Adapter) Disconnect(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := a.clock()

	a.mu.Lock()
	record := a.account
	a.account = nil
	provider := a.provider
	a.mu.Unlock()

	if record != nil && provider != nil {
		if err := provider.Disconnect(ctx); err != nil {
			wrapped := errs.New(a.name, errs.CodeDisconnectionFailed, errs.WithMessage("wallet disconnection failed"), errs.WithCause(err))
			a.surface(ctx, errs.CodeDisconnectionFailed, wrapped)
		}
	}

	a.emit(ctx, eventbus.Event{Type: eventbus.EventDisconnect})
	a.metrics.RecordOperation(ctx, a.name, opDisconnect, telemetry.ResultSuccess, a.clock().Sub(start))
	return nil
}

// SignTransaction forwards the payload verbatim and returns the provider's raw
// signed bytes.
func (a *Adapter) SignTransaction(ctx context.Context, payload schema.TransactionPayload, opts schema.SignOptions) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := a.clock()

	provider, err := a.sessionProvider()
	if err != nil {
		a.surface(ctx, errs.CodeSignTransactionFailed, err)
		return nil, err
	}

	signed, err := provider.SignTransaction(ctx, payload, opts)
	if err != nil {
		a.metrics.RecordOperation(ctx, a.name, opSignTx, telemetry.ResultFailure, a.clock().Sub(start))
		a.surface(ctx, errs.CodeSignTransactionFailed, err)
		return nil, err
	}
	a.metrics.RecordOperation(ctx, a.name, opSignTx, telemetry.ResultSuccess, a.clock().Sub(start))
	return signed, nil
}

// SignAndSubmitTransaction forwards to the provider's combined operation and
// returns the submitted transaction hash.
func (a *Adapter) SignAndSubmitTransaction(ctx context.Context, payload schema.TransactionPayload, opts schema.SignOptions) (schema.PendingTransaction, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := a.clock()

	provider, err := a.sessionProvider()
	if err != nil {
		a.surface(ctx, errs.CodeSignAndSubmitFailed, err)
		return schema.PendingTransaction{}, err
	}

	resp, err := provider.SignAndSubmit(ctx, payload, opts)
	if err != nil {
		a.metrics.RecordOperation(ctx, a.name, opSignAndSubmit, telemetry.ResultFailure, a.clock().Sub(start))
		a.surface(ctx, errs.CodeSignAndSubmitFailed, err)
		return schema.PendingTransaction{}, err
	}
	if resp == nil || !resp.Success {
		msg := msgSignSubmitFailed
		raw := ""
		if resp != nil && strings.TrimSpace(resp.Error) != "" {
			msg = resp.Error
			raw = resp.Error
		}
		failure := errs.New(a.name, errs.CodeSignAndSubmitFailed, errs.WithMessage(msg), errs.WithRawMessage(raw))
		a.metrics.RecordOperation(ctx, a.name, opSignAndSubmit, telemetry.ResultFailure, a.clock().Sub(start))
		a.surface(ctx, errs.CodeSignAndSubmitFailed, failure)
		return schema.PendingTransaction{}, failure
	}

	a.metrics.RecordOperation(ctx, a.name, opSignAndSubmit, telemetry.ResultSuccess, a.clock().Sub(start))
	return schema.PendingTransaction{Hash: resp.Result.Hash}, nil
}

// SignMessage forwards the message and returns the signed hex string.
func (a *Adapter) SignMessage(ctx context.Context, message string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := a.clock()

	provider, err := a.sessionProvider()
	if err != nil {
		a.surface(ctx, errs.CodeSignMessageFailed, err)
		return "", err
	}

	resp, err := provider.SignMessage(ctx, message)
	if err != nil {
		a.metrics.RecordOperation(ctx, a.name, opSignMessage, telemetry.ResultFailure, a.clock().Sub(start))
		a.surface(ctx, errs.CodeSignMessageFailed, err)
		return "", err
	}
	if resp == nil || !resp.Success {
		raw := ""
		if resp != nil {
			raw = resp.Error
		}
		failure := errs.New(a.name, errs.CodeSignMessageFailed, errs.WithMessage(msgSignMessageFailed), errs.WithRawMessage(raw))
		a.metrics.RecordOperation(ctx, a.name, opSignMessage, telemetry.ResultFailure, a.clock().Sub(start))
		a.surface(ctx, errs.CodeSignMessageFailed, failure)
		return "", failure
	}

	a.metrics.RecordOperation(ctx, a.name, opSignMessage, telemetry.ResultSuccess, a.clock().Sub(start))
	return resp.Result.HexString, nil
}

// sessionProvider resolves the provider for session-bound operations.
func (a *Adapter) sessionProvider() (Provider, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.account == nil || a.provider == nil {
		return nil, errs.NotConnected(a.name)
	}
	return a.provider, nil
}

// rejectConnect publishes the fixed connection-rejection error event for a
// failed connect, keeping the original error for the caller.
func (a *Adapter) rejectConnect(ctx context.Context, cause error) {
	a.metrics.RecordError(ctx, a.name, string(errs.CodeOf(cause)))
	a.emit(ctx, eventbus.Event{
		Type:    eventbus.EventError,
		Code:    errs.CodeConnectionRejected,
		Message: msgConnectionRejected,
	})
	a.log.Error("wallet connect failed", observability.String("wallet", a.name), observability.Err(cause))
}

// surface publishes an error event carrying the operation-specific error kind.
func (a *Adapter) surface(ctx context.Context, code errs.Code, err error) {
	a.metrics.RecordError(ctx, a.name, string(code))
	a.emit(ctx, eventbus.Event{
		Type:    eventbus.EventError,
		Code:    code,
		Message: messageOf(err),
	})
	a.log.Error("wallet operation failed", observability.String("wallet", a.name), observability.String("code", string(code)), observability.Err(err))
}

func (a *Adapter) emit(ctx context.Context, evt eventbus.Event) {
	if a.bus == nil {
		return
	}
	evt.Wallet = a.name
	evt.Time = a.clock()
	if err := a.bus.Publish(ctx, evt); err != nil {
		a.log.Error("lifecycle event publish failed", observability.String("wallet", a.name), observability.String("event_type", string(evt.Type)), observability.Err(err))
	}
}

// messageOf extracts a stable message from any error shape. Providers are not
// trusted to raise structured envelopes.
func messageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *errs.E
	if errors.As(err, &e) && e != nil && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
