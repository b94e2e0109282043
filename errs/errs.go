// Package errs provides structured error types shared across walletgate adapters.
package errs

import (
	"errors"
	"strconv"
	"strings"
)

// Code identifies a wallet-adapter error category.
type Code string

const (
	// CodeNotReady indicates the wallet provider is absent or not yet detected.
	CodeNotReady Code = "not_ready"
	// CodeNotConnected indicates an operation was attempted without an active session.
	CodeNotConnected Code = "not_connected"
	// CodeConnectionRejected indicates the provider refused or aborted a connection attempt.
	CodeConnectionRejected Code = "connection_rejected"
	// CodeDisconnectionFailed indicates the provider-side disconnect call failed.
	CodeDisconnectionFailed Code = "disconnection_failed"
	// CodeSignTransactionFailed indicates a transaction signing failure.
	CodeSignTransactionFailed Code = "sign_transaction_failed"
	// CodeSignAndSubmitFailed indicates a combined sign-and-submit failure.
	CodeSignAndSubmitFailed Code = "sign_and_submit_failed"
	// CodeSignMessageFailed indicates a message signing failure.
	CodeSignMessageFailed Code = "sign_message_failed"
	// CodeInvalid indicates invalid input provided by the caller.
	CodeInvalid Code = "invalid_request"
	// CodeUnavailable indicates a framework component is unavailable or shut down.
	CodeUnavailable Code = "unavailable"
)

// E captures structured error information produced across the walletgate stack.
type E struct {
	Wallet  string
	Code    Code
	Message string
	RawMsg  string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the wallet and error code.
func New(wallet string, code Code, opts ...Option) *E {
	e := &E{
		Wallet:  strings.TrimSpace(wallet),
		Code:    code,
		Message: "",
		RawMsg:  "",
		cause:   nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithRawMessage captures the raw provider error message.
func WithRawMessage(msg string) Option {
	return func(e *E) {
		e.RawMsg = msg
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	wallet := strings.TrimSpace(e.Wallet)
	if wallet == "" {
		wallet = "unknown"
	}
	parts = append(parts, "wallet="+wallet)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.RawMsg != "" {
		parts = append(parts, "raw_msg="+strconv.Quote(e.RawMsg))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// NotReady returns a standardized error for an undetected or absent provider.
func NotReady(wallet string) *E {
	return New(wallet, CodeNotReady, WithMessage("wallet provider not detected"))
}

// NotConnected returns a standardized error for operations without an active session.
func NotConnected(wallet string) *E {
	return New(wallet, CodeNotConnected, WithMessage("wallet not connected"))
}

// CodeOf extracts the error code from err, or empty when err carries no envelope.
func CodeOf(err error) Code {
	var e *E
	if errors.As(err, &e) && e != nil {
		return e.Code
	}
	return ""
}

// Is reports whether err carries the given wallet error code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
