package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormattingIncludesWalletAndCode(t *testing.T) {
	err := New(
		"petra",
		CodeSignAndSubmitFailed,
		WithMessage("sign and submit rejected"),
		WithRawMessage("user declined the request"),
		WithCause(errors.New("bridge: request cancelled")),
	)

	out := err.Error()
	if !strings.Contains(out, "wallet=petra") {
		t.Fatalf("expected wallet marker in error string: %s", out)
	}
	if !strings.Contains(out, "code=sign_and_submit_failed") {
		t.Fatalf("expected code marker in error string: %s", out)
	}
	if !strings.Contains(out, "message=\"sign and submit rejected\"") {
		t.Fatalf("expected message in error string: %s", out)
	}
	if !strings.Contains(out, "raw_msg=\"user declined the request\"") {
		t.Fatalf("expected raw provider message in error string: %s", out)
	}
	if !strings.Contains(out, "cause=\"bridge: request cancelled\"") {
		t.Fatalf("expected wrapped cause in error string: %s", out)
	}
}

func TestErrorFormattingDefaultsUnknownWallet(t *testing.T) {
	err := New("  ", CodeNotReady)
	if !strings.Contains(err.Error(), "wallet=unknown") {
		t.Fatalf("expected unknown wallet marker: %s", err.Error())
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("provider closed the session")
	err := New("martian", CodeDisconnectionFailed, WithCause(cause))
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to reach the cause")
	}
}

func TestCodeOfTraversesWrapping(t *testing.T) {
	inner := NotConnected("petra")
	wrapped := fmt.Errorf("sign transaction: %w", inner)

	if got := CodeOf(wrapped); got != CodeNotConnected {
		t.Fatalf("expected not_connected, got %q", got)
	}
	if !Is(wrapped, CodeNotConnected) {
		t.Fatalf("expected Is to match wrapped code")
	}
	if Is(wrapped, CodeNotReady) {
		t.Fatalf("unexpected code match for not_ready")
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Fatalf("expected empty code for plain error, got %q", got)
	}
}

func TestHelpersCarryStandardMessages(t *testing.T) {
	if err := NotReady("petra"); err.Code != CodeNotReady || err.Message == "" {
		t.Fatalf("unexpected not-ready envelope: %+v", err)
	}
	if err := NotConnected("petra"); err.Code != CodeNotConnected || err.Message == "" {
		t.Fatalf("unexpected not-connected envelope: %+v", err)
	}
}
