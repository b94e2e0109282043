package fake

import "time"

const (
	defaultAddress   = "0xfa4e000000000000000000000000000000000000000000000000000000000001"
	defaultPublicKey = "0xfa4e0000000000000000000000000000000000000000000000000000000000aa"
	defaultLatency   = 2 * time.Millisecond
)

// Options configures the fake wallet provider.
type Options struct {
	// Name labels the provider in logs.
	Name string

	// Address and PublicKey identify the simulated account.
	Address   string
	PublicKey string

	// InjectAfter is the number of detection polls that observe no provider
	// before the fake appears, simulating late extension injection.
	InjectAfter int

	// Latency is applied to every provider call.
	Latency time.Duration

	// AlreadyConnected starts the provider with a stale session, exercising
	// the adapter's teardown-before-connect path.
	AlreadyConnected bool

	// Failure injection. A non-nil error makes the matching operation fail.
	ConnectErr    error
	DisconnectErr error
	SignErr       error

	// SubmitFailure and SignMessageFailure, when non-empty, make the matching
	// operation return a success:false response carrying the given message.
	SubmitFailure      string
	SignMessageFailure string
}

func withDefaults(in Options) Options {
	if in.Name == "" {
		in.Name = "fake"
	}
	if in.Address == "" {
		in.Address = defaultAddress
	}
	if in.PublicKey == "" {
		in.PublicKey = defaultPublicKey
	}
	if in.Latency < 0 {
		in.Latency = defaultLatency
	}
	if in.InjectAfter < 0 {
		in.InjectAfter = 0
	}
	return in
}
