// Package adapters wires built-in wallet providers into the locator registry.
package adapters

import (
	"github.com/coachpo/walletgate/internal/adapters/bridge"
	"github.com/coachpo/walletgate/internal/adapters/fake"
	"github.com/coachpo/walletgate/internal/adapters/scripted"
	"github.com/coachpo/walletgate/internal/wallet"
)

// RegisterAll installs every built-in provider factory into the registry.
func RegisterAll(reg *wallet.Registry) {
	if reg == nil {
		return
	}
	bridge.RegisterFactory(reg)
	fake.RegisterFactory(reg)
	scripted.RegisterFactory(reg)
}
