// ABOUTME: Single-use transfer capability consumed exactly once per record
// ABOUTME: Take marks the value used; the store-side nonce closes replay across values

package capability

import (
	"errors"
	"fmt"
	"sync"

	"github.com/2389/warden/internal/address"
)

// ErrCapConsumed is returned when a transfer capability is used a second time.
var ErrCapConsumed = errors.New("transfer capability already consumed")

// TransferCap is the single-use capability minted alongside a record that
// authorizes the one-shot handoff from the proxy identity to the owning
// principal. It is move-only in spirit: Take succeeds once, and the nonce it
// yields is additionally consumed in the store so a copied handle cannot be
// replayed through a second value.
type TransferCap struct {
	mu     sync.Mutex
	handle string
	nonce  string
	target address.Address
	used   bool
}

// MintTransfer mints a fresh single-use transfer capability bound to target.
// The returned nonce must be registered with the store before the capability
// can be consumed.
func (m *Minter) MintTransfer(target address.Address) (*TransferCap, error) {
	handle, err := m.Mint(OpTransfer, target)
	if err != nil {
		return nil, err
	}
	nonce, err := m.Verify(handle, OpTransfer, target)
	if err != nil {
		return nil, fmt.Errorf("verifying freshly minted handle: %w", err)
	}
	return &TransferCap{handle: handle, nonce: nonce, target: target}, nil
}

// Target returns the record address this capability is bound to.
func (c *TransferCap) Target() address.Address {
	return c.target
}

// Nonce returns the capability's unique ID for store-side registration.
func (c *TransferCap) Nonce() string {
	return c.nonce
}

// Take yields the underlying handle and nonce, marking the capability
// consumed. A second Take fails with ErrCapConsumed.
func (c *TransferCap) Take() (handle, nonce string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.used {
		return "", "", ErrCapConsumed
	}
	c.used = true
	return c.handle, c.nonce, nil
}
