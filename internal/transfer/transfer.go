// ABOUTME: One-shot ownership handoff from the proxy identity to the owning principal
// ABOUTME: Consumes the single-use transfer capability; replay and re-transfer both fail

package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/warden/internal/address"
	"github.com/2389/warden/internal/capability"
	"github.com/2389/warden/internal/store"
)

// ErrAlreadyOwned is returned when the target record has already left the
// proxy identity's hands.
var ErrAlreadyOwned = errors.New("record already owned by a principal")

// Protocol executes the HeldByProxy -> OwnedByPrincipal transition. The
// transition fires exactly once per record, immediately after creation.
type Protocol struct {
	store  store.Store
	minter *capability.Minter
	proxy  address.Address
	logger *slog.Logger
}

// NewProtocol creates a transfer protocol acting for the given proxy address.
func NewProtocol(s store.Store, minter *capability.Minter, proxy address.Address) *Protocol {
	return &Protocol{
		store:  s,
		minter: minter,
		proxy:  proxy,
		logger: slog.Default().With("component", "transfer"),
	}
}

// Execute consumes cap and hands the record it is bound to over to owner.
// The capability is spent whether or not the handoff succeeds afterwards;
// a second Execute with the same capability fails with ErrCapConsumed, as
// does any replay of the underlying nonce through a copied handle.
func (p *Protocol) Execute(ctx context.Context, cap *capability.TransferCap, owner address.Address) error {
	handle, nonce, err := cap.Take()
	if err != nil {
		return err
	}

	target := cap.Target()
	if _, err := p.minter.Verify(handle, capability.OpTransfer, target); err != nil {
		return fmt.Errorf("verifying transfer handle: %w", err)
	}

	if err := p.store.ConsumeTransferNonce(ctx, nonce); err != nil {
		if errors.Is(err, store.ErrNonceConsumed) {
			return capability.ErrCapConsumed
		}
		return fmt.Errorf("consuming transfer nonce: %w", err)
	}

	rec, err := p.store.GetRecord(ctx, target)
	if err != nil {
		return fmt.Errorf("loading record: %w", err)
	}
	if rec.OwnerAddress != p.proxy {
		return ErrAlreadyOwned
	}

	if err := p.store.SetRecordOwner(ctx, target, owner); err != nil {
		return fmt.Errorf("setting record owner: %w", err)
	}

	p.logger.Debug("ownership transferred", "record_address", target, "owner", owner)
	return nil
}
