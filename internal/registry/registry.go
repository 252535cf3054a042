// ABOUTME: Record Registry enforcing one record per owning principal
// ABOUTME: Creates, renames, and probes records at deterministic addresses, gated by capability handles

package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/warden/internal/address"
	"github.com/2389/warden/internal/capability"
	"github.com/2389/warden/internal/metrics"
	"github.com/2389/warden/internal/store"
	"github.com/2389/warden/internal/transfer"
	"github.com/2389/warden/internal/vault"
)

// NameUpperBound is the maximum display-name length in bytes.
const NameUpperBound = 40

// Registry errors
var (
	// ErrNameTooLong rejects a display name over NameUpperBound bytes.
	// Recoverable: resubmit with a shorter name.
	ErrNameTooLong = errors.New("display name exceeds length bound")
	// ErrAlreadyExists rejects a second record for the same owner.
	// Not transient: retrying with the same owner cannot succeed.
	ErrAlreadyExists = errors.New("owner already has a record")
	// ErrUnavailable rejects an operation on a record that does not exist.
	ErrUnavailable = errors.New("owner has no record")
)

// Principal identifies a caller: an opaque identifier supplied by the
// enclosing identity system and the address it maps to.
type Principal struct {
	ID      string
	Address address.Address
}

// Registry creates and mutates records at addresses produced by the
// deterministic addresser. The one-record-per-owner invariant is enforced by
// the existence check at the derived address (and, under concurrency, by the
// address being the storage primary key), never by a side index.
type Registry struct {
	store         store.Store
	vault         *vault.Vault
	minter        *capability.Minter
	protocol      *transfer.Protocol
	namespaceName string
	nsAddr        address.Address
	proxy         address.Address
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// New creates a registry over a bootstrapped vault. The namespace must have
// been created at bootstrap; New fails if it is missing.
func New(ctx context.Context, s store.Store, v *vault.Vault, minter *capability.Minter, namespaceName string, m *metrics.Metrics) (*Registry, error) {
	nsAddr := address.Namespace(v.RootAddress(), namespaceName)
	if _, err := s.GetNamespace(ctx, nsAddr); err != nil {
		return nil, fmt.Errorf("loading namespace %q: %w", namespaceName, err)
	}

	return &Registry{
		store:         s,
		vault:         v,
		minter:        minter,
		protocol:      transfer.NewProtocol(s, minter, v.ProxyAddress()),
		namespaceName: namespaceName,
		nsAddr:        nsAddr,
		proxy:         v.ProxyAddress(),
		logger:        slog.Default().With("component", "registry"),
		metrics:       m,
	}, nil
}

// RecordAddress returns the deterministic address an owner's record lives at,
// whether or not one exists. Pure read; safe for any identifier.
func (r *Registry) RecordAddress(ownerID string) address.Address {
	return address.Record(r.proxy, r.namespaceName, ownerID)
}

// NamespaceAddress returns the namespace's own deterministic address.
func (r *Registry) NamespaceAddress() address.Address {
	return r.nsAddr
}

// HasRecord reports whether a record exists for the given owner identifier.
func (r *Registry) HasRecord(ctx context.Context, ownerID string) (bool, error) {
	return r.store.RecordExists(ctx, r.RecordAddress(ownerID))
}

// Lookup returns the record owned by ownerID.
// Returns ErrUnavailable if the owner has no record.
func (r *Registry) Lookup(ctx context.Context, ownerID string) (*store.Record, error) {
	rec, err := r.store.GetRecord(ctx, r.RecordAddress(ownerID))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	return rec, nil
}

// Create makes the owner's single record, mints its capability handles, and
// hands ownership over via the transfer protocol. Preconditions fail before
// any state changes; a failed create leaves nothing behind and emits no event.
func (r *Registry) Create(ctx context.Context, owner Principal, displayName string) error {
	if len(displayName) > NameUpperBound {
		r.metrics.IncCreateFailure("name_too_long")
		return ErrNameTooLong
	}

	addr := r.RecordAddress(owner.ID)
	exists, err := r.store.RecordExists(ctx, addr)
	if err != nil {
		return fmt.Errorf("checking record existence: %w", err)
	}
	if exists {
		r.metrics.IncCreateFailure("already_exists")
		return ErrAlreadyExists
	}

	signer, err := r.vault.DelegatedSigner()
	if err != nil {
		return fmt.Errorf("obtaining delegated signer: %w", err)
	}

	mutate, destroy, err := signer.MintRecordHandles(addr)
	if err != nil {
		return fmt.Errorf("minting record handles: %w", err)
	}
	cap, err := signer.MintTransferCap(addr)
	if err != nil {
		return fmt.Errorf("minting transfer capability: %w", err)
	}
	if err := r.store.RegisterTransferNonce(ctx, cap.Nonce(), addr); err != nil {
		return fmt.Errorf("registering transfer nonce: %w", err)
	}

	rec := &store.Record{
		Address:          addr,
		NamespaceAddress: r.nsAddr,
		OwnerID:          owner.ID,
		OwnerAddress:     signer.ProxyAddress(),
		DisplayName:      displayName,
		MutateHandle:     mutate,
		DestroyHandle:    destroy,
	}
	if err := r.store.InstallRecord(ctx, rec); err != nil {
		// The winner's record must stay, but our nonce has no record to serve.
		if derr := r.store.DeleteTransferNonce(ctx, cap.Nonce()); derr != nil {
			r.logger.Error("failed to discard transfer nonce", "record_address", addr, "error", derr)
		}
		if errors.Is(err, store.ErrRecordExists) {
			// Lost a race against a concurrent create for the same owner; the
			// primary key at the derived address keeps the invariant.
			r.metrics.IncCreateFailure("already_exists")
			return ErrAlreadyExists
		}
		return fmt.Errorf("installing record: %w", err)
	}

	if err := r.protocol.Execute(ctx, cap, owner.Address); err != nil {
		return r.compensate(ctx, addr, cap.Nonce(), fmt.Errorf("transferring ownership: %w", err))
	}

	// Emitted only once the create has fully committed; a failed create emits
	// nothing. Fire-and-forget: a sink failure does not undo the create.
	if err := r.store.SaveEvent(ctx, &store.Event{
		Type:          store.EventTypeRecordCreated,
		RecordAddress: addr,
		OwnerID:       owner.ID,
		DerivedName:   addr.String(),
		DisplayName:   displayName,
		ActorAddress:  signer.ProxyAddress(),
	}); err != nil {
		r.logger.Warn("failed to append creation event", "record_address", addr, "error", err)
	}

	r.metrics.IncRecordsCreated()
	r.logger.Info("record created",
		"record_address", addr,
		"owner_id", owner.ID,
		"display_name", displayName,
	)
	return nil
}

// Rename overwrites only the display-name field of the owner's record, using
// the record's own mutate capability. No new handle is minted, the address
// does not change, and no event is emitted.
func (r *Registry) Rename(ctx context.Context, owner Principal, newName string) error {
	addr := r.RecordAddress(owner.ID)
	rec, err := r.store.GetRecord(ctx, addr)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrUnavailable
		}
		return fmt.Errorf("loading record: %w", err)
	}

	if len(newName) > NameUpperBound {
		return ErrNameTooLong
	}

	if _, err := r.minter.Verify(rec.MutateHandle, capability.OpMutate, addr); err != nil {
		return fmt.Errorf("verifying mutate handle: %w", err)
	}

	if err := r.store.UpdateRecordName(ctx, addr, newName); err != nil {
		return fmt.Errorf("updating record name: %w", err)
	}

	r.metrics.IncRenames()
	r.logger.Info("record renamed", "record_address", addr, "owner_id", owner.ID)
	return nil
}

// compensate removes the partially created record and its transfer nonce so a
// failed create leaves no externally observable state, then returns the
// original error.
func (r *Registry) compensate(ctx context.Context, addr address.Address, nonce string, cause error) error {
	if err := r.store.DeleteRecord(ctx, addr); err != nil {
		r.logger.Error("failed to roll back partial create", "record_address", addr, "error", err)
	}
	if err := r.store.DeleteTransferNonce(ctx, nonce); err != nil {
		r.logger.Error("failed to discard transfer nonce", "record_address", addr, "error", err)
	}
	return cause
}
