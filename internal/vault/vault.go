// ABOUTME: Capability Vault holding the proxy identity's long-lived extend handle
// ABOUTME: Bootstrap runs once per deployment; DelegatedSigner reconstitutes signing authority

package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/warden/internal/address"
	"github.com/2389/warden/internal/capability"
	"github.com/2389/warden/internal/store"
)

// Vault errors
var (
	// ErrAlreadyBootstrapped signals a double bootstrap. This is a
	// deployment-integrity error: the operation aborts with no partial state.
	ErrAlreadyBootstrapped = errors.New("vault already bootstrapped")
	// ErrNotBootstrapped is returned when the vault has no stored state.
	ErrNotBootstrapped = errors.New("vault not bootstrapped")
)

// BootstrapParams carries the one-time setup inputs: the root identity and
// the namespace's immutable metadata.
type BootstrapParams struct {
	Root                 address.Address
	NamespaceName        string
	NamespaceDescription string
	NamespaceDisplayURI  string
}

// Vault owns exactly one long-lived extend capability handle for the proxy
// identity. The handle is read-shared by every privileged operation and never
// mutated after bootstrap; there is no teardown path.
type Vault struct {
	store  store.Store
	minter *capability.Minter
	state  *store.VaultState
	logger *slog.Logger
}

// Bootstrap performs the one-time deployment setup: derives the proxy
// identity's address, mints its extend handle, persists the vault singleton,
// and creates the namespace under the freshly delegated signer's authority.
// A second invocation fails with ErrAlreadyBootstrapped.
func Bootstrap(ctx context.Context, s store.Store, minter *capability.Minter, p BootstrapParams) (*Vault, error) {
	logger := slog.Default().With("component", "vault")

	if p.NamespaceName == "" {
		return nil, errors.New("namespace name required")
	}

	proxy := address.Proxy(p.Root)
	extend, err := minter.Mint(capability.OpExtend, proxy)
	if err != nil {
		return nil, fmt.Errorf("minting extend handle: %w", err)
	}

	state := &store.VaultState{
		ProxyAddress: proxy,
		RootAddress:  p.Root,
		ExtendHandle: extend,
	}
	if err := s.PutVault(ctx, state); err != nil {
		if errors.Is(err, store.ErrVaultExists) {
			return nil, ErrAlreadyBootstrapped
		}
		return nil, fmt.Errorf("persisting vault: %w", err)
	}

	v := &Vault{store: s, minter: minter, state: state, logger: logger}

	// The namespace is created immediately, owned by the proxy identity,
	// under the delegated signer this bootstrap just made possible.
	signer, err := v.DelegatedSigner()
	if err != nil {
		return nil, fmt.Errorf("reconstituting signer: %w", err)
	}

	ns := &store.Namespace{
		Address:      address.Namespace(p.Root, p.NamespaceName),
		Name:         p.NamespaceName,
		Description:  p.NamespaceDescription,
		DisplayURI:   p.NamespaceDisplayURI,
		OwnerAddress: signer.ProxyAddress(),
	}
	if err := s.PutNamespace(ctx, ns); err != nil {
		if errors.Is(err, store.ErrNamespaceExists) {
			return nil, ErrAlreadyBootstrapped
		}
		return nil, fmt.Errorf("creating namespace: %w", err)
	}

	logger.Info("bootstrap complete",
		"proxy_address", proxy,
		"namespace", p.NamespaceName,
		"namespace_address", ns.Address,
	)
	return v, nil
}

// Open loads an already bootstrapped vault from the store.
// Returns ErrNotBootstrapped if no vault state exists.
func Open(ctx context.Context, s store.Store, minter *capability.Minter) (*Vault, error) {
	state, err := s.GetVault(ctx)
	if err != nil {
		if errors.Is(err, store.ErrVaultNotFound) {
			return nil, ErrNotBootstrapped
		}
		return nil, fmt.Errorf("loading vault: %w", err)
	}

	return &Vault{
		store:  s,
		minter: minter,
		state:  state,
		logger: slog.Default().With("component", "vault"),
	}, nil
}

// ProxyAddress returns the proxy identity's derived address.
func (v *Vault) ProxyAddress() address.Address {
	return v.state.ProxyAddress
}

// RootAddress returns the root identity the deployment was bootstrapped under.
func (v *Vault) RootAddress() address.Address {
	return v.state.RootAddress
}

// DelegatedSigner reconstitutes a signer for the proxy identity from the
// stored extend handle. Internal callers only; never exposed to principals.
func (v *Vault) DelegatedSigner() (*Signer, error) {
	if v.state == nil {
		return nil, ErrNotBootstrapped
	}
	if _, err := v.minter.Verify(v.state.ExtendHandle, capability.OpExtend, v.state.ProxyAddress); err != nil {
		return nil, fmt.Errorf("verifying extend handle: %w", err)
	}
	return &Signer{proxy: v.state.ProxyAddress, minter: v.minter}, nil
}

// Signer is the short-lived acting authority exchanged for the vault's
// extend handle. It creates records on the proxy identity's behalf and mints
// the per-record capability handles.
type Signer struct {
	proxy  address.Address
	minter *capability.Minter
}

// ProxyAddress returns the address the signer acts as.
func (s *Signer) ProxyAddress() address.Address {
	return s.proxy
}

// MintRecordHandles mints the mutate and destroy handles bound to a record.
func (s *Signer) MintRecordHandles(rec address.Address) (mutate, destroy string, err error) {
	mutate, err = s.minter.Mint(capability.OpMutate, rec)
	if err != nil {
		return "", "", fmt.Errorf("minting mutate handle: %w", err)
	}
	destroy, err = s.minter.Mint(capability.OpDestroy, rec)
	if err != nil {
		return "", "", fmt.Errorf("minting destroy handle: %w", err)
	}
	return mutate, destroy, nil
}

// MintTransferCap mints the single-use transfer capability for a record.
func (s *Signer) MintTransferCap(rec address.Address) (*capability.TransferCap, error) {
	return s.minter.MintTransfer(rec)
}
