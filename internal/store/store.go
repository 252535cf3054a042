// ABOUTME: Store interface and data types for warden persistence
// ABOUTME: Defines Record, Namespace, VaultState structs and the keyed-storage primitives

package store

import (
	"context"
	"errors"
	"time"

	"github.com/2389/warden/internal/address"
)

// Store errors
var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrRecordExists      = errors.New("record already exists at address")
	ErrNamespaceNotFound = errors.New("namespace not found")
	ErrNamespaceExists   = errors.New("namespace already exists")
	ErrVaultNotFound     = errors.New("vault not bootstrapped")
	ErrVaultExists       = errors.New("vault already bootstrapped")
	ErrNonceNotFound     = errors.New("transfer nonce not found")
	ErrNonceConsumed     = errors.New("transfer nonce already consumed")
)

// VaultState is the process-wide singleton holding the proxy identity and its
// long-lived extend capability handle. Written exactly once at bootstrap and
// read-only afterwards.
type VaultState struct {
	ProxyAddress address.Address
	RootAddress  address.Address
	ExtendHandle string
	CreatedAt    time.Time
}

// Namespace is the record collection. Created once at bootstrap; its
// metadata is immutable.
type Namespace struct {
	Address      address.Address
	Name         string
	Description  string
	DisplayURI   string
	OwnerAddress address.Address
	CreatedAt    time.Time
}

// Record is the single owned entity per principal. OwnerAddress is the
// storage-layer owner: the proxy address between install and transfer
// (never externally observable), the principal's address afterwards.
type Record struct {
	Address          address.Address
	NamespaceAddress address.Address
	OwnerID          string
	OwnerAddress     address.Address
	DisplayName      string
	MutateHandle     string
	DestroyHandle    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EventType categorizes registry domain events.
type EventType string

const (
	EventTypeRecordCreated EventType = "record_created"
)

// Event is an append-only registry event.
type Event struct {
	ID            string
	Type          EventType
	RecordAddress address.Address
	OwnerID       string
	DerivedName   string
	DisplayName   string
	ActorAddress  address.Address
	Timestamp     time.Time
}

// Store defines the persistent keyed-storage substrate: store-at-address,
// exists-at-address, and mutate-at-address, each atomic per call.
type Store interface {
	// Vault singleton
	GetVault(ctx context.Context) (*VaultState, error)
	PutVault(ctx context.Context, v *VaultState) error

	// Namespace
	PutNamespace(ctx context.Context, ns *Namespace) error
	GetNamespace(ctx context.Context, addr address.Address) (*Namespace, error)

	// Records
	InstallRecord(ctx context.Context, rec *Record) error
	GetRecord(ctx context.Context, addr address.Address) (*Record, error)
	RecordExists(ctx context.Context, addr address.Address) (bool, error)
	UpdateRecordName(ctx context.Context, addr address.Address, name string) error
	SetRecordOwner(ctx context.Context, addr, owner address.Address) error
	DeleteRecord(ctx context.Context, addr address.Address) error

	// Transfer nonces (single consumption each)
	RegisterTransferNonce(ctx context.Context, nonce string, record address.Address) error
	ConsumeTransferNonce(ctx context.Context, nonce string) error
	DeleteTransferNonce(ctx context.Context, nonce string) error

	// Events
	SaveEvent(ctx context.Context, event *Event) error
	ListEvents(ctx context.Context, limit int) ([]*Event, error)

	// Close releases any resources held by the store
	Close() error
}
