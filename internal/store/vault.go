// ABOUTME: Persistence for the vault singleton row and the namespace collection
// ABOUTME: The vault row is written exactly once at bootstrap and read-only afterwards

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/2389/warden/internal/address"
)

// PutVault writes the vault singleton row. Returns ErrVaultExists if the
// deployment has already been bootstrapped.
func (s *SQLiteStore) PutVault(ctx context.Context, v *VaultState) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vault (singleton, proxy_address, root_address, extend_handle, created_at)
		 VALUES (1, ?, ?, ?, ?)`,
		v.ProxyAddress.String(),
		v.RootAddress.String(),
		v.ExtendHandle,
		v.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrVaultExists
		}
		return fmt.Errorf("inserting vault row: %w", err)
	}

	s.logger.Info("vault bootstrapped", "proxy_address", v.ProxyAddress)
	return nil
}

// GetVault reads the vault singleton row.
// Returns ErrVaultNotFound if the deployment has not been bootstrapped.
func (s *SQLiteStore) GetVault(ctx context.Context) (*VaultState, error) {
	var v VaultState
	var proxyStr, rootStr, createdAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT proxy_address, root_address, extend_handle, created_at FROM vault WHERE singleton = 1`,
	).Scan(&proxyStr, &rootStr, &v.ExtendHandle, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrVaultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying vault: %w", err)
	}

	if v.ProxyAddress, err = address.Parse(proxyStr); err != nil {
		return nil, fmt.Errorf("parsing proxy address: %w", err)
	}
	if v.RootAddress, err = address.Parse(rootStr); err != nil {
		return nil, fmt.Errorf("parsing root address: %w", err)
	}
	if v.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &v, nil
}

// PutNamespace stores the namespace at its derived address.
// Returns ErrNamespaceExists if the address is already occupied.
func (s *SQLiteStore) PutNamespace(ctx context.Context, ns *Namespace) error {
	if ns.CreatedAt.IsZero() {
		ns.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO namespaces (address, name, description, display_uri, owner_address, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ns.Address.String(),
		ns.Name,
		ns.Description,
		ns.DisplayURI,
		ns.OwnerAddress.String(),
		ns.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrNamespaceExists
		}
		return fmt.Errorf("inserting namespace: %w", err)
	}

	s.logger.Info("namespace created", "address", ns.Address, "name", ns.Name)
	return nil
}

// GetNamespace retrieves the namespace at the given address.
// Returns ErrNamespaceNotFound if the address is vacant.
func (s *SQLiteStore) GetNamespace(ctx context.Context, addr address.Address) (*Namespace, error) {
	var ns Namespace
	var addrStr, ownerStr, createdAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT address, name, description, display_uri, owner_address, created_at
		 FROM namespaces WHERE address = ?`, addr.String(),
	).Scan(&addrStr, &ns.Name, &ns.Description, &ns.DisplayURI, &ownerStr, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNamespaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying namespace: %w", err)
	}

	if ns.Address, err = address.Parse(addrStr); err != nil {
		return nil, fmt.Errorf("parsing namespace address: %w", err)
	}
	if ns.OwnerAddress, err = address.Parse(ownerStr); err != nil {
		return nil, fmt.Errorf("parsing owner address: %w", err)
	}
	if ns.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &ns, nil
}
