// ABOUTME: Record persistence: install, lookup, existence probe, and in-place mutation
// ABOUTME: The records primary key is the derived address, which enforces one record per owner

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/2389/warden/internal/address"
)

// InstallRecord stores a record at its derived address. Returns
// ErrRecordExists if the address is already occupied.
func (s *SQLiteStore) InstallRecord(ctx context.Context, rec *Record) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	query := `
		INSERT INTO records (
			address, namespace_address, owner_id, owner_address,
			display_name, mutate_handle, destroy_handle, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.Address.String(),
		rec.NamespaceAddress.String(),
		rec.OwnerID,
		rec.OwnerAddress.String(),
		rec.DisplayName,
		rec.MutateHandle,
		rec.DestroyHandle,
		rec.CreatedAt.Format(time.RFC3339),
		rec.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrRecordExists
		}
		return fmt.Errorf("inserting record: %w", err)
	}

	s.logger.Debug("installed record", "address", rec.Address, "owner_id", rec.OwnerID)
	return nil
}

// GetRecord retrieves the record at the given address.
// Returns ErrRecordNotFound if the address is vacant.
func (s *SQLiteStore) GetRecord(ctx context.Context, addr address.Address) (*Record, error) {
	query := `
		SELECT address, namespace_address, owner_id, owner_address,
		       display_name, mutate_handle, destroy_handle, created_at, updated_at
		FROM records
		WHERE address = ?
	`

	var rec Record
	var addrStr, nsStr, ownerStr string
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx, query, addr.String()).Scan(
		&addrStr,
		&nsStr,
		&rec.OwnerID,
		&ownerStr,
		&rec.DisplayName,
		&rec.MutateHandle,
		&rec.DestroyHandle,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}

	if rec.Address, err = address.Parse(addrStr); err != nil {
		return nil, fmt.Errorf("parsing record address: %w", err)
	}
	if rec.NamespaceAddress, err = address.Parse(nsStr); err != nil {
		return nil, fmt.Errorf("parsing namespace address: %w", err)
	}
	if rec.OwnerAddress, err = address.Parse(ownerStr); err != nil {
		return nil, fmt.Errorf("parsing owner address: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &rec, nil
}

// RecordExists reports whether a record occupies the given address.
func (s *SQLiteStore) RecordExists(ctx context.Context, addr address.Address) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM records WHERE address = ?`, addr.String()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probing record existence: %w", err)
	}
	return true, nil
}

// UpdateRecordName overwrites only the display-name field of the record at
// the given address. Returns ErrRecordNotFound if the address is vacant.
func (s *SQLiteStore) UpdateRecordName(ctx context.Context, addr address.Address, name string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE records SET display_name = ?, updated_at = ? WHERE address = ?`,
		name,
		time.Now().UTC().Format(time.RFC3339),
		addr.String(),
	)
	if err != nil {
		return fmt.Errorf("updating record name: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}

	s.logger.Debug("renamed record", "address", addr)
	return nil
}

// SetRecordOwner changes the storage-layer owner of the record at the given
// address. Returns ErrRecordNotFound if the address is vacant.
func (s *SQLiteStore) SetRecordOwner(ctx context.Context, addr, owner address.Address) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE records SET owner_address = ?, updated_at = ? WHERE address = ?`,
		owner.String(),
		time.Now().UTC().Format(time.RFC3339),
		addr.String(),
	)
	if err != nil {
		return fmt.Errorf("updating record owner: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}

	s.logger.Debug("transferred record", "address", addr, "owner", owner)
	return nil
}

// DeleteRecord removes the record at the given address.
// Returns ErrRecordNotFound if the address is vacant.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, addr address.Address) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE address = ?`, addr.String())
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}

	s.logger.Debug("deleted record", "address", addr)
	return nil
}

// isConstraintViolation reports whether err is a SQLite constraint failure.
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed")
}
