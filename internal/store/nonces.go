// ABOUTME: Single-use transfer nonce persistence
// ABOUTME: Each nonce is registered at mint time and may be consumed exactly once

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/2389/warden/internal/address"
)

// RegisterTransferNonce records a freshly minted transfer nonce as unconsumed.
func (s *SQLiteStore) RegisterTransferNonce(ctx context.Context, nonce string, record address.Address) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transfer_nonces (nonce, record_address, consumed_at) VALUES (?, ?, NULL)`,
		nonce, record.String())
	if err != nil {
		return fmt.Errorf("registering transfer nonce: %w", err)
	}

	s.logger.Debug("registered transfer nonce", "record_address", record)
	return nil
}

// ConsumeTransferNonce marks a nonce consumed. The conditional UPDATE makes
// consumption atomic: exactly one caller can ever flip consumed_at.
// Returns ErrNonceConsumed on a second consumption and ErrNonceNotFound for
// a nonce that was never registered.
func (s *SQLiteStore) ConsumeTransferNonce(ctx context.Context, nonce string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE transfer_nonces SET consumed_at = ? WHERE nonce = ? AND consumed_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339), nonce)
	if err != nil {
		return fmt.Errorf("consuming transfer nonce: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	var one int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM transfer_nonces WHERE nonce = ?`, nonce).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrNonceNotFound
	}
	if err != nil {
		return fmt.Errorf("checking transfer nonce: %w", err)
	}
	return ErrNonceConsumed
}

// DeleteTransferNonce discards a nonce whose transfer will never complete,
// consumed or not. Returns ErrNonceNotFound if it was never registered.
func (s *SQLiteStore) DeleteTransferNonce(ctx context.Context, nonce string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM transfer_nonces WHERE nonce = ?`, nonce)
	if err != nil {
		return fmt.Errorf("deleting transfer nonce: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNonceNotFound
	}
	return nil
}
