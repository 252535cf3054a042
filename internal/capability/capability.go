// ABOUTME: Capability handle minting and verification for registry operations
// ABOUTME: Handles are HS256-signed tokens binding one operation class to one target address

package capability

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/2389/warden/internal/address"
)

// Handle errors
var (
	ErrInvalidHandle  = errors.New("invalid capability handle")
	ErrWrongOperation = errors.New("handle authorizes a different operation")
	ErrWrongTarget    = errors.New("handle is bound to a different target")
)

// Op is the class of operation a handle authorizes against its target.
type Op string

const (
	// OpExtend reconstitutes a delegated signer for the proxy identity.
	OpExtend Op = "extend"
	// OpMutate authorizes in-place mutation of a record's display name.
	OpMutate Op = "mutate"
	// OpDestroy authorizes destruction of a record. Minted at creation but
	// exercised by no exposed operation.
	OpDestroy Op = "destroy"
	// OpTransfer authorizes the one-shot ownership handoff after creation.
	OpTransfer Op = "transfer"
)

// Minter mints and verifies capability handles using a shared secret.
// Handles are unforgeable without the secret and are returned only at mint
// time; they are never derivable from the target they govern.
type Minter struct {
	secret []byte
}

// NewMinter creates a minter keyed on the given secret.
func NewMinter(secret []byte) *Minter {
	return &Minter{secret: secret}
}

// Mint creates a handle authorizing op against target.
func (m *Minter) Mint(op Op, target address.Address) (string, error) {
	claims := jwt.MapClaims{
		"sub": target.String(),
		"op":  string(op),
		"jti": uuid.New().String(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing handle: %w", err)
	}
	return signed, nil
}

// Verify checks that handle is authentic, authorizes wantOp, and is bound to
// wantTarget. It returns the handle's unique ID (jti).
func (m *Minter) Verify(handle string, wantOp Op, wantTarget address.Address) (string, error) {
	token, err := jwt.Parse(handle, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidHandle, err)
	}
	if !token.Valid {
		return "", ErrInvalidHandle
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidHandle
	}

	op, _ := claims["op"].(string)
	if Op(op) != wantOp {
		return "", fmt.Errorf("%w: have %q, want %q", ErrWrongOperation, op, wantOp)
	}

	sub, _ := claims["sub"].(string)
	if sub != wantTarget.String() {
		return "", ErrWrongTarget
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return "", fmt.Errorf("%w: missing jti", ErrInvalidHandle)
	}

	return jti, nil
}
