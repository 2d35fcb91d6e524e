// Package device registers counter and kitchen display devices.
// A device proves it belongs to an outlet with the outlet staff PIN
// and receives a signed token for the admin endpoints.
package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrOutletNotFound is returned when no staff record exists for
	// the outlet.
	ErrOutletNotFound = errors.New("device: outlet not found")
	// ErrBadPIN is returned when the presented staff PIN is wrong.
	ErrBadPIN = errors.New("device: invalid staff pin")
)

// Repo reads outlet staff credentials.
type Repo interface {
	StaffPINHash(ctx context.Context, outletID string) (string, error)
}

// PGRepo reads staff credentials from Postgres.
type PGRepo struct {
	Pool *pgxpool.Pool
}

// NewPGRepo builds the staff credential repo.
func NewPGRepo(pool *pgxpool.Pool) *PGRepo {
	return &PGRepo{Pool: pool}
}

// StaffPINHash loads the stored PIN hash for an outlet.
func (r *PGRepo) StaffPINHash(ctx context.Context, outletID string) (string, error) {
	if r == nil || r.Pool == nil {
		return "", errors.New("device: repository not configured")
	}
	const q = `SELECT pin_hash FROM outlet_staff WHERE outlet_id = $1`
	var hash string
	err := r.Pool.QueryRow(ctx, q, outletID).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOutletNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load staff pin: %w", err)
	}
	return hash, nil
}
