package poka

import "context"

// =============================================================================
// STORE - Persistence interface for poka units
// =============================================================================

// Store handles persistence of poka units.
//
// InsertMany is atomic: a production batch lands whole or not at all.
// Individual writes are atomic but not transactionally grouped with
// ledger writes; see the coupling notes in service.go.
type Store interface {
	// Find returns units matching the filter, newest created first.
	Find(ctx context.Context, f Filter) ([]Poka, error)

	// FindByID returns the unit, nil when absent.
	FindByID(ctx context.Context, id string) (*Poka, error)

	// FindByNumbers returns existing units whose poka_no is in nos.
	FindByNumbers(ctx context.Context, nos []string) ([]Poka, error)

	// InsertMany persists a batch of new units atomically.
	InsertMany(ctx context.Context, units []Poka) error

	// UpdateMany applies the patch to every unit in ids, returning the
	// number of units updated.
	UpdateMany(ctx context.Context, ids []string, p Patch) (int, error)

	// Save persists changes to an existing unit.
	Save(ctx context.Context, p *Poka) error

	// Delete removes the unit. Returns ErrPokaNotFound when absent.
	Delete(ctx context.Context, id string) error
}
