/*
store.go - Persistence interface for ledger entries

PURPOSE:
  Defines the interface between the ledger engine and the database.
  One store serves both ledger kinds; every method is scoped by Kind.

LOOKUP CONTRACT:
  Date lookups (FindByDate, FindBefore, FindFrom) compare dates as
  strings; the zero-padded date format guarantees lexicographic order
  equals chronological order. Latest orders by insertion time, not date -
  the poka coupling targets whichever entry was created last regardless
  of its calendar date.

ATOMICITY:
  Individual writes are atomic. SaveAll persists a recalculated cascade
  as one unit: either every entry's new balances land or none do.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - store/memory: in-memory store for tests
*/
package ledger

import "context"

// Store handles persistence of ledger entries.
type Store interface {
	// FindByDate returns the entry for the exact date, nil when absent.
	FindByDate(ctx context.Context, kind Kind, date string) (*Entry, error)

	// FindBefore returns the chronologically latest entry with a date
	// strictly before the given date, nil when none exists.
	FindBefore(ctx context.Context, kind Kind, date string) (*Entry, error)

	// FindFrom returns all entries with date >= from, ascending by date.
	FindFrom(ctx context.Context, kind Kind, from string) ([]Entry, error)

	// Latest returns the most recently created entry (by insertion time,
	// not calendar date), nil when the ledger is empty.
	Latest(ctx context.Context, kind Kind) (*Entry, error)

	// Get returns the entry by id, nil when absent.
	Get(ctx context.Context, kind Kind, id string) (*Entry, error)

	// List returns all entries, newest created first.
	List(ctx context.Context, kind Kind) ([]Entry, error)

	// Insert persists a new entry.
	Insert(ctx context.Context, e *Entry) error

	// Save persists changes to an existing entry.
	Save(ctx context.Context, e *Entry) error

	// SaveAll persists changes to multiple entries atomically.
	// Either all succeed or none do.
	SaveAll(ctx context.Context, entries []Entry) error

	// Delete removes the entry by id. Returns ErrEntryNotFound when absent.
	Delete(ctx context.Context, kind Kind, id string) error
}
