package production

import "context"

// =============================================================================
// STORE - Persistence interface for the production log
// =============================================================================

// Filter narrows List queries.
type Filter struct {
	// DatePrefix matches dates starting with the prefix: "2082" for a
	// year, "2082-04" for a month. Empty matches everything.
	DatePrefix string

	// Limit caps the result to the latest N entries. Zero means no cap.
	Limit int
}

// Store handles persistence of production entries.
type Store interface {
	// FindByDate returns the entry for the date, nil when absent.
	FindByDate(ctx context.Context, date string) (*Entry, error)

	// Get returns the entry by id, nil when absent.
	Get(ctx context.Context, id string) (*Entry, error)

	// List returns entries matching the filter, newest created first.
	List(ctx context.Context, f Filter) ([]Entry, error)

	// Insert persists a new entry.
	Insert(ctx context.Context, e *Entry) error

	// Save persists changes to an existing entry.
	Save(ctx context.Context, e *Entry) error

	// Delete removes the entry by id. Returns ErrEntryNotFound when absent.
	Delete(ctx context.Context, id string) error
}
