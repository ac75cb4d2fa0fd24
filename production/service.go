package production

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SERVICE - Production log lifecycle
// =============================================================================

// Service exposes the production log operations.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create records a new day's production. One entry per date; a second
// entry for the same date fails with ErrEntryExists.
func (s *Service) Create(ctx context.Context, e *Entry) (*Entry, error) {
	if err := validate(e); err != nil {
		return nil, err
	}

	existing, err := s.store.FindByDate(ctx, e.Date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEntryExists
	}

	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()
	e.UpdatedAt = e.CreatedAt
	e.ComputeTotal()

	if err := s.store.Insert(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetByDate looks an entry up by its date.
func (s *Service) GetByDate(ctx context.Context, date string) (*Entry, error) {
	e, err := s.store.FindByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEntryNotFound
	}
	return e, nil
}

// UpdateByDate replaces the machines of the entry for the date.
func (s *Service) UpdateByDate(ctx context.Context, date string, machines []Machine) (*Entry, error) {
	e, err := s.store.FindByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEntryNotFound
	}

	e.Machines = machines
	if err := validate(e); err != nil {
		return nil, err
	}
	e.ComputeTotal()
	e.UpdatedAt = s.now().UTC()

	if err := s.store.Save(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes an entry by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// List returns entries matching the filter, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Entry, error) {
	return s.store.List(ctx, f)
}

// Analyze aggregates entries whose date starts with prefix ("2082" for a
// year, "2082-04" for a month).
func (s *Service) Analyze(ctx context.Context, prefix string) (*Analysis, error) {
	entries, err := s.store.List(ctx, Filter{DatePrefix: prefix})
	if err != nil {
		return nil, err
	}
	a := Analyze(entries)
	return &a, nil
}

func validate(e *Entry) error {
	for _, m := range e.Machines {
		if m.ShiftCombined {
			if m.Combined == nil {
				return ErrMissingShiftData
			}
		} else if m.Day == nil && m.Night == nil {
			return ErrMissingShiftData
		}
		for _, sh := range m.Shifts() {
			for _, dt := range sh.Downtimes {
				if dt.From == "" || dt.To == "" || dt.Reason == "" {
					return ErrInvalidDowntime
				}
			}
		}
	}
	return nil
}
