package poka

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPokaNotFound is returned when a referenced unit id is unknown.
	ErrPokaNotFound = errors.New("poka not found")

	// ErrDuplicatePokaNumber is returned when a production batch collides
	// with existing poka numbers. The whole batch is rejected.
	ErrDuplicatePokaNumber = errors.New("duplicate poka number")

	// ErrNoPokasSelected is returned by bulk operations given no unit ids.
	ErrNoPokasSelected = errors.New("no pokas selected")

	// ErrMeasurementLocked is returned when a correction touches the
	// number/shade/meter/kg of a unit that is no longer raw production
	// data (i.e. not available at the mill).
	ErrMeasurementLocked = errors.New("identity and measurements can only be corrected while available at the mill")

	// ErrInvalidUnit is returned when a production batch unit is missing
	// its number/shade or has non-positive measurements.
	ErrInvalidUnit = errors.New("invalid production unit")
)

// DuplicatePokaNumberError lists every conflicting number in a rejected batch.
type DuplicatePokaNumberError struct {
	Numbers []string
}

func (e *DuplicatePokaNumberError) Error() string {
	return fmt.Sprintf("duplicate poka number(s): %s", strings.Join(e.Numbers, ", "))
}

func (e *DuplicatePokaNumberError) Unwrap() error { return ErrDuplicatePokaNumber }
