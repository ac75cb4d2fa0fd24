package production

import "errors"

var (
	// ErrEntryExists is returned when a production entry for the date
	// already exists; it must be edited instead.
	ErrEntryExists = errors.New("production entry for date already exists")

	// ErrEntryNotFound is returned when a referenced entry is unknown.
	ErrEntryNotFound = errors.New("production entry not found")

	// ErrMissingShiftData is returned when a machine record carries no
	// shift matching its combined/split setting.
	ErrMissingShiftData = errors.New("machine record is missing shift data")

	// ErrInvalidDowntime is returned when a downtime window is missing
	// its from/to times or reason.
	ErrInvalidDowntime = errors.New("downtime requires from, to, and reason")
)
