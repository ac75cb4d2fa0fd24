/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All ledger error conditions in one place. Sentinel errors for matching
  with errors.Is, structured errors carrying the offending date/values
  for display, unwrapping to their sentinel.

USAGE:
  if errors.Is(err, ledger.ErrNegativeBalance) {
      var nbe *ledger.NegativeBalanceError
      errors.As(err, &nbe) // nbe.Date identifies the offending entry
  }
*/
package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateEntry is returned when an entry already exists for the
	// date. The existing entry must be edited instead.
	ErrDuplicateEntry = errors.New("entry for date already exists")

	// ErrMissingOpeningBalance is returned when creating the first-ever
	// entry of a ledger without supplying an opening balance.
	ErrMissingOpeningBalance = errors.New("first entry requires an opening balance")

	// ErrNegativeBalance is returned when a computed balance would go
	// below zero, at create, update, or during cascade recalculation.
	ErrNegativeBalance = errors.New("balance cannot be negative")

	// ErrEntryNotFound is returned when a referenced entry id is unknown.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrUnknownKind is returned for a ledger kind with no schema.
	ErrUnknownKind = errors.New("unknown ledger kind")

	// ErrUnknownFlow is returned when an input carries a flow field the
	// kind's schema does not define.
	ErrUnknownFlow = errors.New("unknown flow field for ledger kind")

	// ErrNegativeQuantity is returned when an input quantity is below zero.
	ErrNegativeQuantity = errors.New("quantities cannot be negative")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateEntryError reports which date already has an entry.
type DuplicateEntryError struct {
	Kind Kind
	Date string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("%s entry for %s already exists", e.Kind, e.Date)
}

func (e *DuplicateEntryError) Unwrap() error { return ErrDuplicateEntry }

// NegativeBalanceError identifies the entry whose balance would go negative.
type NegativeBalanceError struct {
	Kind    Kind
	Date    string
	Balance decimal.Decimal
}

func (e *NegativeBalanceError) Error() string {
	return fmt.Sprintf("negative balance on %s: %s would leave %s",
		e.Date, e.Kind, e.Balance)
}

func (e *NegativeBalanceError) Unwrap() error { return ErrNegativeBalance }

// UnknownFlowError reports flow fields not defined by the kind's schema.
type UnknownFlowError struct {
	Kind  Kind
	Names []string
}

func (e *UnknownFlowError) Error() string {
	return fmt.Sprintf("unknown flow field(s) for %s: %s", e.Kind, strings.Join(e.Names, ", "))
}

func (e *UnknownFlowError) Unwrap() error { return ErrUnknownFlow }

// IsClientError returns true if the error is due to invalid client input
// rather than a storage failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateEntry) ||
		errors.Is(err, ErrMissingOpeningBalance) ||
		errors.Is(err, ErrNegativeBalance) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrUnknownFlow) ||
		errors.Is(err, ErrNegativeQuantity)
}
