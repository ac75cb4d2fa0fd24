package ledger

import "github.com/shopspring/decimal"

// =============================================================================
// NUMERIC NORMALIZER - 12 significant digits
// =============================================================================

// sigDigits is the precision every derived quantity is normalized to before
// storage or comparison. Twelve significant digits is enough to make binary
// floating-point artifacts from client input (0.1 + 0.2 style drift)
// disappear while keeping every quantity this system handles exact.
const sigDigits = 12

// Clean rounds d to 12 significant digits. Pure; no error conditions.
// Applied to every computed total, balance, and delta.
func Clean(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	// Position of the most significant digit relative to the decimal point:
	// 123.45 -> 3, 0.00045 -> -3.
	intDigits := int32(d.NumDigits()) + d.Exponent()
	return d.Round(sigDigits - intDigits)
}

// CleanFloat converts a client-supplied float to a normalized decimal.
func CleanFloat(f float64) decimal.Decimal {
	return Clean(decimal.NewFromFloat(f))
}
