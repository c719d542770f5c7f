package domain

import "errors"

// Sentinel errors for command handling. All of these are recoverable,
// reported to the submitter, and never fatal to the engine. Internal
// inconsistencies (ledger drift, filled > requested) are programming defects
// and panic instead — silently correcting them would hide bad PnL.
var (
	// ErrUnknownInstrument is returned when an order references a symbol
	// missing from the instrument table.
	ErrUnknownInstrument = errors.New("unknown instrument")

	// ErrInsufficientFunds is returned at submission time when cash cannot
	// cover the order. Never raised mid-fill.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUnknownOrder is returned when cancelling an order id that does not exist.
	ErrUnknownOrder = errors.New("unknown order")

	// ErrAlreadyTerminal is returned when cancelling a filled, cancelled or
	// rejected order. The cancel is a no-op.
	ErrAlreadyTerminal = errors.New("order already terminal")

	// ErrEngineClosed is returned when a command is submitted after shutdown.
	ErrEngineClosed = errors.New("engine closed")
)

// ValidationError reports a bad price, volume or order field on submission.
// No state is mutated when one is returned.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return "validation error [" + e.Field + "]: " + e.Msg
}

// IsRejection reports whether err is a terminal submission outcome rather
// than an infrastructure fault.
func IsRejection(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrUnknownInstrument)
}
