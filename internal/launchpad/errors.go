// internal/launchpad/errors.go
package launchpad

import "errors"

var (
	// ErrLayoutMismatch is returned when an account buffer is shorter than
	// the documented offset+width of a requested field.
	ErrLayoutMismatch = errors.New("account data does not match layout")

	// ErrUnknownField is returned when a query names a field the record
	// layout does not define.
	ErrUnknownField = errors.New("unknown layout field")

	// ErrSignByte is returned when the most-significant byte of a signed
	// field is neither 0x00 nor 0xFF. Such a pattern is outside the value
	// range the layout promises and is rejected rather than silently
	// bucketed as non-negative.
	ErrSignByte = errors.New("unexpected sign byte pattern")

	// ErrCurveUninitialized is returned when a post-bonding conversion is
	// requested before the pool price feed has supplied a price.
	ErrCurveUninitialized = errors.New("bonding curve price not initialized")

	// ErrInsufficientBalance is returned when a validated amount exceeds
	// the balance ceiling for the requested action.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrRemoteUnavailable is returned when the account store or a price
	// feed cannot be reached. The caller owns the retry policy; nothing in
	// this package retries.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrOutOfRange is returned for page numbers below one. Pages past the
	// end of the result set are an empty page, not an error.
	ErrOutOfRange = errors.New("page number out of range")
)
