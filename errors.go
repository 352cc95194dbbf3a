package rcon

import "errors"

// Shared error taxonomy. Both the Source and BattlEye clients surface
// these directly; each package additionally defines framing errors that
// are specific to its own wire format.
var (
	// ErrWrongPassword is returned when the server rejects authentication.
	ErrWrongPassword = errors.New("rcon: wrong password")

	// ErrSessionTimeout is returned when a Source reply id no longer
	// correlates with the live session, signalling that the server
	// discarded it.
	ErrSessionTimeout = errors.New("rcon: session timeout")

	// ErrEmptyResponse is returned when a Source frame declares a size
	// of zero.
	ErrEmptyResponse = errors.New("rcon: empty response")

	// ErrFraming is returned for malformed headers: short reads, bad
	// prefixes, or checksum mismatches.
	ErrFraming = errors.New("rcon: framing error")

	// ErrInvalidConfig is returned when a server reference or ini
	// section cannot be parsed.
	ErrInvalidConfig = errors.New("rcon: invalid config")

	// ErrValueRange is returned when a SignedInt32LE is constructed
	// from a value outside its representable range.
	ErrValueRange = errors.New("rcon: value out of range")
)

// RequestIDMismatch is returned in place of ErrSessionTimeout where the
// caller can make use of both the sent and the received ids.
type RequestIDMismatch struct {
	Sent     SignedInt32LE
	Received SignedInt32LE
}

func (e *RequestIDMismatch) Error() string {
	return "rcon: request id mismatch"
}

// Unwrap lets errors.Is(err, ErrSessionTimeout) succeed against a
// *RequestIDMismatch.
func (e *RequestIDMismatch) Unwrap() error {
	return ErrSessionTimeout
}
