package abi

import "errors"

var (
	// ErrUnknownType is returned when a type descriptor does not match any
	// grammar production (spec.md 4.2).
	ErrUnknownType = errors.New("abi: unknown type")
	// ErrArgumentMismatch is returned when an encode/decode call receives a
	// different number of values than types, or a value of the wrong shape.
	ErrArgumentMismatch = errors.New("abi: argument mismatch")
	// ErrMalformedData is returned when decoding runs past the end of the
	// input, or encounters an offset/length that can't be satisfied.
	ErrMalformedData = errors.New("abi: malformed data")
	// ErrNoMatch is returned by the call-by-name resolver when no entry with
	// the requested name encodes the supplied arguments successfully.
	ErrNoMatch = errors.New("abi: no matching entry")
	// ErrAmbiguous is returned by the call-by-name resolver in strict mode
	// when more than one overload successfully encodes the arguments.
	ErrAmbiguous = errors.New("abi: ambiguous call, multiple entries match")
)
