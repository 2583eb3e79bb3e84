package rlp

import "errors"

// Error taxonomy from spec.md 7.
var (
	ErrTruncated = errors.New("rlp: truncated input")
	ErrMalformed = errors.New("rlp: malformed input")
	ErrOverflow  = errors.New("rlp: length prefix overflow")
)
