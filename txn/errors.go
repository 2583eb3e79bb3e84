package txn

import "errors"

var (
	// ErrChainIDRequired is returned by Sign when ChainID is zero: this
	// module only signs EIP-155 transactions, which require a chain ID
	// folded into v.
	ErrChainIDRequired = errors.New("txn: chain ID is required to sign")
	// ErrInvalidSignature is returned when a serialized signature's v/r/s
	// cannot encode a valid EIP-155 recovery id, or a field is out of range.
	ErrInvalidSignature = errors.New("txn: invalid signature")
	// ErrMalformed is returned when deserializing a byte string that does
	// not have the shape of the expected transaction kind.
	ErrMalformed = errors.New("txn: malformed transaction")
)
