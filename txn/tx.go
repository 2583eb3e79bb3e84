// Package txn implements the Standard and Celo legacy transaction formats,
// each in an unsigned or signed state: RLP (de)serialization, the EIP-155
// signature hash, signing, sender recovery and transaction id (spec.md 4.3).
//
// Transaction is an immutable value: every method that would "change" a
// transaction (Sign, AsUnsigned, WithChainID) returns a new value rather
// than mutating the receiver, the idiomatic Go analogue of the Python
// original's Immutable.__setattr__ guard.
package txn

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/erigontech/ethkit/common"
	"github.com/erigontech/ethkit/crypto"
	"github.com/erigontech/ethkit/rlp"
)

// Kind selects the transaction's wire shape.
type Kind int

const (
	// Standard is the classic 9-field legacy transaction.
	Standard Kind = iota
	// Celo is the 11-field Celo legacy transaction, which inserts
	// gasCurrency and gasFeeRecipient between gas and to.
	Celo
)

// Signature is a transaction's EIP-155 signature triple. V already has the
// chain ID folded in (v = 35/36 + 2*chainId + yParity).
type Signature struct {
	V *uint256.Int
	R *uint256.Int
	S *uint256.Int
}

// Transaction is a Standard or Celo legacy transaction, unsigned when
// Signature is nil.
type Transaction struct {
	Kind     Kind
	Nonce    uint64
	GasPrice *uint256.Int
	Gas      uint64

	// Celo-only; nil for Standard transactions and for Celo transactions
	// that pay gas in the native token.
	GasCurrency     *common.Address
	GasFeeRecipient *common.Address

	To    common.Address
	Value *uint256.Int
	Data  []byte

	ChainID uint64

	Signature *Signature
}

// IsSigned reports whether the transaction carries a signature.
func (t Transaction) IsSigned() bool { return t.Signature != nil }

func (t Transaction) nullSignature() Signature {
	return Signature{
		V: uint256.NewInt(t.ChainID),
		R: uint256.NewInt(0),
		S: uint256.NewInt(0),
	}
}

// Serialize renders the transaction's canonical RLP encoding. An unsigned
// transaction serializes with v=chainId, r=0, s=0 in place of a signature,
// matching the EIP-155 sighash pre-image.
func (t Transaction) Serialize() ([]byte, error) {
	sig := t.Signature
	if sig == nil {
		null := t.nullSignature()
		sig = &null
	}
	return t.serializeWith(*sig)
}

func (t Transaction) serializeWith(sig Signature) ([]byte, error) {
	optionalAddrBytes := func(a *common.Address) []byte {
		if a == nil {
			return nil
		}
		return a.Bytes()
	}

	var fields []rlp.Item
	common3 := []rlp.Item{
		rlp.Bytes(rlp.EncodeUint(t.Nonce)),
		rlp.Bytes(rlp.EncodeUint256(t.GasPrice)),
		rlp.Bytes(rlp.EncodeUint(t.Gas)),
	}

	switch t.Kind {
	case Standard:
		fields = append(fields, common3...)
		fields = append(fields,
			rlp.Bytes(t.To.Bytes()),
			rlp.Bytes(rlp.EncodeUint256(t.Value)),
			rlp.Bytes(t.Data),
		)
	case Celo:
		fields = append(fields, common3...)
		fields = append(fields,
			rlp.Bytes(optionalAddrBytes(t.GasCurrency)),
			rlp.Bytes(optionalAddrBytes(t.GasFeeRecipient)),
			rlp.Bytes(t.To.Bytes()),
			rlp.Bytes(rlp.EncodeUint256(t.Value)),
			rlp.Bytes(t.Data),
		)
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformed, t.Kind)
	}

	fields = append(fields,
		rlp.Bytes(rlp.EncodeUint256(sig.V)),
		rlp.Bytes(rlp.EncodeUint256(sig.R)),
		rlp.Bytes(rlp.EncodeUint256(sig.S)),
	)

	return rlp.Encode(rlp.NewList(fields...))
}

// Sighash computes the EIP-155 signature hash: Keccak256 of the
// transaction's RLP encoding with v=chainId, r=0, s=0 standing in for the
// signature.
func (t Transaction) Sighash(c crypto.Crypto) (common.Hash, error) {
	raw, err := t.serializeWith(t.nullSignature())
	if err != nil {
		return common.Hash{}, err
	}
	return c.Keccak256(raw), nil
}

// Sign produces a new, signed Transaction. ChainID must be non-zero: this
// module only ever signs in EIP-155 form.
func (t Transaction) Sign(c crypto.Crypto, priv []byte) (Transaction, error) {
	if t.ChainID == 0 {
		return Transaction{}, ErrChainIDRequired
	}
	digest, err := t.Sighash(c)
	if err != nil {
		return Transaction{}, err
	}
	sig, err := c.Sign(digest, priv)
	if err != nil {
		return Transaction{}, err
	}
	yParity := uint64(sig[64])
	v := 35 + 2*t.ChainID + yParity

	signed := t
	signed.Signature = &Signature{
		V: uint256.NewInt(v),
		R: new(uint256.Int).SetBytes(sig[0:32]),
		S: new(uint256.Int).SetBytes(sig[32:64]),
	}
	return signed, nil
}

// recoveryParams derives (chainId, yParity) from V, per EIP-155: odd V
// encodes yParity 0, even V encodes yParity 1.
func (sig Signature) recoveryParams() (chainID uint64, yParity byte, err error) {
	if sig.R.IsZero() {
		return sig.V.Uint64(), 0, nil // unsigned: V already holds the chain id
	}
	v := sig.V.Uint64()
	if v%2 == 1 {
		if v < 35 {
			return 0, 0, fmt.Errorf("%w: v=%d is not a valid EIP-155 odd value", ErrInvalidSignature, v)
		}
		return (v - 35) / 2, 0, nil
	}
	if v < 36 {
		return 0, 0, fmt.Errorf("%w: v=%d is not a valid EIP-155 even value", ErrInvalidSignature, v)
	}
	return (v - 36) / 2, 1, nil
}

// AsUnsigned strips the signature, recovering ChainID from V along the way.
func (t Transaction) AsUnsigned() (Transaction, error) {
	if t.Signature == nil {
		return t, nil
	}
	chainID, _, err := t.Signature.recoveryParams()
	if err != nil {
		return Transaction{}, err
	}
	u := t
	u.Signature = nil
	u.ChainID = chainID
	return u, nil
}

// WithChainID returns a copy of an unsigned transaction targeting a
// different chain.
func (t Transaction) WithChainID(chainID uint64) Transaction {
	u := t
	u.ChainID = chainID
	return u
}

// RecoverSender recovers the address that produced this transaction's
// signature.
func (t Transaction) RecoverSender(c crypto.Crypto) (common.Address, error) {
	if t.Signature == nil {
		return common.Address{}, fmt.Errorf("%w: transaction is unsigned", ErrInvalidSignature)
	}
	digest, err := t.Sighash(c)
	if err != nil {
		return common.Address{}, err
	}
	_, yParity, err := t.Signature.recoveryParams()
	if err != nil {
		return common.Address{}, err
	}

	var sig [65]byte
	rBytes := t.Signature.R.Bytes32()
	sBytes := t.Signature.S.Bytes32()
	copy(sig[0:32], rBytes[:])
	copy(sig[32:64], sBytes[:])
	sig[64] = yParity

	return c.RecoverSender(digest, sig[:])
}

// TxID is the Keccak256 hash of the transaction's canonical serialization.
func (t Transaction) TxID(c crypto.Crypto) (common.Hash, error) {
	raw, err := t.Serialize()
	if err != nil {
		return common.Hash{}, err
	}
	return c.Keccak256(raw), nil
}
