package txn

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/erigontech/ethkit/common"
	"github.com/erigontech/ethkit/rlp"
)

// Deserialize parses a signed transaction of the given kind from its raw
// RLP encoding.
//
// For Celo, the field order is nonce, gasPrice, gas, gasCurrency,
// gasFeeRecipient, to, value, data, v, r, s — positions 3 and 4 are
// gasCurrency/gasFeeRecipient, and to/value read from positions 5/6. An
// earlier implementation this module is descended from read to/value from
// raws[3]/raws[4] too, silently aliasing them with gasCurrency/
// gasFeeRecipient; this implementation uses the distinct positions.
func Deserialize(kind Kind, raw []byte) (Transaction, error) {
	item, err := rlp.Decode(raw)
	if err != nil {
		return Transaction{}, err
	}
	if !item.IsList {
		return Transaction{}, fmt.Errorf("%w: expected a list", ErrMalformed)
	}
	fields := item.List

	wantLen := 9
	if kind == Celo {
		wantLen = 11
	}
	if len(fields) != wantLen {
		return Transaction{}, fmt.Errorf("%w: kind %d expects %d fields, got %d", ErrMalformed, kind, wantLen, len(fields))
	}

	nonce, err := rlp.DecodeUint(fields[0])
	if err != nil {
		return Transaction{}, err
	}
	gasPrice, err := rlp.DecodeUint256(fields[1])
	if err != nil {
		return Transaction{}, err
	}
	gas, err := rlp.DecodeUint(fields[2])
	if err != nil {
		return Transaction{}, err
	}

	t := Transaction{Kind: kind, Nonce: nonce, GasPrice: gasPrice, Gas: gas}

	var toField, valueField, dataField, vField, rField, sField rlp.Item
	switch kind {
	case Standard:
		toField, valueField, dataField = fields[3], fields[4], fields[5]
		vField, rField, sField = fields[6], fields[7], fields[8]
	case Celo:
		t.GasCurrency = optionalAddress(fields[3])
		t.GasFeeRecipient = optionalAddress(fields[4])
		toField, valueField, dataField = fields[5], fields[6], fields[7]
		vField, rField, sField = fields[8], fields[9], fields[10]
	default:
		return Transaction{}, fmt.Errorf("%w: unknown kind %d", ErrMalformed, kind)
	}

	t.To = common.BytesToAddress(toField.Str)
	value, err := rlp.DecodeUint256(valueField)
	if err != nil {
		return Transaction{}, err
	}
	t.Value = value
	t.Data = append([]byte(nil), dataField.Str...)

	v, err := rlp.DecodeUint256(vField)
	if err != nil {
		return Transaction{}, err
	}
	r, err := rlp.DecodeUint256(rField)
	if err != nil {
		return Transaction{}, err
	}
	s, err := rlp.DecodeUint256(sField)
	if err != nil {
		return Transaction{}, err
	}
	t.Signature = &Signature{V: v, R: r, S: s}

	chainID, _, err := t.Signature.recoveryParams()
	if err != nil {
		return Transaction{}, err
	}
	t.ChainID = chainID

	return t, nil
}

func optionalAddress(item rlp.Item) *common.Address {
	if len(item.Str) == 0 {
		return nil
	}
	addr := common.BytesToAddress(item.Str)
	return &addr
}

// DeserializeHex parses a "0x"-prefixed (or bare) hex string.
func DeserializeHex(kind Kind, s string) (Transaction, error) {
	raw, err := hexToBytes(s)
	if err != nil {
		return Transaction{}, err
	}
	return Deserialize(kind, raw)
}

func hexToBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex: %v", ErrMalformed, err)
	}
	return b, nil
}
