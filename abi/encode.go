package abi

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/erigontech/ethkit/common"
)

const slotSize = 32

// slotsToEncode mirrors _slots_to_encode: (head slots, tail slots) a value
// of type t contributes when it appears as one argument of an encode_many
// call.
func slotsToEncode(t Type, value any) (head, tail int, err error) {
	switch t.Kind {
	case KindString:
		s, ok := value.(string)
		if !ok {
			return 0, 0, fmt.Errorf("%w: expected string, got %T", ErrArgumentMismatch, value)
		}
		return 1, len(encodeDynamicBytes([]byte(s))) / slotSize, nil

	case KindBytes:
		b, ok := value.([]byte)
		if !ok {
			return 0, 0, fmt.Errorf("%w: expected []byte, got %T", ErrArgumentMismatch, value)
		}
		return 1, len(encodeDynamicBytes(b)) / slotSize, nil

	case KindDynamicArray:
		items, ok := value.([]any)
		if !ok {
			return 0, 0, fmt.Errorf("%w: expected []any, got %T", ErrArgumentMismatch, value)
		}
		tailSlots := 0
		for _, item := range items {
			h2, t2, err := slotsToEncode(*t.Elem, item)
			if err != nil {
				return 0, 0, err
			}
			tailSlots += h2 + t2
		}
		return 1, tailSlots + 1, nil // +1 for the length word

	case KindFixedArray:
		items, ok := value.([]any)
		if !ok {
			return 0, 0, fmt.Errorf("%w: expected []any, got %T", ErrArgumentMismatch, value)
		}
		if len(items) != t.Size {
			return 0, 0, fmt.Errorf("%w: fixed array length %d, got %d", ErrArgumentMismatch, t.Size, len(items))
		}
		headSum, tailSum := 0, 0
		for _, item := range items {
			h2, t2, err := slotsToEncode(*t.Elem, item)
			if err != nil {
				return 0, 0, err
			}
			headSum += h2
			tailSum += t2
		}
		if t.Elem.IsDynamic() {
			// A fixed array of a dynamic element type is itself dynamic: it
			// contributes a single offset slot here, with its own head/tail
			// content (headSum+tailSum) living in the tail.
			return 1, headSum + tailSum, nil
		}
		return headSum, tailSum, nil

	default:
		return 1, 0, nil
	}
}

// EncodeValue encodes a single value of type t, returning its head-portion
// bytes and tail-portion bytes separately (the tail is empty for static
// types). Mirrors abi.py's encode().
func EncodeValue(t Type, value any) (head, tail []byte, err error) {
	switch t.Kind {
	case KindAddress:
		addr, ok := value.(common.Address)
		if !ok {
			return nil, nil, fmt.Errorf("%w: expected common.Address, got %T", ErrArgumentMismatch, value)
		}
		return encodeUintBytes(new(big.Int).SetBytes(addr[:])), nil, nil

	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, nil, fmt.Errorf("%w: expected string, got %T", ErrArgumentMismatch, value)
		}
		return nil, encodeDynamicBytes([]byte(s)), nil

	case KindBytes:
		b, ok := value.([]byte)
		if !ok {
			return nil, nil, fmt.Errorf("%w: expected []byte, got %T", ErrArgumentMismatch, value)
		}
		return nil, encodeDynamicBytes(b), nil

	case KindFixedBytes:
		b, ok := value.([]byte)
		if !ok {
			return nil, nil, fmt.Errorf("%w: expected []byte, got %T", ErrArgumentMismatch, value)
		}
		if len(b) > t.Size {
			return nil, nil, fmt.Errorf("%w: bytes%d got %d bytes", ErrArgumentMismatch, t.Size, len(b))
		}
		return padRight(b), nil, nil

	case KindUint:
		n, err := toBigInt(value)
		if err != nil {
			return nil, nil, err
		}
		if n.Sign() < 0 {
			return nil, nil, fmt.Errorf("%w: negative value for uint%d", ErrArgumentMismatch, t.Bits)
		}
		if n.BitLen() > t.Bits {
			return nil, nil, fmt.Errorf("%w: value overflows uint%d", ErrArgumentMismatch, t.Bits)
		}
		return encodeUintBytes(n), nil, nil

	case KindInt:
		n, err := toBigInt(value)
		if err != nil {
			return nil, nil, err
		}
		if !fitsSignedBits(n, t.Bits) {
			return nil, nil, fmt.Errorf("%w: value overflows int%d", ErrArgumentMismatch, t.Bits)
		}
		return encodeIntBytes(n), nil, nil

	case KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, nil, fmt.Errorf("%w: expected bool, got %T", ErrArgumentMismatch, value)
		}
		n := big.NewInt(0)
		if b {
			n = big.NewInt(1)
		}
		return encodeUintBytes(n), nil, nil

	case KindFixedArray:
		items, ok := value.([]any)
		if !ok {
			return nil, nil, fmt.Errorf("%w: expected []any, got %T", ErrArgumentMismatch, value)
		}
		if len(items) != t.Size {
			return nil, nil, fmt.Errorf("%w: fixed array length %d, got %d", ErrArgumentMismatch, t.Size, len(items))
		}
		if t.Elem.IsDynamic() {
			// The array's content is encoded exactly like encode_many over
			// Size repetitions of the element type: each element gets its
			// own head slot (an offset into this content) followed by the
			// tails, with no length-word prefix (the length is fixed).
			elemTypes := make([]Type, t.Size)
			for i := range elemTypes {
				elemTypes[i] = *t.Elem
			}
			body, err := EncodeMany(elemTypes, items)
			if err != nil {
				return nil, nil, err
			}
			return nil, body, nil
		}
		var out []byte
		for _, item := range items {
			h, _, err := EncodeValue(*t.Elem, item)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, h...)
		}
		return out, nil, nil

	case KindDynamicArray:
		items, ok := value.([]any)
		if !ok {
			return nil, nil, fmt.Errorf("%w: expected []any, got %T", ErrArgumentMismatch, value)
		}
		elemTypes := make([]Type, len(items))
		for i := range items {
			elemTypes[i] = *t.Elem
		}
		body, err := EncodeMany(elemTypes, items)
		if err != nil {
			return nil, nil, err
		}
		return nil, append(encodeUintBytes(big.NewInt(int64(len(items)))), body...), nil

	default:
		return nil, nil, fmt.Errorf("%w: %v", ErrUnknownType, t)
	}
}

func encodeUintBytes(n *big.Int) []byte {
	out := make([]byte, slotSize)
	b := n.Bytes()
	copy(out[slotSize-len(b):], b)
	return out
}

// encodeIntBytes renders n (which may be negative) as 32-byte two's
// complement, matching Python's int.to_bytes(32, 'big', signed=True).
func encodeIntBytes(n *big.Int) []byte {
	out := make([]byte, slotSize)
	if n.Sign() >= 0 {
		b := n.Bytes()
		copy(out[slotSize-len(b):], b)
		return out
	}
	// two's complement: (1<<256) + n
	mod := new(big.Int).Lsh(big.NewInt(1), 256)
	twos := new(big.Int).Add(mod, n)
	b := twos.Bytes()
	copy(out[slotSize-len(b):], b)
	return out
}

func padRight(b []byte) []byte {
	out := make([]byte, slotSize)
	copy(out, b)
	return out
}

func encodeDynamicBytes(b []byte) []byte {
	length := encodeUintBytes(big.NewInt(int64(len(b))))
	padded := b
	if rem := len(b) % slotSize; rem != 0 {
		padded = append(append([]byte(nil), b...), make([]byte, slotSize-rem)...)
	} else if len(b) == 0 {
		padded = nil
	}
	return append(length, padded...)
}

// fitsSignedBits reports whether n fits in a two's complement integer of
// the given bit width: [-2^(bits-1), 2^(bits-1)-1].
func fitsSignedBits(n *big.Int, bits int) bool {
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	neg := new(big.Int).Neg(limit)
	max := new(big.Int).Sub(limit, big.NewInt(1))
	return n.Cmp(neg) >= 0 && n.Cmp(max) <= 0
}

func toBigInt(value any) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return v, nil
	case *uint256.Int:
		return v.ToBig(), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int64:
		return big.NewInt(v), nil
	case int:
		return big.NewInt(int64(v)), nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %T to integer", ErrArgumentMismatch, value)
	}
}

func encodeOffset(headSizeSlots, tailPosSlots int) []byte {
	return encodeUintBytes(big.NewInt(int64((tailPosSlots + headSizeSlots) * slotSize)))
}

// EncodeMany encodes a slice of heterogeneously-typed arguments into a
// single head/tail blob (abi.py's encode_many).
func EncodeMany(types []Type, values []any) ([]byte, error) {
	if len(types) != len(values) {
		return nil, fmt.Errorf("%w: %d types, %d values", ErrArgumentMismatch, len(types), len(values))
	}

	slotUsage := make([][2]int, len(types))
	headSizeSlots := 0
	for i := range types {
		h, t2, err := slotsToEncode(types[i], values[i])
		if err != nil {
			return nil, err
		}
		slotUsage[i] = [2]int{h, t2}
		headSizeSlots += h
	}

	var head, tail []byte
	for i := range types {
		encHead, encTail, err := EncodeValue(types[i], values[i])
		if err != nil {
			return nil, err
		}
		if encHead == nil {
			tailPos := 0
			for j := 0; j < i; j++ {
				tailPos += slotUsage[j][1]
			}
			encHead = encodeOffset(headSizeSlots, tailPos)
		}
		head = append(head, encHead...)
		if encTail != nil {
			tail = append(tail, encTail...)
		}
	}
	return append(head, tail...), nil
}

// EncodeTuple encodes args against an abi-format type-tuple descriptor,
// e.g. "(bytes,int,address[])".
func EncodeTuple(tuple string, args []any) ([]byte, error) {
	types, err := ParseTypes(SplitTuple(tuple))
	if err != nil {
		return nil, err
	}
	return EncodeMany(types, args)
}
