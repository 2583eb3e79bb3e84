package abi

import (
	"fmt"
	"math/big"

	"github.com/erigontech/ethkit/common"
)

// DecodeValue decodes a single value of type t from b, which for static
// types is exactly one 32-byte slot and for dynamic types is the tail
// portion starting at its own length word (abi.py's decode()).
func DecodeValue(t Type, b []byte) (any, error) {
	switch t.Kind {
	case KindDynamicArray:
		return decodeDynamicArray(t, b)
	case KindFixedArray:
		return decodeFixedArray(t, b)
	case KindAddress:
		if len(b) < slotSize {
			return nil, fmt.Errorf("%w: address needs 32 bytes, got %d", ErrMalformedData, len(b))
		}
		return common.BytesToAddress(b[:slotSize]), nil
	case KindString:
		raw, err := decodeDynamicBytes(b)
		if err != nil {
			return nil, err
		}
		return string(raw), nil
	case KindBytes:
		return decodeDynamicBytes(b)
	case KindFixedBytes:
		if len(b) < slotSize {
			return nil, fmt.Errorf("%w: bytes%d needs 32 bytes, got %d", ErrMalformedData, t.Size, len(b))
		}
		return append([]byte(nil), b[:t.Size]...), nil
	case KindUint:
		if len(b) < slotSize {
			return nil, fmt.Errorf("%w: uint%d needs 32 bytes, got %d", ErrMalformedData, t.Bits, len(b))
		}
		return new(big.Int).SetBytes(b[:slotSize]), nil
	case KindInt:
		if len(b) < slotSize {
			return nil, fmt.Errorf("%w: int%d needs 32 bytes, got %d", ErrMalformedData, t.Bits, len(b))
		}
		return decodeSignedInt(b[:slotSize]), nil
	case KindBool:
		if len(b) < slotSize {
			return nil, fmt.Errorf("%w: bool needs 32 bytes, got %d", ErrMalformedData, len(b))
		}
		return b[slotSize-1] == 1, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownType, t)
	}
}

func decodeSignedInt(b []byte) *big.Int {
	n := new(big.Int).SetBytes(b)
	if b[0]&0x80 == 0 {
		return n
	}
	mod := new(big.Int).Lsh(big.NewInt(1), 256)
	return n.Sub(n, mod)
}

func decodeDynamicBytes(b []byte) ([]byte, error) {
	if len(b) < slotSize {
		return nil, fmt.Errorf("%w: dynamic bytes needs a length word, got %d bytes", ErrMalformedData, len(b))
	}
	length := new(big.Int).SetBytes(b[:slotSize]).Int64()
	if int64(len(b)) < slotSize+length {
		return nil, fmt.Errorf("%w: dynamic bytes declares %d bytes, have %d", ErrMalformedData, length, len(b)-slotSize)
	}
	return append([]byte(nil), b[slotSize:slotSize+length]...), nil
}

func decodeDynamicArray(t Type, b []byte) (any, error) {
	if len(b) < slotSize {
		return nil, fmt.Errorf("%w: dynamic array needs a length word, got %d bytes", ErrMalformedData, len(b))
	}
	length := int(new(big.Int).SetBytes(b[:slotSize]).Int64())
	elemTypes := make([]Type, length)
	for i := range elemTypes {
		elemTypes[i] = *t.Elem
	}
	return DecodeMany(elemTypes, b[slotSize:])
}

func decodeFixedArray(t Type, b []byte) (any, error) {
	if t.Elem.IsDynamic() {
		// Mirrors EncodeValue's encoding for this shape: the content is
		// exactly Size repetitions of the element type laid out head/tail,
		// with no length word (decode_many already handles per-item offsets).
		elemTypes := make([]Type, t.Size)
		for i := range elemTypes {
			elemTypes[i] = *t.Elem
		}
		return DecodeMany(elemTypes, b)
	}
	itemLen := slotSize * t.Elem.headSlots()
	out := make([]any, 0, t.Size)
	for i := 0; i < t.Size; i++ {
		start := i * itemLen
		if start+itemLen > len(b) {
			return nil, fmt.Errorf("%w: fixed array needs %d bytes, got %d", ErrMalformedData, (i+1)*itemLen, len(b))
		}
		item, err := DecodeValue(*t.Elem, b[start:start+itemLen])
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// arrayHeadSlots is the number of head slots a fixed array type occupies
// beyond the single slot every argument gets by default: one extra slot per
// additional element for a fixed array of static elements, inlined directly
// in the head. A fixed array of a dynamic element type is itself dynamic
// (EncodeValue/decodeFixedArray) and occupies only the single base slot, an
// offset into its own head/tail content.
func arrayHeadSlots(t Type) int {
	if t.Kind == KindFixedArray && !t.Elem.IsDynamic() {
		return t.Size - 1
	}
	return 0
}

// DecodeMany decodes data against a flat list of types, reconstructing the
// head/tail layout (abi.py's decode_many).
func DecodeMany(types []Type, data []byte) ([]any, error) {
	if len(data)%slotSize != 0 {
		return nil, fmt.Errorf("%w: data length %d is not a multiple of 32", ErrMalformedData, len(data))
	}
	headSizeSlots := len(types)
	for _, t := range types {
		headSizeSlots += arrayHeadSlots(t)
	}

	var slots [][]byte
	for i := 0; i+slotSize <= len(data); i += slotSize {
		slots = append(slots, data[i:i+slotSize])
	}

	var out []any
	headPos, typePos := 0, 0
	for headPos < headSizeSlots {
		if typePos >= len(types) {
			return nil, fmt.Errorf("%w: head position overruns type list", ErrMalformedData)
		}
		outer := types[typePos]
		arrLen := 0
		if outer.Kind == KindFixedArray && !outer.Elem.IsDynamic() {
			arrLen = outer.Size
		}
		headItems := 1
		if arrLen > 0 {
			headItems = arrLen
		}

		var decoded []any
		for i := 0; i < headItems; i++ {
			if headPos >= len(slots) {
				return nil, fmt.Errorf("%w: head position overruns data", ErrMalformedData)
			}
			h := slots[headPos]
			elemType := outer
			if arrLen > 0 {
				elemType = *outer.Elem
			}

			var value any
			var err error
			if !elemType.IsDynamic() {
				value, err = DecodeValue(elemType, h)
			} else {
				tailStart := int(new(big.Int).SetBytes(h).Int64())
				if tailStart%slotSize != 0 || tailStart/slotSize > len(slots) {
					return nil, fmt.Errorf("%w: bad tail offset %d", ErrMalformedData, tailStart)
				}
				value, err = DecodeValue(elemType, data[tailStart:])
			}
			if err != nil {
				return nil, err
			}
			decoded = append(decoded, value)
			headPos++
		}
		typePos++

		if arrLen > 0 {
			out = append(out, decoded)
		} else {
			out = append(out, decoded...)
		}
	}
	return out, nil
}

// DecodeTuple decodes data against an abi-format type-tuple descriptor.
func DecodeTuple(tuple string, data []byte) ([]any, error) {
	types, err := ParseTypes(SplitTuple(tuple))
	if err != nil {
		return nil, err
	}
	return DecodeMany(types, data)
}
