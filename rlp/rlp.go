// Package rlp implements the canonical Recursive Length Prefix
// serialization (spec.md 4.1): a tagged union of byte-strings and lists,
// encoded with Ethereum's length-prefix rules.
package rlp

import (
	"fmt"

	"github.com/holiman/uint256"
)

const (
	offsetShortString = 0x80
	offsetLongString  = 0xb7 // offsetShortString + 55
	offsetShortList   = 0xc0
	offsetLongList    = 0xf7 // offsetShortList + 55
)

// Item is the RLP tagged union: either a byte-string or an ordered list of
// items. A nil List with IsList false represents a byte-string.
type Item struct {
	IsList bool
	Str    []byte
	List   []Item
}

// Bytes builds a byte-string item.
func Bytes(b []byte) Item { return Item{Str: b} }

// NewList builds a list item from its children, in order.
func NewList(items ...Item) Item { return Item{IsList: true, List: items} }

// Encode serializes an Item per the canonical RLP rules.
func Encode(item Item) ([]byte, error) {
	if !item.IsList {
		return encodeString(item.Str)
	}
	var payload []byte
	for _, child := range item.List {
		enc, err := Encode(child)
		if err != nil {
			return nil, err
		}
		payload = append(payload, enc...)
	}
	prefix, err := encodeLength(len(payload), offsetShortList, offsetLongList)
	if err != nil {
		return nil, err
	}
	return append(prefix, payload...), nil
}

func encodeString(b []byte) ([]byte, error) {
	if len(b) == 1 && b[0] < offsetShortString {
		return []byte{b[0]}, nil
	}
	prefix, err := encodeLength(len(b), offsetShortString, offsetLongString)
	if err != nil {
		return nil, err
	}
	return append(prefix, b...), nil
}

func encodeLength(length int, shortOffset, longOffset byte) ([]byte, error) {
	if length <= 55 {
		return []byte{shortOffset + byte(length)}, nil
	}
	lenBytes := minimalBigEndian(uint64(length))
	if len(lenBytes) > 8 {
		return nil, fmt.Errorf("%w: length-of-length %d bytes", ErrOverflow, len(lenBytes))
	}
	out := make([]byte, 0, 1+len(lenBytes))
	out = append(out, longOffset+byte(len(lenBytes)))
	out = append(out, lenBytes...)
	return out, nil
}

// minimalBigEndian renders v as minimal-form unsigned big-endian bytes; zero
// renders as the empty slice.
func minimalBigEndian(v uint64) []byte {
	if v == 0 {
		return nil
	}
	var buf [8]byte
	n := 8
	for v > 0 {
		n--
		buf[n] = byte(v)
		v >>= 8
	}
	return append([]byte(nil), buf[n:]...)
}

// EncodeUint renders an unsigned integer in RLP minimal form. Zero encodes
// as the empty byte string.
func EncodeUint(v uint64) []byte { return minimalBigEndian(v) }

// EncodeUint256 renders a uint256.Int in RLP minimal form.
func EncodeUint256(v *uint256.Int) []byte {
	if v == nil || v.IsZero() {
		return nil
	}
	b := v.Bytes() // big-endian, minimal already
	return b
}

// EncodeUint256Padded renders v as exactly width big-endian bytes,
// left-padded with zeros; v must fit in width bytes. Used only
// by callers needing fixed-width sub-fields (spec.md 4.1 notes none of the
// standard transaction fields currently require this).
func EncodeUint256Padded(v *uint256.Int, width int) []byte {
	out := make([]byte, width)
	if v != nil {
		b := v.Bytes()
		copy(out[width-len(b):], b)
	}
	return out
}

// Decode parses a single RLP item from raw, requiring the entire input be
// consumed.
func Decode(raw []byte) (Item, error) {
	item, rest, err := decodeOne(raw)
	if err != nil {
		return Item{}, err
	}
	if len(rest) != 0 {
		return Item{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(rest))
	}
	return item, nil
}

func decodeOne(raw []byte) (Item, []byte, error) {
	if len(raw) == 0 {
		return Item{}, nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	prefixLen, payloadLen, isList, err := decodeLength(raw)
	if err != nil {
		return Item{}, nil, err
	}
	end := prefixLen + payloadLen
	if end > len(raw) {
		return Item{}, nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, end, len(raw))
	}
	payload := raw[prefixLen:end]
	rest := raw[end:]

	if !isList {
		return Item{Str: append([]byte(nil), payload...)}, rest, nil
	}

	var items []Item
	remaining := payload
	for len(remaining) > 0 {
		var child Item
		var err error
		child, remaining, err = decodeOne(remaining)
		if err != nil {
			return Item{}, nil, err
		}
		items = append(items, child)
	}
	return Item{IsList: true, List: items}, rest, nil
}

// decodeLength reads the leading tag byte(s) of raw and returns the length
// of the prefix, the payload length, and whether the payload is a list.
func decodeLength(raw []byte) (prefixLen, payloadLen int, isList bool, err error) {
	if len(raw) == 0 {
		return 0, 0, false, fmt.Errorf("%w: empty input to decode_length", ErrMalformed)
	}
	tag := raw[0]

	switch {
	case tag < offsetShortString:
		return 0, 1, false, nil

	case tag <= offsetLongString:
		return 1, int(tag - offsetShortString), false, nil

	case tag < offsetShortList:
		lenOfLen := int(tag - offsetLongString)
		if 1+lenOfLen > len(raw) {
			return 0, 0, false, fmt.Errorf("%w: length-of-length overruns input", ErrTruncated)
		}
		n, err := readBigEndianLen(raw[1 : 1+lenOfLen])
		if err != nil {
			return 0, 0, false, err
		}
		return 1 + lenOfLen, n, false, nil

	case tag <= offsetLongList:
		return 1, int(tag - offsetShortList), true, nil

	default:
		lenOfLen := int(tag - offsetLongList)
		if 1+lenOfLen > len(raw) {
			return 0, 0, false, fmt.Errorf("%w: length-of-length overruns input", ErrTruncated)
		}
		n, err := readBigEndianLen(raw[1 : 1+lenOfLen])
		if err != nil {
			return 0, 0, false, err
		}
		return 1 + lenOfLen, n, true, nil
	}
}

func readBigEndianLen(b []byte) (int, error) {
	if len(b) > 8 {
		return 0, fmt.Errorf("%w: length-of-length %d bytes", ErrOverflow, len(b))
	}
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	if n > uint64(^uint(0)>>1) {
		return 0, fmt.Errorf("%w: length %d does not fit in an int", ErrOverflow, n)
	}
	return int(n), nil
}

// DecodeUint parses a byte-string item's minimal-form content as an
// unsigned integer.
func DecodeUint(item Item) (uint64, error) {
	if item.IsList {
		return 0, fmt.Errorf("%w: expected byte-string, got list", ErrMalformed)
	}
	var n uint64
	for _, b := range item.Str {
		n = n<<8 | uint64(b)
	}
	return n, nil
}

// DecodeUint256 parses a byte-string item's minimal-form content as a
// uint256.Int.
func DecodeUint256(item Item) (*uint256.Int, error) {
	if item.IsList {
		return nil, fmt.Errorf("%w: expected byte-string, got list", ErrMalformed)
	}
	return new(uint256.Int).SetBytes(item.Str), nil
}
