// Package abi implements Solidity Contract ABI v2 encoding: type-descriptor
// parsing, head/tail value encoding and decoding, function selectors and
// event topics, and a call-by-name entry resolver (spec.md 4.2).
package abi

import (
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Kind is the discriminant of a parsed Type.
type Kind int

const (
	KindUint Kind = iota
	KindInt
	KindBool
	KindAddress
	KindFixedBytes
	KindBytes
	KindString
	KindFixedArray
	KindDynamicArray
)

// Type is a parsed ABI type descriptor, built once per distinct descriptor
// string and cached (spec.md 4.2: "parsed into a small recursive type tree
// once, not re-parsed per operation").
type Type struct {
	Kind Kind
	Bits int   // uint<Bits>, int<Bits>
	Size int   // bytes<Size>; for FixedArray, the array length
	Elem *Type // element type of FixedArray / DynamicArray
	raw  string
}

func (t Type) String() string { return t.raw }

// IsDynamic reports whether t's encoding requires a tail (offset in the
// head, payload elsewhere): dynamic arrays, strings, bytes, and any
// fixed array whose element type is itself dynamic.
func (t Type) IsDynamic() bool {
	switch t.Kind {
	case KindString, KindBytes, KindDynamicArray:
		return true
	case KindFixedArray:
		return t.Elem.IsDynamic()
	default:
		return false
	}
}

// headSlots is the number of 32-byte head slots t occupies when it is a
// top-level argument: 1 for everything except a fixed array of static
// elements, which reserves one slot per element in the head itself.
func (t Type) headSlots() int {
	if t.Kind == KindFixedArray && !t.Elem.IsDynamic() {
		return t.Size * t.Elem.headSlots()
	}
	return 1
}

var typeCache, _ = lru.New[string, Type](256)

// ParseType parses a type descriptor string (e.g. "uint256", "address[]",
// "bytes32[4]") into a Type, consulting a small LRU cache keyed on the raw
// descriptor so repeated calls against the same ABI don't re-parse.
func ParseType(descriptor string) (Type, error) {
	if cached, ok := typeCache.Get(descriptor); ok {
		return cached, nil
	}
	t, err := parseType(descriptor)
	if err != nil {
		return Type{}, err
	}
	t.raw = descriptor
	typeCache.Add(descriptor, t)
	return t, nil
}

func parseType(descriptor string) (Type, error) {
	if strings.HasSuffix(descriptor, "[]") {
		elem, err := ParseType(descriptor[:len(descriptor)-2])
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindDynamicArray, Elem: &elem}, nil
	}

	if strings.HasSuffix(descriptor, "]") {
		open := strings.LastIndexByte(descriptor, '[')
		if open < 0 {
			return Type{}, fmt.Errorf("%w: %q", ErrUnknownType, descriptor)
		}
		lengthStr := descriptor[open+1 : len(descriptor)-1]
		n, err := strconv.Atoi(lengthStr)
		if err != nil {
			return Type{}, fmt.Errorf("%w: bad array length in %q: %v", ErrUnknownType, descriptor, err)
		}
		if n == 1 {
			return Type{}, fmt.Errorf("%w: 1-length arrays are not supported: %q", ErrUnknownType, descriptor)
		}
		if n <= 0 {
			return Type{}, fmt.Errorf("%w: non-positive array length in %q", ErrUnknownType, descriptor)
		}
		elem, err := ParseType(descriptor[:open])
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindFixedArray, Size: n, Elem: &elem}, nil
	}

	switch descriptor {
	case "address":
		return Type{Kind: KindAddress}, nil
	case "bool":
		return Type{Kind: KindBool}, nil
	case "string":
		return Type{Kind: KindString}, nil
	case "bytes":
		return Type{Kind: KindBytes}, nil
	}

	if strings.HasPrefix(descriptor, "uint") {
		bits, err := parseBits(descriptor, "uint")
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindUint, Bits: bits}, nil
	}
	if strings.HasPrefix(descriptor, "int") {
		bits, err := parseBits(descriptor, "int")
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindInt, Bits: bits}, nil
	}
	if strings.HasPrefix(descriptor, "bytes") {
		size, err := strconv.Atoi(descriptor[len("bytes"):])
		if err != nil {
			return Type{}, fmt.Errorf("%w: bad bytesN size in %q: %v", ErrUnknownType, descriptor, err)
		}
		if size < 1 || size > 32 {
			return Type{}, fmt.Errorf("%w: bytesN size out of range [1,32]: %q", ErrUnknownType, descriptor)
		}
		return Type{Kind: KindFixedBytes, Size: size}, nil
	}
	if strings.HasPrefix(descriptor, "fixed") {
		return Type{}, fmt.Errorf("%w: fixed-point types are not supported: %q", ErrUnknownType, descriptor)
	}

	return Type{}, fmt.Errorf("%w: %q", ErrUnknownType, descriptor)
}

func parseBits(descriptor, prefix string) (int, error) {
	suffix := descriptor[len(prefix):]
	if suffix == "" {
		return 256, nil
	}
	bits, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, fmt.Errorf("%w: bad bit width in %q: %v", ErrUnknownType, descriptor, err)
	}
	if bits <= 0 || bits > 256 || bits%8 != 0 {
		return 0, fmt.Errorf("%w: bit width must be a multiple of 8 in [8,256]: %q", ErrUnknownType, descriptor)
	}
	return bits, nil
}

// ParseTypes parses each member descriptor of a type tuple, e.g. the
// members SplitTuple returns for "(bytes,int,address[])".
func ParseTypes(descriptors []string) ([]Type, error) {
	out := make([]Type, len(descriptors))
	for i, d := range descriptors {
		t, err := ParseType(d)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// SplitTuple strips the surrounding parens from a type-tuple descriptor
// ("(bytes,int)") and splits its top-level members. Nested tuples are not
// part of this grammar (spec.md 4.2 scopes to Solidity's primitive and
// array types); a literal comma therefore always separates two members.
func SplitTuple(tuple string) []string {
	tuple = strings.TrimPrefix(tuple, "(")
	tuple = strings.TrimSuffix(tuple, ")")
	if tuple == "" {
		return nil
	}
	return strings.Split(tuple, ",")
}
