package rpc

import "fmt"

// BlockTag is the union JSON-RPC uses for a block identifier: either a
// literal tag ("latest", "earliest", "pending") or a height.
type BlockTag struct {
	tag    string
	height uint64
	isTag  bool
}

func Latest() BlockTag   { return BlockTag{tag: "latest", isTag: true} }
func Earliest() BlockTag { return BlockTag{tag: "earliest", isTag: true} }
func Pending() BlockTag  { return BlockTag{tag: "pending", isTag: true} }
func Height(h uint64) BlockTag { return BlockTag{height: h} }

// Param renders the value this module's JSON-RPC methods send on the wire.
func (b BlockTag) Param() any {
	if b.isTag {
		return b.tag
	}
	return encodeIfInt(b.height)
}

// encodeIfInt mirrors BaseRPC._encode_if_int: integers become "0x"-prefixed
// hex-quantity strings, everything else passes through unchanged.
func encodeIfInt(v any) any {
	switch n := v.(type) {
	case int:
		return fmt.Sprintf("0x%x", n)
	case int64:
		return fmt.Sprintf("0x%x", n)
	case uint64:
		return fmt.Sprintf("0x%x", n)
	case uint:
		return fmt.Sprintf("0x%x", n)
	default:
		return v
	}
}

// prepParams applies encodeIfInt across a positional parameter list
// (BaseRPC._shallow_prep_params).
func prepParams(params []any) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = encodeIfInt(p)
	}
	return out
}
