package abi

import (
	"fmt"
	"strings"

	"github.com/erigontech/ethkit/common"
	"github.com/erigontech/ethkit/crypto"
)

// Parameter is one entry of a function/event's inputs or outputs array.
type Parameter struct {
	Name string
	Type string
}

// Entry is a single item of a contract ABI: a function, event, constructor
// or fallback/receive declaration.
type Entry struct {
	Type       string // "function", "event", "constructor", "fallback", "receive"
	Name       string
	Inputs     []Parameter
	Outputs    []Parameter
	Anonymous  bool
	StateMutability string
}

// TypeTuple renders an entry's inputs as a comma-delimited type tuple, e.g.
// "(address,uint256)" — the shared building block for both the call
// signature and its encoding (calldata.py's make_type_list).
func (e Entry) TypeTuple() string {
	types := make([]string, len(e.Inputs))
	for i, p := range e.Inputs {
		types[i] = p.Type
	}
	return "(" + strings.Join(types, ",") + ")"
}

// Signature renders the canonical "name(type,type)" signature used to
// derive selectors and event topics.
func (e Entry) Signature() string {
	return e.Name + e.TypeTuple()
}

var defaultCrypto crypto.Crypto = crypto.Secp256k1{}

// Selector computes the 4-byte function selector: the leading bytes of
// Keccak256(signature).
func Selector(signature string) [4]byte {
	h := defaultCrypto.Keccak256([]byte(signature))
	var sel [4]byte
	copy(sel[:], h[:4])
	return sel
}

// Topic0 computes the full 32-byte event topic: Keccak256(signature) with
// no truncation.
func Topic0(signature string) common.Hash {
	return defaultCrypto.Keccak256([]byte(signature))
}

// EncodeCall builds the calldata for a contract call: the 4-byte selector
// followed by the ABI-encoded arguments.
func EncodeCall(e Entry, args []any) ([]byte, error) {
	types, err := inputTypes(e)
	if err != nil {
		return nil, err
	}
	body, err := EncodeMany(types, args)
	if err != nil {
		return nil, err
	}
	sel := Selector(e.Signature())
	out := make([]byte, 0, 4+len(body))
	out = append(out, sel[:]...)
	out = append(out, body...)
	return out, nil
}

func inputTypes(e Entry) ([]Type, error) {
	descriptors := make([]string, len(e.Inputs))
	for i, p := range e.Inputs {
		descriptors[i] = p.Type
	}
	types, err := ParseTypes(descriptors)
	if err != nil {
		return nil, fmt.Errorf("abi: entry %q: %w", e.Name, err)
	}
	return types, nil
}

// Find returns every entry in abi named name, regardless of kind.
func Find(abiEntries []Entry, name string) []Entry {
	var out []Entry
	for _, e := range abiEntries {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
