package abi

import "fmt"

// ResolveMode controls how Resolve treats multiple candidate overloads that
// each successfully encode the supplied arguments.
type ResolveMode int

const (
	// FirstMatch returns the first candidate (in ABI declaration order)
	// whose inputs successfully encode the arguments. This is the default
	// policy (calldata.py's find_function is stricter; spec.md 4.2 instead
	// documents "first success wins" as the default and ambiguity
	// detection as opt-in).
	FirstMatch ResolveMode = iota
	// StrictUnique requires exactly one candidate to match; more than one
	// successful match is reported as ErrAmbiguous.
	StrictUnique
)

// Resolve finds the function entry named name whose input types can encode
// args, among the function entries of abiEntries. It also pre-filters by
// input arity, matching calldata.py's find_function three-stage filter
// (name, arg count, then successful encoding).
func Resolve(abiEntries []Entry, name string, args []any, mode ResolveMode) (Entry, error) {
	var candidates []Entry
	for _, e := range abiEntries {
		if e.Type != "function" || e.Name != name || len(e.Inputs) != len(args) {
			continue
		}
		candidates = append(candidates, e)
	}

	var matches []Entry
	for _, c := range candidates {
		types, err := inputTypes(c)
		if err != nil {
			continue
		}
		if _, err := EncodeMany(types, args); err != nil {
			continue
		}
		matches = append(matches, c)
		if mode == FirstMatch {
			return c, nil
		}
	}

	switch len(matches) {
	case 0:
		return Entry{}, fmt.Errorf("%w: %q with %d argument(s)", ErrNoMatch, name, len(args))
	case 1:
		return matches[0], nil
	default:
		return Entry{}, fmt.Errorf("%w: %q has %d matching overloads", ErrAmbiguous, name, len(matches))
	}
}

// ResolveAndEncode finds a matching function entry by name and encodes the
// call in one step (calldata.py's call()).
func ResolveAndEncode(abiEntries []Entry, name string, args []any, mode ResolveMode) ([]byte, error) {
	entry, err := Resolve(abiEntries, name, args, mode)
	if err != nil {
		return nil, err
	}
	return EncodeCall(entry, args)
}
