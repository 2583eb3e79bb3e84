package common

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
)

// Uint64 marshals to/from the "0x"-prefixed hex-quantity encoding JSON-RPC
// uses for integers, mirroring the teacher's own hexutil.Uint64.
type Uint64 uint64

func (u Uint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("0x%x", uint64(u)))
}

func (u *Uint64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("common: Uint64 unmarshal: %w", err)
	}
	n, err := strconv.ParseUint(trim0x(s), 16, 64)
	if err != nil {
		return fmt.Errorf("common: Uint64 unmarshal %q: %w", s, err)
	}
	*u = Uint64(n)
	return nil
}

// Big marshals to/from the "0x"-prefixed hex-quantity encoding for
// arbitrary-precision integers (used for value/gasPrice/v/r/s).
type Big big.Int

func (b Big) MarshalJSON() ([]byte, error) {
	i := (*big.Int)(&b)
	return json.Marshal("0x" + i.Text(16))
}

func (b *Big) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("common: Big unmarshal: %w", err)
	}
	i, ok := new(big.Int).SetString(trim0x(s), 16)
	if !ok {
		return fmt.Errorf("common: Big unmarshal: invalid hex quantity %q", s)
	}
	*b = Big(*i)
	return nil
}

func (b *Big) ToInt() *big.Int { return (*big.Int)(b) }

// Bytes marshals to/from "0x"-prefixed hex for byte payloads (calldata,
// signatures).
type Bytes []byte

func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + hex.EncodeToString(b))
}

func (b *Bytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("common: Bytes unmarshal: %w", err)
	}
	raw, err := decodeHex(s)
	if err != nil {
		return err
	}
	*b = raw
	return nil
}

func trim0x(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if s == "" {
		return "0"
	}
	return s
}
