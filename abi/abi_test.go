package abi

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/ethkit/common"
)

func TestErc20TransferSelector(t *testing.T) {
	sel := Selector("transfer(address,uint256)")
	require.Equal(t, [4]byte{0xa9, 0x05, 0x9c, 0xbb}, sel)
}

func TestOneLengthArrayRejected(t *testing.T) {
	_, err := ParseType("uint256[1]")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestFixedBytesRoundTrip(t *testing.T) {
	for size := 1; size <= 32; size++ {
		typ, err := ParseType(fmt.Sprintf("bytes%d", size))
		require.NoError(t, err)

		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i + 1)
		}
		head, tail, err := EncodeValue(typ, payload)
		require.NoError(t, err)
		require.Nil(t, tail)
		require.Len(t, head, 32)

		decoded, err := DecodeValue(typ, head)
		require.NoError(t, err)
		require.Equal(t, payload, decoded)
	}
}

func TestBytes33Rejected(t *testing.T) {
	_, err := ParseType("bytes33")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestBytes0Rejected(t *testing.T) {
	_, err := ParseType("bytes0")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestUint256MaxRoundTrip(t *testing.T) {
	typ, err := ParseType("uint256")
	require.NoError(t, err)

	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	head, _, err := EncodeValue(typ, max)
	require.NoError(t, err)

	decoded, err := DecodeValue(typ, head)
	require.NoError(t, err)
	require.Equal(t, max, decoded)
}

func TestInt256MinRoundTrip(t *testing.T) {
	typ, err := ParseType("int256")
	require.NoError(t, err)

	min := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
	head, _, err := EncodeValue(typ, min)
	require.NoError(t, err)
	require.Equal(t, byte(0x80), head[0])

	decoded, err := DecodeValue(typ, head)
	require.NoError(t, err)
	require.Equal(t, min, decoded)
}

func TestEncodeManyWithDynamicArrayInTuple(t *testing.T) {
	types, err := ParseTypes([]string{"address", "uint256[]"})
	require.NoError(t, err)

	addr, err := common.HexToAddress("0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	args := []any{addr, []any{big.NewInt(1), big.NewInt(2), big.NewInt(3)}}

	encoded, err := EncodeMany(types, args)
	require.NoError(t, err)

	decoded, err := DecodeMany(types, encoded)
	require.NoError(t, err)
	require.Equal(t, addr, decoded[0])
	require.Equal(t, []any{big.NewInt(1), big.NewInt(2), big.NewInt(3)}, decoded[1])
}

func TestFixedArrayOfDynamicElementRoundTrip(t *testing.T) {
	typ, err := ParseType("string[3]")
	require.NoError(t, err)
	require.True(t, typ.IsDynamic())

	items := []any{"foo", "a much longer second string", "baz"}
	head, tail, err := EncodeValue(typ, items)
	require.NoError(t, err)
	require.Nil(t, head)
	require.NotEmpty(t, tail)

	decoded, err := DecodeValue(typ, tail)
	require.NoError(t, err)
	require.Equal(t, items, decoded)
}

func TestFixedArrayOfDynamicElementInTuple(t *testing.T) {
	types, err := ParseTypes([]string{"address", "bytes[2]"})
	require.NoError(t, err)

	addr, err := common.HexToAddress("0x3333333333333333333333333333333333333333")
	require.NoError(t, err)
	args := []any{addr, []any{[]byte{0x01, 0x02}, []byte{0x03}}}

	encoded, err := EncodeMany(types, args)
	require.NoError(t, err)

	decoded, err := DecodeMany(types, encoded)
	require.NoError(t, err)
	require.Equal(t, addr, decoded[0])
	require.Equal(t, args[1], decoded[1])
}

func TestResolveFirstMatchWins(t *testing.T) {
	abiEntries := []Entry{
		{Type: "function", Name: "transfer", Inputs: []Parameter{{Type: "address"}, {Type: "uint256"}}},
		{Type: "function", Name: "transfer", Inputs: []Parameter{{Type: "address"}, {Type: "uint64"}}},
	}
	addr, err := common.HexToAddress("0x2222222222222222222222222222222222222222")
	require.NoError(t, err)
	entry, err := Resolve(abiEntries, "transfer", []any{addr, big.NewInt(5)}, FirstMatch)
	require.NoError(t, err)
	require.Equal(t, "uint256", entry.Inputs[1].Type)
}

func TestResolveStrictAmbiguous(t *testing.T) {
	abiEntries := []Entry{
		{Type: "function", Name: "transfer", Inputs: []Parameter{{Type: "address"}, {Type: "uint256"}}},
		{Type: "function", Name: "transfer", Inputs: []Parameter{{Type: "address"}, {Type: "uint64"}}},
	}
	addr, err := common.HexToAddress("0x2222222222222222222222222222222222222222")
	require.NoError(t, err)
	_, err = Resolve(abiEntries, "transfer", []any{addr, big.NewInt(5)}, StrictUnique)
	require.ErrorIs(t, err, ErrAmbiguous)
}

func TestResolveExcludesOverflowingOverload(t *testing.T) {
	abiEntries := []Entry{
		{Type: "function", Name: "transfer", Inputs: []Parameter{{Type: "address"}, {Type: "uint256"}}},
		{Type: "function", Name: "transfer", Inputs: []Parameter{{Type: "address"}, {Type: "uint8"}}},
	}
	addr, err := common.HexToAddress("0x2222222222222222222222222222222222222222")
	require.NoError(t, err)
	big5000 := big.NewInt(5000)
	entry, err := Resolve(abiEntries, "transfer", []any{addr, big5000}, StrictUnique)
	require.NoError(t, err)
	require.Equal(t, "uint256", entry.Inputs[1].Type)
}

func TestResolveNoMatch(t *testing.T) {
	abiEntries := []Entry{
		{Type: "function", Name: "transfer", Inputs: []Parameter{{Type: "address"}, {Type: "uint256"}}},
	}
	_, err := Resolve(abiEntries, "approve", []any{}, FirstMatch)
	require.ErrorIs(t, err, ErrNoMatch)
}
