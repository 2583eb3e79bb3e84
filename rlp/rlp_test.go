package rlp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeSingleByte(t *testing.T) {
	enc, err := Encode(Bytes([]byte{0x7f}))
	require.NoError(t, err)
	require.Equal(t, []byte{0x7f}, enc)
}

func TestEncodeShortStringBoundary(t *testing.T) {
	enc, err := Encode(Bytes([]byte{0x80}))
	require.NoError(t, err)
	require.Equal(t, []byte{0x81, 0x80}, enc)
}

func TestEncodeZeroIsEmptyString(t *testing.T) {
	require.Nil(t, EncodeUint(0))

	enc, err := Encode(Bytes(nil))
	require.NoError(t, err)
	require.Equal(t, []byte{0x80}, enc)
}

func TestEncodeListOfStrings(t *testing.T) {
	item := NewList(Bytes([]byte("dog")), Bytes([]byte("god")), Bytes([]byte("cat")))
	enc, err := Encode(item)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0xcc,
		0x83, 'd', 'o', 'g',
		0x83, 'g', 'o', 'd',
		0x83, 'c', 'a', 't',
	}, enc)
}

func TestEncodeLongString(t *testing.T) {
	payload := make([]byte, 56)
	for i := range payload {
		payload[i] = byte(i)
	}
	enc, err := Encode(Bytes(payload))
	require.NoError(t, err)
	require.Equal(t, byte(offsetLongString+1), enc[0])
	require.Equal(t, byte(56), enc[1])
	require.Equal(t, payload, enc[2:])
}

func TestDecodeRoundTrip(t *testing.T) {
	cases := []Item{
		Bytes([]byte{0x7f}),
		Bytes(nil),
		Bytes([]byte{0x80}),
		NewList(Bytes([]byte("dog")), Bytes([]byte("god")), Bytes([]byte("cat"))),
		NewList(),
		NewList(NewList(), NewList(NewList())),
	}
	for _, c := range cases {
		enc, err := Encode(c)
		require.NoError(t, err)
		dec, err := Decode(enc)
		require.NoError(t, err)
		require.Equal(t, c, dec)
	}
}

func TestDecodeTruncatedInput(t *testing.T) {
	_, err := Decode([]byte{0x83, 'd', 'o'})
	require.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeTrailingBytesIsMalformed(t *testing.T) {
	_, err := Decode([]byte{0x7f, 0x7f})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestEncodeLengthOfLengthOverflow(t *testing.T) {
	_, err := encodeLength(0, offsetShortString, offsetLongString)
	require.NoError(t, err)

	// A length requiring 9+ bytes cannot occur from an int on 64-bit
	// platforms via this helper (uint64 caps at 8 bytes), and no tag byte
	// can claim a 9-byte length-of-length, so overflow is exercised at the
	// decode side instead: an 8-byte long-form length whose value does not
	// fit in an int must be rejected.
	raw := []byte{offsetLongString + 8, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	_, err = Decode(raw)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestUintMinimalForm(t *testing.T) {
	require.Equal(t, []byte{0x09}, EncodeUint(9))
	require.Equal(t, []byte{0x04, 0xa8, 0x17, 0xc8, 0x00}, EncodeUint(20_000_000_000))
}
