package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeccak256EmptyInput(t *testing.T) {
	var c Secp256k1
	h := c.Keccak256()
	require.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", h.Hex())
}

func TestKeccak256ConcatenatesArgs(t *testing.T) {
	var c Secp256k1
	whole := c.Keccak256([]byte("helloworld"))
	split := c.Keccak256([]byte("hello"), []byte("world"))
	require.Equal(t, whole, split)
}

func TestPubToAddressTakesLow20Bytes(t *testing.T) {
	var c Secp256k1
	pub := make([]byte, 64)
	for i := range pub {
		pub[i] = byte(i)
	}
	addr := c.PubToAddress(pub)
	h := c.Keccak256(pub)
	require.Equal(t, h[12:], addr[:])
}
