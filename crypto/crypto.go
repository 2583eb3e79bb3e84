/*
   Copyright 2021 The Erigon contributors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package crypto is the Crypto collaborator: Keccak-256 hashing, key
// derivation, digest signing and public key recovery over secp256k1.
package crypto

import (
	"fmt"

	"github.com/erigontech/secp256k1"
	"golang.org/x/crypto/sha3"

	"github.com/erigontech/ethkit/common"
)

// Crypto is the signing/hashing collaborator threaded through txn and abi.
// The default implementation is Secp256k1.
type Crypto interface {
	Keccak256(data ...[]byte) common.Hash
	PrivToPub(priv []byte) (pub []byte, err error)
	PubToAddress(pub []byte) common.Address
	Sign(digest common.Hash, priv []byte) (sig [65]byte, err error)
	RecoverPubkey(digest common.Hash, sig []byte) (pub []byte, err error)
	RecoverSender(digest common.Hash, sig []byte) (common.Address, error)
}

// Secp256k1 is the default Crypto implementation, grounded on the same
// sha3/secp256k1 pair erigon-lib/types/txn.go uses for sighash derivation
// and sender recovery.
type Secp256k1 struct{}

var _ Crypto = Secp256k1{}

// Keccak256 hashes the concatenation of data with Keccak-256 (not NIST
// SHA-3 — the pre-standardization variant Ethereum uses throughout).
func (Secp256k1) Keccak256(data ...[]byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// PrivToPub derives the 64-byte uncompressed public key (no 0x04 prefix)
// from a 32-byte private key.
func (Secp256k1) PrivToPub(priv []byte) ([]byte, error) {
	pub, err := secp256k1.GeneratePublicKey(priv)
	if err != nil {
		return nil, fmt.Errorf("crypto: derive public key: %w", err)
	}
	if len(pub) == 65 && pub[0] == 0x04 {
		return pub[1:], nil
	}
	return pub, nil
}

// PubToAddress derives an Address as the low 20 bytes of Keccak256(pubkey),
// where pubkey is the 64-byte X||Y encoding (no 0x04 prefix).
func (c Secp256k1) PubToAddress(pub []byte) common.Address {
	h := c.Keccak256(pub)
	return common.BytesToAddress(h[12:])
}

// Sign produces a 65-byte recoverable signature R||S||V (V in {0,1}) over a
// 32-byte digest. Callers fold chain-ID EIP-155 adjustment into the
// transaction's v field themselves (txn.Sign) — this method always returns
// the raw recovery id.
func (Secp256k1) Sign(digest common.Hash, priv []byte) (sig [65]byte, err error) {
	raw, err := secp256k1.Sign(digest[:], priv)
	if err != nil {
		return sig, fmt.Errorf("crypto: sign digest: %w", err)
	}
	copy(sig[:], raw)
	return sig, nil
}

// RecoverPubkey recovers the 64-byte uncompressed public key (X||Y, no 0x04
// prefix) that produced sig over digest. sig is R||S||V, V in {0,1}.
func (Secp256k1) RecoverPubkey(digest common.Hash, sig []byte) ([]byte, error) {
	pub, err := secp256k1.RecoverPubkeyWithContext(secp256k1.DefaultContext, digest[:], sig, nil)
	if err != nil {
		return nil, fmt.Errorf("crypto: recover pubkey: %w", err)
	}
	if len(pub) == 65 && pub[0] == 0x04 {
		return pub[1:], nil
	}
	return pub, nil
}

// RecoverSender recovers the sending Address from a digest and signature in
// one step.
func (c Secp256k1) RecoverSender(digest common.Hash, sig []byte) (common.Address, error) {
	pub, err := c.RecoverPubkey(digest, sig)
	if err != nil {
		return common.Address{}, err
	}
	return c.PubToAddress(pub), nil
}
