// SPDX-License-Identifier: MPL-2.0

// Package noisecrypto implements the AEAD-with-associated-data and HKDF
// helpers the Noise_XK handshake and the BOLT-8 transport cipher are built
// from, adapted to their exact byte conventions. Nothing in this package
// knows what a handshake phase or a chaining key is; it is pure functions
// over keys, nonce counters and byte slices.
package noisecrypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrBadMAC is returned by DecryptWithAD when the Poly1305 tag fails to
// verify. The returned plaintext is nil and must not be treated as valid.
var ErrBadMAC = errors.New("noisecrypto: bad MAC")

// TagSize is the length of a Poly1305 authentication tag.
const TagSize = chacha20poly1305.Overhead

// KeySize is the length of a ChaCha20-Poly1305 key.
const KeySize = chacha20poly1305.KeySize

func nonce(n uint64) [chacha20poly1305.NonceSize]byte {
	var out [chacha20poly1305.NonceSize]byte
	binary.LittleEndian.PutUint64(out[4:], n)
	return out
}

// EncryptWithAD seals plaintext under key, using n as the little-endian
// nonce counter (four zero bytes followed by n) and ad as associated data.
// The result is ciphertext||tag.
func EncryptWithAD(n uint64, key, ad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nb := nonce(n)
	return aead.Seal(nil, nb[:], plaintext, ad), nil
}

// DecryptWithAD opens ciphertext (ciphertext||tag) under key, using n as
// the little-endian nonce counter and ad as associated data. It returns
// ErrBadMAC if the tag does not verify.
func DecryptWithAD(n uint64, key, ad, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nb := nonce(n)
	plaintext, err := aead.Open(nil, nb[:], ciphertext, ad)
	if err != nil {
		return nil, ErrBadMAC
	}
	return plaintext, nil
}

// HKDF2 is the HMAC-SHA-256-based extract-then-expand function specialized
// to exactly two 32-byte outputs:
//
//	PRK = HMAC(salt, ikm)
//	t1  = HMAC(PRK, 0x01)
//	t2  = HMAC(PRK, t1 || 0x02)
func HKDF2(salt, ikm []byte) (t1, t2 [32]byte) {
	prkMAC := hmac.New(sha256.New, salt)
	prkMAC.Write(ikm)
	prk := prkMAC.Sum(nil)

	t1MAC := hmac.New(sha256.New, prk)
	t1MAC.Write([]byte{0x01})
	copy(t1[:], t1MAC.Sum(nil))

	t2MAC := hmac.New(sha256.New, prk)
	t2MAC.Write(t1[:])
	t2MAC.Write([]byte{0x02})
	copy(t2[:], t2MAC.Sum(nil))

	return t1, t2
}
