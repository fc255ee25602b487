// SPDX-License-Identifier: MPL-2.0

// Package curve adapts github.com/btcsuite/btcd/btcec/v2 to the byte
// conventions the Noise_XK handshake expects: compressed points, a
// 32-byte ECDH output, and a single parse-with-failure entry point.
// Everything in this package is an external collaborator from the
// handshake's point of view — it never sees a handshake hash or a
// chaining key.
package curve

import (
	"crypto/sha256"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
)

// ErrInvalidPublicKey is returned when a byte string does not decode to a
// valid compressed secp256k1 point.
var ErrInvalidPublicKey = errors.New("curve: invalid public key")

// PublicKeySize is the length of a compressed secp256k1 point.
const PublicKeySize = 33

// GeneratePublic returns the compressed public key for a secret key.
func GeneratePublic(priv *btcec.PrivateKey) *btcec.PublicKey {
	return priv.PubKey()
}

// ParsePublicKey parses a compressed secp256k1 point, returning
// ErrInvalidPublicKey if b does not decode to a point on the curve.
func ParsePublicKey(b []byte) (*btcec.PublicKey, error) {
	pub, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	return pub, nil
}

// ECDH computes the Noise shared secret ss = SHA256(serializeCompressed(priv*pub)),
// the same construction lnd's brontide package uses rather than a raw
// x-coordinate.
func ECDH(priv *btcec.PrivateKey, pub *btcec.PublicKey) [32]byte {
	var pubJacobian, s btcec.JacobianPoint
	pub.AsJacobian(&pubJacobian)

	btcec.ScalarMultNonConst(&priv.Key, &pubJacobian, &s)
	s.ToAffine()

	sPubKey := btcec.NewPublicKey(&s.X, &s.Y)
	return sha256.Sum256(sPubKey.SerializeCompressed())
}
