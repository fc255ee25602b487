// SPDX-License-Identifier: MPL-2.0

package brontide

import (
	"crypto/sha256"

	"github.com/noisysockets/brontide/internal/noisecrypto"
)

// protocolName and lightningTag are the two strings the Noise_XK domain
// separation constants are derived from. They are not used after init.
const (
	protocolName = "Noise_XK_secp256k1_ChaChaPoly_SHA256"
	lightningTag = "lightning"
)

// noiseCK and noiseH are the protocol's fixed starting chaining key and
// handshake hash, computed once at package init the same way the
// teacher's noise-protocol.go precomputes InitialChainKey/InitialHash.
var (
	noiseCK [32]byte
	noiseH  [32]byte
)

func init() {
	noiseCK = sha256.Sum256([]byte(protocolName))

	h := sha256.New()
	h.Write(noiseCK[:])
	h.Write([]byte(lightningTag))
	copy(noiseH[:], h.Sum(nil))
}

// mixHash folds data into the rolling handshake hash: h <- SHA256(h || data...).
func mixHash(h *[32]byte, data ...[]byte) {
	hasher := sha256.New()
	hasher.Write(h[:])
	for _, d := range data {
		hasher.Write(d)
	}
	copy(h[:], hasher.Sum(nil))
}

// hkdfMix derives a new chaining key and a temporary AEAD key from the
// current chaining key and a freshly computed ECDH shared secret. ck is
// overwritten in place; the temporary key is returned for the caller to
// use in a single AEAD operation.
func hkdfMix(ck *[32]byte, ss [32]byte) [32]byte {
	newCK, tempK := noisecrypto.HKDF2(ck[:], ss[:])
	*ck = newCK
	return tempK
}
