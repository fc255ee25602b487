// SPDX-License-Identifier: MPL-2.0

// Package brontide implements the BOLT-8 Noise_XK transport encryptor
// used by the Lightning Network peer-to-peer wire protocol: a three-act
// handshake over secp256k1 followed by a length-framed, authenticated
// ChaCha20-Poly1305 message transport with periodic key rotation.
//
// A Machine starts in one of two pre-handshake phases (outbound for an
// initiator, inbound for a responder) and is driven forward one act at a
// time until it reaches its finished phase, at which point EncryptMessage
// / DecryptLengthHeader / DecryptMessage become available. Every
// handshake method is one-shot: Go has no affine types, so Machine
// enforces single-use by tagging its current phase at runtime and
// rejecting (ErrInvalidState) any call that doesn't match it, the "Mandatory
// in languages without affine types" strategy this protocol's design notes
// call for.
package brontide

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/noisysockets/brontide/config"
)

// Wire sizes fixed by BOLT-8.
const (
	// ActOneSize is the length of Act 1: 1 version byte + 33-byte
	// compressed ephemeral point + 16-byte Poly1305 tag.
	ActOneSize = 50
	// ActTwoSize is the length of Act 2, identical in shape to Act 1.
	ActTwoSize = 50
	// ActThreeSize is the length of Act 3: 1 version byte + 33-byte
	// encrypted static point + 16-byte tag + 16-byte final tag.
	ActThreeSize = 66
	// LengthHeaderSize is the length of an encrypted message-length
	// header: 2-byte length + 16-byte Poly1305 tag.
	LengthHeaderSize = 18
	// MaxPayloadSize is the largest plaintext EncryptMessage accepts.
	MaxPayloadSize = 65535
	// MaxCiphertextSize is the largest ciphertext DecryptMessage accepts.
	MaxCiphertextSize = MaxPayloadSize + 16
)

type role int

const (
	roleInitiator role = iota
	roleResponder
)

type phase int

const (
	phasePreActOneOutbound phase = iota
	phasePreActOneInbound
	phasePostActOneOutbound
	phasePostActTwoInbound
	phaseFinished
	phaseInvalid
)

// Machine is a BOLT-8 PeerChannelEncryptor. The zero value is not usable;
// construct one with NewInitiator or NewResponder.
type Machine struct {
	cfg config.Config

	role  role
	phase phase

	// Symmetric state, valid until phaseFinished consumes it into the
	// transport keys below.
	h  [32]byte
	ck [32]byte

	// Initiator-only directional state (OutboundData in spec.md's
	// terms): the local ephemeral secret and the remote's known static
	// public key. Both are held from construction through ProcessActTwo.
	localEphemeral *btcec.PrivateKey
	remoteStatic   *btcec.PublicKey

	// Responder-only directional state. remoteEphemeral is the
	// initiator's ephemeral public key, captured by ProcessActOneWithKeys.
	// responderEphemeral and tempK2 are populated by the same call and
	// consumed by ProcessActThree.
	remoteEphemeral   *btcec.PublicKey
	responderEphemeral *btcec.PrivateKey
	tempK2            [32]byte

	// Transport state, valid from phaseFinished onward.
	sendKey   [32]byte
	sendChain [32]byte
	sendNonce uint64
	recvKey   [32]byte
	recvChain [32]byte
	recvNonce uint64
}

// NewInitiator constructs a Machine in the initiator's pre-Act-1 phase.
// remoteStatic is the peer's known static public key; localEphemeral is
// the caller-supplied ephemeral secret for this session — the core never
// generates keys itself.
func NewInitiator(remoteStatic *btcec.PublicKey, localEphemeral *btcec.PrivateKey, opts ...config.Option) *Machine {
	cfg := config.New()
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Machine{
		cfg:            cfg,
		role:           roleInitiator,
		phase:          phasePreActOneOutbound,
		ck:             noiseCK,
		localEphemeral: localEphemeral,
		remoteStatic:   remoteStatic,
	}
	m.h = noiseH
	mixHash(&m.h, remoteStatic.SerializeCompressed())
	return m
}

// NewResponder constructs a Machine in the responder's pre-Act-1 phase.
// localStatic is this node's own static secret key.
func NewResponder(localStatic *btcec.PrivateKey, opts ...config.Option) *Machine {
	cfg := config.New()
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Machine{
		cfg:   cfg,
		role:  roleResponder,
		phase: phasePreActOneInbound,
		ck:    noiseCK,
	}
	m.h = noiseH
	mixHash(&m.h, localStatic.PubKey().SerializeCompressed())
	return m
}

// zeroPrivateKey scrubs a secp256k1 secret key from memory once it has
// been consumed, mirroring the teacher's setZero calls on handshake
// secrets in BeginSymmetricSession.
func zeroPrivateKey(k *btcec.PrivateKey) {
	if k != nil {
		k.Zero()
	}
}

func zero32(b *[32]byte) {
	for i := range b {
		b[i] = 0
	}
}

// invalidate transitions m to the terminal invalid phase and scrubs any
// secrets this phase held, so a caller holding a stale reference to a
// consumed Machine cannot replay a transition (invariant I3).
func (m *Machine) invalidate() {
	m.phase = phaseInvalid
	zeroPrivateKey(m.localEphemeral)
	zeroPrivateKey(m.responderEphemeral)
	zero32(&m.tempK2)
}
