// SPDX-License-Identifier: MPL-2.0

package brontide

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/noisysockets/brontide/internal/curve"
	"github.com/noisysockets/brontide/internal/noisecrypto"
)

// outboundNoiseAct builds one "our ephemeral, ECDH, encrypt-empty" act —
// the shared shape of Act 1 (initiator) and Act 2 (responder). It mutates
// m.h and m.ck in place and returns the 50-byte act plus the temporary key
// derived for it, so the caller can reuse that key (Act 3's temp_k2).
func outboundNoiseAct(m *Machine, ourKey *btcec.PrivateKey, theirKey *btcec.PublicKey) ([ActOneSize]byte, [32]byte, error) {
	var res [ActOneSize]byte

	ourPub := curve.GeneratePublic(ourKey)
	mixHash(&m.h, ourPub.SerializeCompressed())

	ss := curve.ECDH(ourKey, theirKey)
	tempK := hkdfMix(&m.ck, ss)

	copy(res[1:34], ourPub.SerializeCompressed())

	tag, err := noisecrypto.EncryptWithAD(0, tempK[:], m.h[:], nil)
	if err != nil {
		return res, tempK, err
	}
	copy(res[34:50], tag)

	res[0] = m.cfg.ProtocolVersion
	mixHash(&m.h, res[34:50])

	return res, tempK, nil
}

// inboundNoiseAct consumes one "their ephemeral, ECDH, decrypt-empty" act,
// the shared shape of Act 1 and Act 2's receive side. It mutates m.h and
// m.ck in place and returns the parsed remote ephemeral key plus the
// temporary key derived alongside it.
func inboundNoiseAct(m *Machine, act [ActOneSize]byte, ourKey *btcec.PrivateKey) (*btcec.PublicKey, [32]byte, error) {
	var zero [32]byte

	if act[0] != m.cfg.ProtocolVersion {
		return nil, zero, newHandshakeError(ErrUnknownHandshakeVersion, ActionDisconnectPeer)
	}

	theirPub, err := curve.ParsePublicKey(act[1:34])
	if err != nil {
		return nil, zero, newHandshakeError(ErrInvalidPublicKey, ActionDisconnectPeer)
	}
	mixHash(&m.h, theirPub.SerializeCompressed())

	ss := curve.ECDH(ourKey, theirPub)
	tempK := hkdfMix(&m.ck, ss)

	if _, err := noisecrypto.DecryptWithAD(0, tempK[:], m.h[:], act[34:50]); err != nil {
		return nil, zero, newHandshakeError(ErrBadMAC, ActionDisconnectPeer)
	}
	mixHash(&m.h, act[34:50])

	return theirPub, tempK, nil
}

// GetActOne produces Act 1 for an initiator, transitioning the Machine
// from its pre-Act-1 phase to post-Act-1. It is one-shot: calling it again
// (or calling any other handshake method) on the returned Machine fails
// with ErrInvalidState.
func (m *Machine) GetActOne() (actOne [ActOneSize]byte, err error) {
	if m.role != roleInitiator || m.phase != phasePreActOneOutbound {
		return actOne, newHandshakeError(ErrInvalidState, ActionNone)
	}

	actOne, _, err = outboundNoiseAct(m, m.localEphemeral, m.remoteStatic)
	if err != nil {
		return actOne, err
	}

	m.phase = phasePostActOneOutbound
	return actOne, nil
}

// ProcessActOneWithKeys consumes Act 1 and produces Act 2 for a responder,
// transitioning the Machine from its pre-Act-1 phase to post-Act-2.
// localStatic is this node's static secret key; localEphemeral is the
// caller-supplied ephemeral secret for Act 2 — the core never generates
// keys itself.
func (m *Machine) ProcessActOneWithKeys(actOne [ActOneSize]byte, localStatic, localEphemeral *btcec.PrivateKey) (actTwo [ActTwoSize]byte, err error) {
	if m.role != roleResponder || m.phase != phasePreActOneInbound {
		return actTwo, newHandshakeError(ErrInvalidState, ActionNone)
	}

	theirEphemeral, _, err := inboundNoiseAct(m, actOne, localStatic)
	if err != nil {
		m.invalidate()
		return actTwo, err
	}

	actTwo, tempK2, err := outboundNoiseAct(m, localEphemeral, theirEphemeral)
	if err != nil {
		m.invalidate()
		return actTwo, err
	}

	m.remoteEphemeral = theirEphemeral
	m.responderEphemeral = localEphemeral
	m.tempK2 = tempK2
	m.phase = phasePostActTwoInbound

	return actTwo, nil
}

// ProcessActTwo consumes Act 2 and produces Act 3 for an initiator,
// transitioning the Machine to its finished phase. localStatic is this
// node's static secret key, revealed to the peer inside Act 3. On success
// it also returns the peer's static public key (already known to the
// initiator a priori, per invariant I6).
func (m *Machine) ProcessActTwo(actTwo [ActTwoSize]byte, localStatic *btcec.PrivateKey) (actThree [ActThreeSize]byte, remoteStatic *btcec.PublicKey, err error) {
	if m.role != roleInitiator || m.phase != phasePostActOneOutbound {
		return actThree, nil, newHandshakeError(ErrInvalidState, ActionNone)
	}

	remoteEphemeral, tempK2, err := inboundNoiseAct(m, actTwo, m.localEphemeral)
	if err != nil {
		m.invalidate()
		return actThree, nil, err
	}

	actThree[0] = m.cfg.ProtocolVersion

	localStaticPub := curve.GeneratePublic(localStatic).SerializeCompressed()
	staticCipher, err := noisecrypto.EncryptWithAD(1, tempK2[:], m.h[:], localStaticPub)
	if err != nil {
		return actThree, nil, err
	}
	copy(actThree[1:50], staticCipher)
	mixHash(&m.h, actThree[1:50])

	ss2 := curve.ECDH(localStatic, remoteEphemeral)
	tempK3 := hkdfMix(&m.ck, ss2)

	finalTag, err := noisecrypto.EncryptWithAD(0, tempK3[:], m.h[:], nil)
	if err != nil {
		return actThree, nil, err
	}
	copy(actThree[50:66], finalTag)

	sk, rk := noisecrypto.HKDF2(m.ck[:], nil)
	m.finishHandshake(sk, rk)

	return actThree, m.remoteStatic, nil
}

// ProcessActThree consumes Act 3 for a responder, transitioning the
// Machine to its finished phase. On success it returns the peer's static
// public key, authenticated for the first time here (invariant I6).
func (m *Machine) ProcessActThree(actThree [ActThreeSize]byte) (remoteStatic *btcec.PublicKey, err error) {
	if m.role != roleResponder || m.phase != phasePostActTwoInbound {
		return nil, newHandshakeError(ErrInvalidState, ActionNone)
	}

	if actThree[0] != m.cfg.ProtocolVersion {
		m.invalidate()
		return nil, newHandshakeError(ErrUnknownHandshakeVersion, ActionDisconnectPeer)
	}

	staticKeyBytes, err := noisecrypto.DecryptWithAD(1, m.tempK2[:], m.h[:], actThree[1:50])
	if err != nil {
		m.invalidate()
		return nil, newHandshakeError(ErrBadMAC, ActionDisconnectPeer)
	}

	theirStatic, err := curve.ParsePublicKey(staticKeyBytes)
	if err != nil {
		m.invalidate()
		return nil, newHandshakeError(ErrBadRemoteStatic, ActionDisconnectPeer)
	}
	mixHash(&m.h, actThree[1:50])

	ss := curve.ECDH(m.responderEphemeral, theirStatic)
	tempK := hkdfMix(&m.ck, ss)

	if _, err := noisecrypto.DecryptWithAD(0, tempK[:], m.h[:], actThree[50:66]); err != nil {
		m.invalidate()
		return nil, newHandshakeError(ErrBadMAC, ActionDisconnectPeer)
	}

	// Note the inverted (rk, sk) order relative to the initiator: the
	// responder's send key is the initiator's receive key and vice versa.
	rk, sk := noisecrypto.HKDF2(m.ck[:], nil)
	m.finishHandshake(sk, rk)

	return theirStatic, nil
}

// finishHandshake transitions m into its finished phase, scrubbing
// handshake-only secrets and installing the transport keys derived by the
// caller (in the role-appropriate order).
func (m *Machine) finishHandshake(sk, rk [32]byte) {
	ck := m.ck

	zeroPrivateKey(m.localEphemeral)
	zeroPrivateKey(m.responderEphemeral)
	zero32(&m.tempK2)
	zero32(&m.ck)
	zero32(&m.h)

	m.sendKey = sk
	m.sendChain = ck
	m.sendNonce = 0
	m.recvKey = rk
	m.recvChain = ck
	m.recvNonce = 0

	m.phase = phaseFinished
}
