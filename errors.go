// SPDX-License-Identifier: MPL-2.0

package brontide

import (
	"errors"
	"fmt"
)

// Action is the disconnect recommendation carried by a HandshakeError. The
// core never performs the disconnect itself; it only tells the caller
// whether one is warranted.
type Action int

const (
	// ActionNone indicates the error is a caller contract violation, not
	// a signal about the remote peer.
	ActionNone Action = iota
	// ActionDisconnectPeer indicates the remote peer should be
	// disconnected without sending a reply.
	ActionDisconnectPeer
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionDisconnectPeer:
		return "disconnect peer"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Sentinel error kinds, matching the taxonomy of spec.md §7. Test with
// errors.Is, not direct comparison, since callers always receive a
// *HandshakeError wrapping one of these.
var (
	// ErrUnknownHandshakeVersion is returned when an act's version byte
	// is not 0x00 (or the Config's configured ProtocolVersion).
	ErrUnknownHandshakeVersion = errors.New("brontide: unknown handshake version")
	// ErrInvalidPublicKey is returned when an ephemeral point fails to
	// parse as a valid secp256k1 point.
	ErrInvalidPublicKey = errors.New("brontide: invalid public key")
	// ErrBadMAC is returned when an AEAD tag fails to verify, during the
	// handshake or the transport phase.
	ErrBadMAC = errors.New("brontide: bad MAC")
	// ErrBadRemoteStatic is returned when Act 3's inner ciphertext
	// decrypts but the recovered static public key does not parse.
	ErrBadRemoteStatic = errors.New("brontide: bad remote static key")
	// ErrPayloadTooLarge is returned when EncryptMessage or
	// DecryptMessage is called with input exceeding the 65535 byte
	// plaintext (65551 byte ciphertext) limit. It is a caller contract
	// violation, not a peer-level error.
	ErrPayloadTooLarge = errors.New("brontide: payload too large")
	// ErrInvalidState is returned when a handshake or transport method is
	// called on a Machine that is not in the phase it requires — either
	// a prior call already consumed this phase, or the method belongs to
	// a different role. It is a caller contract violation.
	ErrInvalidState = errors.New("brontide: invalid handshake state")
)

// HandshakeError is the Go realization of the spec's HandleError: a short
// error kind plus an optional disconnect recommendation. It wraps one of
// the sentinel errors above, so errors.Is(err, ErrBadMAC) works on the
// value returned from any Machine method.
type HandshakeError struct {
	kind   error
	action Action
}

func newHandshakeError(kind error, action Action) *HandshakeError {
	return &HandshakeError{kind: kind, action: action}
}

// Error implements the error interface.
func (e *HandshakeError) Error() string {
	return e.kind.Error()
}

// Unwrap lets errors.Is/errors.As see through to the sentinel kind.
func (e *HandshakeError) Unwrap() error {
	return e.kind
}

// Action reports the recommended response to this error.
func (e *HandshakeError) Action() Action {
	return e.action
}
