package brontide

import (
	"encoding/hex"
	"testing"

	"github.com/noisysockets/brontide/internal/noisecrypto"
)

// finishedVectorPair runs Scenario A / Scenario C to completion and returns
// the two finished Machines, ready to exchange transport messages.
func finishedVectorPair(t *testing.T) (initiator, responder *Machine) {
	t.Helper()

	initiator = NewInitiator(mustPubKey(t, vectorRemoteStatic), mustPrivKey(t, vectorInitEphem))
	actOne, err := initiator.GetActOne()
	if err != nil {
		t.Fatalf("GetActOne: %v", err)
	}

	responder = NewResponder(mustPrivKey(t, vectorRespStatic))
	actTwo, err := responder.ProcessActOneWithKeys(actOne, mustPrivKey(t, vectorRespStatic), mustPrivKey(t, vectorRespEphem))
	if err != nil {
		t.Fatalf("ProcessActOneWithKeys: %v", err)
	}

	actThree, _, err := initiator.ProcessActTwo(actTwo, mustPrivKey(t, vectorInitStatic))
	if err != nil {
		t.Fatalf("ProcessActTwo: %v", err)
	}

	if _, err := responder.ProcessActThree(actThree); err != nil {
		t.Fatalf("ProcessActThree: %v", err)
	}

	return initiator, responder
}

// publishedTransportVectors are the BOLT-8 encrypted "hello" ciphertexts at
// selected message indices. Each message consumes two nonces, so the send
// key rotates at the start of messages 500 and 1000: indices 0-1 use the
// initial key, 500-501 the first rotated key, 1000-1001 the second.
var publishedTransportVectors = map[int]string{
	0:    "cf2b30ddf0cf3f80e7c35a6e6730b59fe802473180f396d88a8fb0db8cbcf25d2f214cf9ea1d95",
	1:    "72887022101f0b6753e0c7de21657d35a4cb2a1f5cde2650528bbc8f837d0f0d7ad833b1a256a1",
	500:  "178cb9d7387190fa34db9c2d50027d21793c9bc2d40b1e14dcf30ebeeeb220f48364f7a4c68bf8",
	501:  "1b186c57d44eb6de4c057c49940d79bb838a145cb528d6e8fd26dbe50a60ca2c104b56b60e45bd",
	1000: "4a2f3cc3b5e78ddb83dcb426d9863d9d9a723b0337c89dd0b005d89f8d3c05c52b76b29b740f09",
	1001: "2ecd8c8a5629d0d02ab457a0fdd0f7b90a192cd46be5ecb6ca570bfc5e268338b1a16cf4ef2d36",
}

func TestTransportVectorsAcrossRekey(t *testing.T) {
	initiator, responder := finishedVectorPair(t)

	for i := 0; i < 1005; i++ {
		ciphertext, err := initiator.EncryptMessage([]byte("hello"))
		if err != nil {
			t.Fatalf("message %d: EncryptMessage: %v", i, err)
		}

		if want, ok := publishedTransportVectors[i]; ok {
			if got := hex.EncodeToString(ciphertext); got != want {
				t.Fatalf("message %d ciphertext = %s, want %s", i, got, want)
			}
		}

		if len(ciphertext) < LengthHeaderSize {
			t.Fatalf("message %d: ciphertext too short: %d bytes", i, len(ciphertext))
		}
		var lenHeader [LengthHeaderSize]byte
		copy(lenHeader[:], ciphertext[:LengthHeaderSize])

		length, err := responder.DecryptLengthHeader(lenHeader)
		if err != nil {
			t.Fatalf("message %d: DecryptLengthHeader: %v", i, err)
		}
		if length != 5 {
			t.Fatalf("message %d: decrypted length = %d, want 5", i, length)
		}

		plaintext, err := responder.DecryptMessage(ciphertext[LengthHeaderSize:])
		if err != nil {
			t.Fatalf("message %d: DecryptMessage: %v", i, err)
		}
		if string(plaintext) != "hello" {
			t.Fatalf("message %d: plaintext = %q, want %q", i, plaintext, "hello")
		}
	}
}

func TestRekeyLaw(t *testing.T) {
	initiator, _ := finishedVectorPair(t)

	preKey := initiator.sendKey
	preChain := initiator.sendChain

	for i := uint64(0); i < initiator.cfg.RekeyThreshold; i++ {
		if _, err := initiator.EncryptMessage([]byte("hello")); err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
	}

	// Each message advances the nonce by two, so the single rotation happens
	// at the start of message RekeyThreshold/2, and the remaining
	// RekeyThreshold/2 messages bring the nonce back up to the threshold.
	if initiator.sendNonce != initiator.cfg.RekeyThreshold {
		t.Fatalf("nonce after rekey = %d, want %d", initiator.sendNonce, initiator.cfg.RekeyThreshold)
	}

	wantChain, wantKey := noisecrypto.HKDF2(preChain[:], preKey[:])
	if initiator.sendChain != wantChain {
		t.Fatal("chaining key after rekey does not match HKDF2(oldChain, oldKey).first")
	}
	if initiator.sendKey != wantKey {
		t.Fatal("key after rekey does not match HKDF2(oldChain, oldKey).second")
	}
}

func TestEncryptDecryptRoundTripProperty(t *testing.T) {
	initiator, responder := finishedVectorPair(t)

	messages := [][]byte{
		{},
		[]byte("a"),
		[]byte("the quick brown fox jumps over the lazy dog"),
		make([]byte, 4096),
	}

	for i, msg := range messages {
		ciphertext, err := initiator.EncryptMessage(msg)
		if err != nil {
			t.Fatalf("message %d: EncryptMessage: %v", i, err)
		}

		var lenHeader [LengthHeaderSize]byte
		copy(lenHeader[:], ciphertext[:LengthHeaderSize])
		length, err := responder.DecryptLengthHeader(lenHeader)
		if err != nil {
			t.Fatalf("message %d: DecryptLengthHeader: %v", i, err)
		}
		if int(length) != len(msg) {
			t.Fatalf("message %d: length = %d, want %d", i, length, len(msg))
		}

		plaintext, err := responder.DecryptMessage(ciphertext[LengthHeaderSize:])
		if err != nil {
			t.Fatalf("message %d: DecryptMessage: %v", i, err)
		}
		if len(plaintext) != len(msg) {
			t.Fatalf("message %d: got %d bytes, want %d", i, len(plaintext), len(msg))
		}
	}
}

func TestEncryptMessageRejectsOversizePayload(t *testing.T) {
	initiator, _ := finishedVectorPair(t)

	_, err := initiator.EncryptMessage(make([]byte, MaxPayloadSize+1))
	if err == nil {
		t.Fatal("expected error for oversize payload")
	}
}

func TestDecryptLengthHeaderBadMAC(t *testing.T) {
	initiator, responder := finishedVectorPair(t)

	ciphertext, err := initiator.EncryptMessage([]byte("hello"))
	if err != nil {
		t.Fatalf("EncryptMessage: %v", err)
	}

	var lenHeader [LengthHeaderSize]byte
	copy(lenHeader[:], ciphertext[:LengthHeaderSize])
	lenHeader[LengthHeaderSize-1] ^= 0xff

	if _, err := responder.DecryptLengthHeader(lenHeader); err == nil {
		t.Fatal("expected bad-mac error for corrupted length header")
	}
}

func TestHalvesAllowConcurrentUse(t *testing.T) {
	initiator, responder := finishedVectorPair(t)

	initSend, initRecv, err := initiator.Halves()
	if err != nil {
		t.Fatalf("Halves: %v", err)
	}
	respSend, respRecv, err := responder.Halves()
	if err != nil {
		t.Fatalf("Halves: %v", err)
	}

	if _, err := initiator.EncryptMessage([]byte("hello")); err == nil {
		t.Fatal("expected ErrInvalidState from split Machine")
	}

	ciphertext, err := initSend.EncryptMessage([]byte("hello"))
	if err != nil {
		t.Fatalf("SendHalf.EncryptMessage: %v", err)
	}

	var lenHeader [LengthHeaderSize]byte
	copy(lenHeader[:], ciphertext[:LengthHeaderSize])
	if _, err := respRecv.DecryptLengthHeader(lenHeader); err != nil {
		t.Fatalf("RecvHalf.DecryptLengthHeader: %v", err)
	}
	plaintext, err := respRecv.DecryptMessage(ciphertext[LengthHeaderSize:])
	if err != nil {
		t.Fatalf("RecvHalf.DecryptMessage: %v", err)
	}
	if string(plaintext) != "hello" {
		t.Fatalf("plaintext = %q, want %q", plaintext, "hello")
	}

	reply, err := respSend.EncryptMessage([]byte("world"))
	if err != nil {
		t.Fatalf("SendHalf.EncryptMessage: %v", err)
	}
	copy(lenHeader[:], reply[:LengthHeaderSize])
	if _, err := initRecv.DecryptLengthHeader(lenHeader); err != nil {
		t.Fatalf("RecvHalf.DecryptLengthHeader: %v", err)
	}
	plaintext, err = initRecv.DecryptMessage(reply[LengthHeaderSize:])
	if err != nil {
		t.Fatalf("RecvHalf.DecryptMessage: %v", err)
	}
	if string(plaintext) != "world" {
		t.Fatalf("plaintext = %q, want %q", plaintext, "world")
	}
}
