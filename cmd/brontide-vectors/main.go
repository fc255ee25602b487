// SPDX-License-Identifier: MPL-2.0

// Command brontide-vectors drives the brontide handshake and transport
// cipher with the published BOLT-8 test-vector keys, logging each act and
// exiting with an error on the first failed step or round trip, the way a
// real repository built around a wire-format core carries a small
// executable for exercising it outside of `go test`. It does not compare
// the act bytes or ciphertexts against the published vector values.
package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/urfave/cli/v2"

	"github.com/noisysockets/brontide"
)

type logLevelFlag slog.Level

func fromLogLevel(l slog.Level) *logLevelFlag {
	f := logLevelFlag(l)
	return &f
}

func (f *logLevelFlag) Set(value string) error {
	return (*slog.Level)(f).UnmarshalText([]byte(value))
}

func (f *logLevelFlag) String() string {
	return (*slog.Level)(f).String()
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	app := &cli.App{
		Name:  "brontide-vectors",
		Usage: "Run the published BOLT-8 handshake and transport test vectors",
		Flags: []cli.Flag{
			&cli.GenericFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set the log level",
				Value:   fromLogLevel(slog.LevelInfo),
			},
		},
		Before: func(c *cli.Context) error {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: (*slog.Level)(c.Generic("log-level").(*logLevelFlag)),
			}))
			return nil
		},
		Action: func(c *cli.Context) error {
			return runVectors(logger)
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("Failed to run app", "error", err)
		os.Exit(1)
	}
}

func hexKey(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func privKey(s string) *btcec.PrivateKey {
	priv, _ := btcec.PrivKeyFromBytes(hexKey(s))
	return priv
}

// runVectors replays the BOLT-8 handshake vector keys end to end: a fresh
// initiator and responder, driven through Act 1/2/3, followed by 1005
// "hello" transport messages, which cross the rekeys at messages 500 and
// 1000. Each message must decrypt back to "hello".
func runVectors(logger *slog.Logger) error {
	const (
		respStatic = "2121212121212121212121212121212121212121212121212121212121212121"
		respEphem  = "2222222222222222222222222222222222222222222222222222222222222222"
		initStatic = "1111111111111111111111111111111111111111111111111111111111111111"
		initEphem  = "1212121212121212121212121212121212121212121212121212121212121212"
	)

	respStaticKey := privKey(respStatic)

	logger.Info("running handshake vectors")

	initiatorMachine := brontide.NewInitiator(respStaticKey.PubKey(), privKey(initEphem))
	actOne, err := initiatorMachine.GetActOne()
	if err != nil {
		return fmt.Errorf("GetActOne: %w", err)
	}
	logger.Info("act one", "bytes", hex.EncodeToString(actOne[:]))

	responderMachine := brontide.NewResponder(respStaticKey)
	actTwo, err := responderMachine.ProcessActOneWithKeys(actOne, respStaticKey, privKey(respEphem))
	if err != nil {
		return fmt.Errorf("ProcessActOneWithKeys: %w", err)
	}
	logger.Info("act two", "bytes", hex.EncodeToString(actTwo[:]))

	actThree, remoteStatic, err := initiatorMachine.ProcessActTwo(actTwo, privKey(initStatic))
	if err != nil {
		return fmt.Errorf("ProcessActTwo: %w", err)
	}
	logger.Info("act three", "bytes", hex.EncodeToString(actThree[:]), "remote_static", hex.EncodeToString(remoteStatic.SerializeCompressed()))

	recoveredStatic, err := responderMachine.ProcessActThree(actThree)
	if err != nil {
		return fmt.Errorf("ProcessActThree: %w", err)
	}
	logger.Info("handshake complete", "recovered_static", hex.EncodeToString(recoveredStatic.SerializeCompressed()))

	logger.Info("running transport vectors across a rekey boundary")
	for i := 0; i < 1005; i++ {
		ciphertext, err := initiatorMachine.EncryptMessage([]byte("hello"))
		if err != nil {
			return fmt.Errorf("message %d: EncryptMessage: %w", i, err)
		}

		var lenHeader [brontide.LengthHeaderSize]byte
		copy(lenHeader[:], ciphertext[:brontide.LengthHeaderSize])

		length, err := responderMachine.DecryptLengthHeader(lenHeader)
		if err != nil {
			return fmt.Errorf("message %d: DecryptLengthHeader: %w", i, err)
		}

		plaintext, err := responderMachine.DecryptMessage(ciphertext[brontide.LengthHeaderSize : brontide.LengthHeaderSize+int(length)+16])
		if err != nil {
			return fmt.Errorf("message %d: DecryptMessage: %w", i, err)
		}

		if string(plaintext) != "hello" {
			return fmt.Errorf("message %d: got %q, want %q", i, plaintext, "hello")
		}
	}

	logger.Info("handshake and all transport round trips succeeded")
	return nil
}
