// SPDX-License-Identifier: MPL-2.0

package brontide

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/noisysockets/brontide/config"
	"github.com/noisysockets/brontide/internal/curve"
)

// Directory resolves human-readable peer names to the static public keys
// an initiator needs to call NewInitiator, the way an SSH known_hosts
// file or a WireGuard peer list would. It performs no I/O and holds no
// opinion about how a caller obtained a peer's address.
type Directory struct {
	byName map[string]*btcec.PublicKey
}

// NewDirectory builds an empty Directory.
func NewDirectory() *Directory {
	return &Directory{byName: make(map[string]*btcec.PublicKey)}
}

// LoadDirectory builds a Directory from a list of decoded PeerConfig
// entries, as produced by config.Load.
func LoadDirectory(peers []config.PeerConfig) (*Directory, error) {
	d := NewDirectory()
	for _, p := range peers {
		keyBytes, err := hex.DecodeString(p.StaticKey)
		if err != nil {
			return nil, fmt.Errorf("brontide: peer %q: decode static key: %w", p.Name, err)
		}

		pub, err := curve.ParsePublicKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("brontide: peer %q: %w", p.Name, err)
		}

		if err := d.AddPeer(p.Name, pub); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// AddPeer records a peer's static key under name. It is an error to
// register the same name twice.
func (d *Directory) AddPeer(name string, staticKey *btcec.PublicKey) error {
	if name == "" {
		return fmt.Errorf("brontide: peer name must not be empty")
	}
	if _, ok := d.byName[name]; ok {
		return fmt.Errorf("brontide: peer %q already registered", name)
	}
	d.byName[name] = staticKey
	return nil
}

// Lookup returns the static key registered under name, if any.
func (d *Directory) Lookup(name string) (*btcec.PublicKey, bool) {
	pub, ok := d.byName[name]
	return pub, ok
}
