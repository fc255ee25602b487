// SPDX-License-Identifier: MPL-2.0

// Package config holds the small set of tunables the brontide core
// exposes without compromising the BOLT-8 wire format: the per-direction
// rekey threshold and the handshake protocol version byte. The zero
// value is not directly usable; New or Normalize fill in BOLT-8's
// published constants.
package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DefaultRekeyThreshold is the counter value at which a direction's keys
// are rotated, per BOLT-8.
const DefaultRekeyThreshold = 1000

// DefaultProtocolVersion is the only handshake version byte BOLT-8 defines.
const DefaultProtocolVersion = 0x00

// Config tunes a Machine's non-cryptographic constants.
type Config struct {
	// RekeyThreshold is the per-direction counter value that triggers a
	// key rotation. Defaults to 1000.
	RekeyThreshold uint64 `yaml:"rekeyThreshold,omitempty"`
	// ProtocolVersion is the handshake version byte Act 1/2/3 must carry.
	// Defaults to 0x00, the only version BOLT-8 defines.
	ProtocolVersion byte `yaml:"protocolVersion,omitempty"`
	// Peers is an optional address book of known static keys, decoded
	// alongside the rest of the config but consumed by a Directory
	// rather than by a Machine.
	Peers []PeerConfig `yaml:"peers,omitempty"`
}

// New returns a Config populated with BOLT-8's default constants.
func New() Config {
	return Config{
		RekeyThreshold:  DefaultRekeyThreshold,
		ProtocolVersion: DefaultProtocolVersion,
	}
}

// Normalize fills zero-valued fields with their BOLT-8 defaults, so a
// Config built from a struct literal or decoded from partial YAML behaves
// like New(). ProtocolVersion has no normalization: 0x00 is both the
// default and a legitimate explicit value.
func (c Config) Normalize() Config {
	if c.RekeyThreshold == 0 {
		c.RekeyThreshold = DefaultRekeyThreshold
	}
	return c
}

// Load decodes a Config from YAML. The core never opens a file itself;
// obtaining r is the embedding application's responsibility.
func Load(r io.Reader) (*Config, error) {
	var c Config
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	normalized := c.Normalize()
	return &normalized, nil
}

// Option configures a Machine at construction time.
type Option func(*Config)

// WithConfig overrides a Machine's Config wholesale.
func WithConfig(c Config) Option {
	return func(dst *Config) {
		*dst = c.Normalize()
	}
}

// WithRekeyThreshold overrides the per-direction rekey threshold. Mainly
// useful in tests that want to exercise rotation without 1000 iterations.
func WithRekeyThreshold(n uint64) Option {
	return func(dst *Config) {
		dst.RekeyThreshold = n
	}
}
