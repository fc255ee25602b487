// SPDX-License-Identifier: MPL-2.0

package config

// PeerConfig names a known peer's static public key, the YAML-decodable
// analogue of the directory entries an embedding application otherwise
// builds by hand. Unlike the teacher's PeerConfig this carries no
// endpoint or IP address: address resolution is transport I/O, which
// this module does not perform.
type PeerConfig struct {
	// Name is a human-readable handle for the peer, looked up by a
	// Directory.
	Name string `yaml:"name"`
	// StaticKey is the peer's compressed secp256k1 static public key,
	// hex-encoded.
	StaticKey string `yaml:"staticKey"`
}
