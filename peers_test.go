package brontide

import (
	"testing"

	"github.com/noisysockets/brontide/config"
)

func TestDirectoryLookup(t *testing.T) {
	pub := mustPrivKey(t, vectorInitStatic).PubKey()
	d := NewDirectory()

	if err := d.AddPeer("alice", pub); err != nil {
		t.Fatalf("AddPeer: %v", err)
	}

	got, ok := d.Lookup("alice")
	if !ok {
		t.Fatal("Lookup(alice) not found")
	}
	if got != pub {
		t.Fatal("Lookup returned a different key")
	}

	if _, ok := d.Lookup("bob"); ok {
		t.Fatal("Lookup(bob) unexpectedly found")
	}
}

func TestDirectoryRejectsDuplicateNames(t *testing.T) {
	pub := mustPubKey(t, vectorRemoteStatic)
	d := NewDirectory()

	if err := d.AddPeer("alice", pub); err != nil {
		t.Fatalf("AddPeer: %v", err)
	}
	if err := d.AddPeer("alice", pub); err == nil {
		t.Fatal("expected error registering duplicate name")
	}
}

func TestLoadDirectory(t *testing.T) {
	peers := []config.PeerConfig{
		{Name: "alice", StaticKey: vectorRemoteStatic},
	}

	d, err := LoadDirectory(peers)
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}

	got, ok := d.Lookup("alice")
	if !ok {
		t.Fatal("Lookup(alice) not found")
	}
	if got.SerializeCompressed() == nil {
		t.Fatal("nil public key")
	}
}

func TestLoadDirectoryRejectsBadKey(t *testing.T) {
	peers := []config.PeerConfig{
		{Name: "alice", StaticKey: "not-hex"},
	}

	if _, err := LoadDirectory(peers); err == nil {
		t.Fatal("expected error for malformed static key")
	}
}
