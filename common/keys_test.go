package common

import (
	"encoding/hex"
	"testing"
)

func TestAddressDerivation(t *testing.T) {
	// Well known vector: the address for private key 0x01.
	keyBytes, err := hex.DecodeString("0000000000000000000000000000000000000000000000000000000000000001")
	if err != nil {
		t.Fatal(err)
	}

	addr, err := AddressFromPrivateKey(keyBytes)
	if err != nil {
		t.Fatal(err)
	}
	if addr.Hex() != "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf" {
		t.Fatalf("unexpected address %s", addr.Hex())
	}
}

func TestAddressFromPublicKeyMatchesPrivate(t *testing.T) {
	keyBytes, err := GeneratePrivateKey()
	if err != nil {
		t.Fatal(err)
	}

	key, err := ParsePrivateKey(keyBytes)
	if err != nil {
		t.Fatal(err)
	}

	fromPriv, err := AddressFromPrivateKey(keyBytes)
	if err != nil {
		t.Fatal(err)
	}

	fromCompressed, err := AddressFromPublicKey(key.PubKey().SerializeCompressed())
	if err != nil {
		t.Fatal(err)
	}
	if fromPriv != fromCompressed {
		t.Fatal("address from compressed public key does not match address from private key")
	}

	fromUncompressed, err := AddressFromPublicKey(key.PubKey().SerializeUncompressed())
	if err != nil {
		t.Fatal(err)
	}
	if fromPriv != fromUncompressed {
		t.Fatal("address from uncompressed public key does not match address from private key")
	}
}

func TestParsePrivateKeyRejectsBadLength(t *testing.T) {
	if _, err := ParsePrivateKey(make([]byte, 31)); err == nil {
		t.Fatal("expected error for short private key")
	}
	if _, err := ParsePrivateKey(nil); err == nil {
		t.Fatal("expected error for nil private key")
	}
}
