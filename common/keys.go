package common

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// GeneratePrivateKey returns a fresh secp256k1 private key serialized as 32 bytes.
func GeneratePrivateKey() ([]byte, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate private key: %w", err)
	}
	return key.Serialize(), nil
}

// ParsePrivateKey parses a 32 byte secp256k1 private key.
func ParsePrivateKey(serialized []byte) (*secp256k1.PrivateKey, error) {
	if len(serialized) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(serialized))
	}
	return secp256k1.PrivKeyFromBytes(serialized), nil
}

// AddressFromPrivateKey derives the Ethereum style account address for a
// 32 byte private key.
func AddressFromPrivateKey(serialized []byte) (ethcommon.Address, error) {
	key, err := ParsePrivateKey(serialized)
	if err != nil {
		return ethcommon.Address{}, err
	}
	return ethcrypto.PubkeyToAddress(key.ToECDSA().PublicKey), nil
}

// AddressFromPublicKey derives the account address for a compressed (33 byte)
// or uncompressed (65 byte) secp256k1 public key.
func AddressFromPublicKey(serialized []byte) (ethcommon.Address, error) {
	key, err := secp256k1.ParsePubKey(serialized)
	if err != nil {
		return ethcommon.Address{}, fmt.Errorf("parse public key: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*key.ToECDSA()), nil
}
