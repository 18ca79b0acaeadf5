// Package wallet signs legacy authorizations on the owner's side. The
// signatures it produces are byte compatible with the ones browser wallets
// emit for the same typed data.
package wallet

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/aeviaprotocol/aevia-go/common"
	"github.com/aeviaprotocol/aevia-go/engine"
	"github.com/aeviaprotocol/aevia-go/engine/typeddata"
)

// Signer signs legacies with a single secp256k1 key.
type Signer struct {
	privateKey *secp256k1.PrivateKey
}

// NewSigner creates a signer with a freshly generated key.
func NewSigner() (*Signer, error) {
	keyBytes, err := common.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return NewSignerFromBytes(keyBytes)
}

// NewSignerFromBytes creates a signer from a 32 byte private key.
func NewSignerFromBytes(keyBytes []byte) (*Signer, error) {
	key, err := common.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, err
	}
	return &Signer{privateKey: key}, nil
}

// NewSignerFromHex creates a signer from a hex encoded private key, with or
// without a 0x prefix.
func NewSignerFromHex(keyHex string) (*Signer, error) {
	keyBytes, err := hex.DecodeString(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	return NewSignerFromBytes(keyBytes)
}

// Address returns the account address of the signing key.
func (s *Signer) Address() ethcommon.Address {
	return ethcrypto.PubkeyToAddress(s.privateKey.ToECDSA().PublicKey)
}

// SignLegacy signs the EIP-712 digest of a legacy under the given domain and
// returns the 65 byte [R || S || V] signature with V encoded as 27/28, the
// encoding wallets emit.
func (s *Signer) SignLegacy(domain typeddata.Domain, legacy *engine.Legacy) ([]byte, error) {
	digest, err := typeddata.Digest(domain, legacy)
	if err != nil {
		return nil, fmt.Errorf("compute legacy digest: %w", err)
	}
	return s.SignHash(digest)
}

// SignHash signs a 32 byte digest.
func (s *Signer) SignHash(digest []byte) ([]byte, error) {
	signature, err := ethcrypto.Sign(digest, s.privateKey.ToECDSA())
	if err != nil {
		return nil, fmt.Errorf("sign digest: %w", err)
	}
	signature[64] += 27
	return signature, nil
}

// PrivateKeyHex returns the hex encoded private key. Handle with care.
func (s *Signer) PrivateKeyHex() string {
	return hex.EncodeToString(s.privateKey.Serialize())
}
