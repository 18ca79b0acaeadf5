// Package typeddata computes the EIP-712 digest of a legacy authorization and
// recovers its signer. The field order and types are part of the wire
// contract, so hashing is fixed at compile time rather than derived from a
// runtime schema.
package typeddata

import (
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/aeviaprotocol/aevia-go/engine"
)

const (
	// ProtocolName is the EIP-712 domain name shared by every engine instance.
	ProtocolName = "AeviaProtocol"
	// ProtocolVersion is the EIP-712 domain version.
	ProtocolVersion = "1.0.0"

	domainType = "EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"
	legacyType = "Legacy(uint256 legacyId,uint8 tokenType,address tokenAddress,uint256 tokenId,uint256 amount,address from,address to)"
)

var (
	domainTypeHash = ethcrypto.Keccak256([]byte(domainType))
	legacyTypeHash = ethcrypto.Keccak256([]byte(legacyType))
)

// Domain binds signatures to one engine instance on one chain. Any mismatch
// in any field changes the digest and invalidates the signature.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract ethcommon.Address
}

// DefaultDomain returns the protocol domain for the given chain and engine
// instance address.
func DefaultDomain(chainID *big.Int, verifyingContract ethcommon.Address) Domain {
	return Domain{
		Name:              ProtocolName,
		Version:           ProtocolVersion,
		ChainID:           chainID,
		VerifyingContract: verifyingContract,
	}
}

// Separator returns the EIP-712 domain separator hash.
func (d Domain) Separator() ([]byte, error) {
	chainID, err := uint256Word("chainId", d.ChainID)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 5*32)
	buf = append(buf, domainTypeHash...)
	buf = append(buf, ethcrypto.Keccak256([]byte(d.Name))...)
	buf = append(buf, ethcrypto.Keccak256([]byte(d.Version))...)
	buf = append(buf, chainID...)
	buf = append(buf, addressWord(d.VerifyingContract)...)
	return ethcrypto.Keccak256(buf), nil
}

// HashLegacy returns the EIP-712 struct hash of a legacy.
func HashLegacy(legacy *engine.Legacy) ([]byte, error) {
	if legacy == nil {
		return nil, fmt.Errorf("legacy cannot be nil")
	}

	legacyID, err := uint256Word("legacyId", legacy.LegacyID)
	if err != nil {
		return nil, err
	}
	tokenID, err := uint256Word("tokenId", legacy.TokenID)
	if err != nil {
		return nil, err
	}
	amount, err := uint256Word("amount", legacy.Amount)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 8*32)
	buf = append(buf, legacyTypeHash...)
	buf = append(buf, legacyID...)
	buf = append(buf, uint8Word(uint8(legacy.TokenType))...)
	buf = append(buf, addressWord(legacy.TokenAddress)...)
	buf = append(buf, tokenID...)
	buf = append(buf, amount...)
	buf = append(buf, addressWord(legacy.From)...)
	buf = append(buf, addressWord(legacy.To)...)
	return ethcrypto.Keccak256(buf), nil
}

// Digest returns the signable digest keccak256(0x19 0x01 || separator || structHash).
func Digest(domain Domain, legacy *engine.Legacy) ([]byte, error) {
	separator, err := domain.Separator()
	if err != nil {
		return nil, err
	}
	structHash, err := HashLegacy(legacy)
	if err != nil {
		return nil, err
	}
	return ethcrypto.Keccak256([]byte{0x19, 0x01}, separator, structHash), nil
}

// RecoverSigner returns the account that signed the legacy under the domain.
// Signatures are 65 bytes [R || S || V] with V accepted as 0/1 or 27/28.
// Malformed input or a failed recovery returns ErrInvalidSignature.
func RecoverSigner(domain Domain, legacy *engine.Legacy, signature []byte) (ethcommon.Address, error) {
	if len(signature) != ethcrypto.SignatureLength {
		return ethcommon.Address{}, fmt.Errorf("%w: signature must be %d bytes, got %d", engine.ErrInvalidSignature, ethcrypto.SignatureLength, len(signature))
	}

	sig := make([]byte, ethcrypto.SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return ethcommon.Address{}, fmt.Errorf("%w: invalid recovery id %d", engine.ErrInvalidSignature, signature[64])
	}

	digest, err := Digest(domain, legacy)
	if err != nil {
		return ethcommon.Address{}, fmt.Errorf("%w: %v", engine.ErrInvalidSignature, err)
	}

	pubKey, err := ethcrypto.SigToPub(digest, sig)
	if err != nil {
		return ethcommon.Address{}, fmt.Errorf("%w: %v", engine.ErrInvalidSignature, err)
	}
	return ethcrypto.PubkeyToAddress(*pubKey), nil
}

func uint256Word(field string, value *big.Int) ([]byte, error) {
	if value == nil {
		return nil, fmt.Errorf("%s cannot be nil", field)
	}
	if value.Sign() < 0 || value.BitLen() > 256 {
		return nil, fmt.Errorf("%s is out of uint256 range", field)
	}
	word := make([]byte, 32)
	value.FillBytes(word)
	return word, nil
}

func uint8Word(value uint8) []byte {
	word := make([]byte, 32)
	word[31] = value
	return word
}

func addressWord(address ethcommon.Address) []byte {
	return ethcommon.LeftPadBytes(address.Bytes(), 32)
}
