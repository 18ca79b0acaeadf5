// Package utils holds the pure validation functions the engine runs before it
// touches state or moves assets.
package utils

import (
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/aeviaprotocol/aevia-go/engine"
)

var one = big.NewInt(1)

// ValidateTransferParams enforces the per-kind parameter rules:
//
//	ERC20:   tokenId must be zero, amount must be greater than zero
//	ERC721:  amount must be exactly 1
//	ERC1155: amount must be greater than zero
//
// All values must fit uint256. Validation is side effect free and runs before
// any state mutation or asset movement.
func ValidateTransferParams(tokenType engine.TokenType, tokenID *big.Int, amount *big.Int) error {
	if err := validateUint256("tokenId", tokenID); err != nil {
		return err
	}
	if err := validateUint256("amount", amount); err != nil {
		return err
	}

	switch tokenType {
	case engine.TokenTypeERC20:
		if tokenID.Sign() != 0 {
			return &engine.InvalidParametersError{Field: "tokenId", Reason: "must be zero for ERC20 transfers"}
		}
		if amount.Sign() <= 0 {
			return &engine.InvalidParametersError{Field: "amount", Reason: "must be greater than zero"}
		}
	case engine.TokenTypeERC721:
		if amount.Cmp(one) != 0 {
			return &engine.InvalidParametersError{Field: "amount", Reason: "must be exactly 1 for ERC721 transfers"}
		}
	case engine.TokenTypeERC1155:
		if amount.Sign() <= 0 {
			return &engine.InvalidParametersError{Field: "amount", Reason: "must be greater than zero"}
		}
	default:
		return &engine.InvalidParametersError{Field: "tokenType", Reason: fmt.Sprintf("unknown token type %d", uint8(tokenType))}
	}
	return nil
}

// ValidateSignatureShape checks the raw signature length before recovery is
// attempted.
func ValidateSignatureShape(signature []byte) error {
	if len(signature) != ethcrypto.SignatureLength {
		return fmt.Errorf("%w: signature must be %d bytes, got %d", engine.ErrInvalidSignature, ethcrypto.SignatureLength, len(signature))
	}
	return nil
}

func validateUint256(field string, value *big.Int) error {
	if value == nil {
		return &engine.InvalidParametersError{Field: field, Reason: "must not be nil"}
	}
	if value.Sign() < 0 || value.BitLen() > 256 {
		return &engine.InvalidParametersError{Field: field, Reason: "is out of uint256 range"}
	}
	return nil
}
