package engine

import (
	"context"
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// TokenType identifies the kind of asset a legacy moves. The numeric values
// are part of the signed payload and must not be reordered.
type TokenType uint8

const (
	// TokenTypeERC20 is a fungible token transfer.
	TokenTypeERC20 TokenType = 0
	// TokenTypeERC721 is a unique item transfer.
	TokenTypeERC721 TokenType = 1
	// TokenTypeERC1155 is a semi-fungible token transfer.
	TokenTypeERC1155 TokenType = 2
)

// Valid reports whether the token type is one of the known kinds.
func (t TokenType) Valid() bool {
	return t <= TokenTypeERC1155
}

func (t TokenType) String() string {
	switch t {
	case TokenTypeERC20:
		return "ERC20"
	case TokenTypeERC721:
		return "ERC721"
	case TokenTypeERC1155:
		return "ERC1155"
	default:
		return fmt.Sprintf("TokenType(%d)", uint8(t))
	}
}

// Legacy is a one-time transfer authorization signed off-chain by its owner.
// LegacyID is scoped to the owner; the same id under two owners names two
// independent authorizations. LegacyID, TokenID and Amount carry uint256
// semantics: values must be non-negative and below 2^256.
type Legacy struct {
	LegacyID     *big.Int
	TokenType    TokenType
	TokenAddress ethcommon.Address
	TokenID      *big.Int
	Amount       *big.Int
	From         ethcommon.Address
	To           ethcommon.Address
}

// AssetLedger moves value on one token contract's ledger. The engine never
// holds custody; implementations must verify the standing approval the owner
// granted to the engine before moving anything.
type AssetLedger interface {
	Transfer(ctx context.Context, tokenType TokenType, tokenID *big.Int, amount *big.Int, from ethcommon.Address, to ethcommon.Address) error
}
