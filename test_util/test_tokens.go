package testutil

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/aeviaprotocol/aevia-go/engine"
)

// The mock ledgers mirror the approval model of real token contracts: the
// engine is a spender that may only move what the owner approved for it.

// FungibleToken is an in-memory ERC20 style ledger with balances and
// per-spender allowances.
type FungibleToken struct {
	spender ethcommon.Address

	mu         sync.Mutex
	balances   map[ethcommon.Address]*big.Int
	allowances map[ethcommon.Address]map[ethcommon.Address]*big.Int
}

// NewFungibleToken creates a fungible ledger on which spender (the engine
// instance address) redeems approvals.
func NewFungibleToken(spender ethcommon.Address) *FungibleToken {
	return &FungibleToken{
		spender:    spender,
		balances:   make(map[ethcommon.Address]*big.Int),
		allowances: make(map[ethcommon.Address]map[ethcommon.Address]*big.Int),
	}
}

// Mint credits an account.
func (t *FungibleToken) Mint(account ethcommon.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[account] = add(t.balances[account], amount)
}

// Approve sets the allowance an owner grants to a spender.
func (t *FungibleToken) Approve(owner, spender ethcommon.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[ethcommon.Address]*big.Int)
	}
	t.allowances[owner][spender] = new(big.Int).Set(amount)
}

// BalanceOf returns the account balance.
func (t *FungibleToken) BalanceOf(account ethcommon.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return add(nil, t.balances[account])
}

// Transfer implements engine.AssetLedger.
func (t *FungibleToken) Transfer(_ context.Context, tokenType engine.TokenType, _ *big.Int, amount *big.Int, from, to ethcommon.Address) error {
	if tokenType != engine.TokenTypeERC20 {
		return fmt.Errorf("fungible ledger cannot move %s", tokenType)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	allowance := t.allowances[from][t.spender]
	if allowance == nil || allowance.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient allowance for %s", from.Hex())
	}
	balance := t.balances[from]
	if balance == nil || balance.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient balance for %s", from.Hex())
	}

	t.allowances[from][t.spender] = new(big.Int).Sub(allowance, amount)
	t.balances[from] = new(big.Int).Sub(balance, amount)
	t.balances[to] = add(t.balances[to], amount)
	return nil
}

// UniqueToken is an in-memory ERC721 style ledger with per-item owners and
// operator approvals.
type UniqueToken struct {
	spender ethcommon.Address

	mu        sync.Mutex
	owners    map[string]ethcommon.Address
	approvals map[ethcommon.Address]map[ethcommon.Address]bool
}

// NewUniqueToken creates a unique item ledger redeemed by spender.
func NewUniqueToken(spender ethcommon.Address) *UniqueToken {
	return &UniqueToken{
		spender:   spender,
		owners:    make(map[string]ethcommon.Address),
		approvals: make(map[ethcommon.Address]map[ethcommon.Address]bool),
	}
}

// Mint assigns an item to an account.
func (t *UniqueToken) Mint(account ethcommon.Address, tokenID *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.owners[tokenID.String()] = account
}

// SetApprovalForAll lets operator move all of owner's items.
func (t *UniqueToken) SetApprovalForAll(owner, operator ethcommon.Address, approved bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.approvals[owner] == nil {
		t.approvals[owner] = make(map[ethcommon.Address]bool)
	}
	t.approvals[owner][operator] = approved
}

// OwnerOf returns the owner of an item and whether the item exists.
func (t *UniqueToken) OwnerOf(tokenID *big.Int) (ethcommon.Address, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	owner, ok := t.owners[tokenID.String()]
	return owner, ok
}

// Transfer implements engine.AssetLedger.
func (t *UniqueToken) Transfer(_ context.Context, tokenType engine.TokenType, tokenID *big.Int, _ *big.Int, from, to ethcommon.Address) error {
	if tokenType != engine.TokenTypeERC721 {
		return fmt.Errorf("unique ledger cannot move %s", tokenType)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	owner, ok := t.owners[tokenID.String()]
	if !ok {
		return fmt.Errorf("item %s does not exist", tokenID)
	}
	if owner != from {
		return fmt.Errorf("item %s is not owned by %s", tokenID, from.Hex())
	}
	if !t.approvals[from][t.spender] {
		return fmt.Errorf("%s has not approved transfers by %s", from.Hex(), t.spender.Hex())
	}

	t.owners[tokenID.String()] = to
	return nil
}

// SemiFungibleToken is an in-memory ERC1155 style ledger with per-item
// balances and operator approvals.
type SemiFungibleToken struct {
	spender ethcommon.Address

	mu        sync.Mutex
	balances  map[string]map[ethcommon.Address]*big.Int
	approvals map[ethcommon.Address]map[ethcommon.Address]bool
}

// NewSemiFungibleToken creates a semi-fungible ledger redeemed by spender.
func NewSemiFungibleToken(spender ethcommon.Address) *SemiFungibleToken {
	return &SemiFungibleToken{
		spender:   spender,
		balances:  make(map[string]map[ethcommon.Address]*big.Int),
		approvals: make(map[ethcommon.Address]map[ethcommon.Address]bool),
	}
}

// Mint credits an account with units of an item.
func (t *SemiFungibleToken) Mint(account ethcommon.Address, tokenID *big.Int, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := tokenID.String()
	if t.balances[id] == nil {
		t.balances[id] = make(map[ethcommon.Address]*big.Int)
	}
	t.balances[id][account] = add(t.balances[id][account], amount)
}

// SetApprovalForAll lets operator move all of owner's items.
func (t *SemiFungibleToken) SetApprovalForAll(owner, operator ethcommon.Address, approved bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.approvals[owner] == nil {
		t.approvals[owner] = make(map[ethcommon.Address]bool)
	}
	t.approvals[owner][operator] = approved
}

// BalanceOf returns the account balance for an item.
func (t *SemiFungibleToken) BalanceOf(account ethcommon.Address, tokenID *big.Int) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return add(nil, t.balances[tokenID.String()][account])
}

// Transfer implements engine.AssetLedger.
func (t *SemiFungibleToken) Transfer(_ context.Context, tokenType engine.TokenType, tokenID *big.Int, amount *big.Int, from, to ethcommon.Address) error {
	if tokenType != engine.TokenTypeERC1155 {
		return fmt.Errorf("semi-fungible ledger cannot move %s", tokenType)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.approvals[from][t.spender] {
		return fmt.Errorf("%s has not approved transfers by %s", from.Hex(), t.spender.Hex())
	}
	id := tokenID.String()
	balance := t.balances[id][from]
	if balance == nil || balance.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient balance of item %s for %s", id, from.Hex())
	}

	t.balances[id][from] = new(big.Int).Sub(balance, amount)
	if t.balances[id][to] == nil {
		t.balances[id][to] = new(big.Int)
	}
	t.balances[id][to] = add(t.balances[id][to], amount)
	return nil
}

func add(a, b *big.Int) *big.Int {
	sum := new(big.Int)
	if a != nil {
		sum.Set(a)
	}
	if b != nil {
		sum.Add(sum, b)
	}
	return sum
}
