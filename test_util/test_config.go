package testutil

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/aeviaprotocol/aevia-go/engine"
	"github.com/aeviaprotocol/aevia-go/engine/events"
	"github.com/aeviaprotocol/aevia-go/engine/handler"
	"github.com/aeviaprotocol/aevia-go/engine/ledger"
	"github.com/aeviaprotocol/aevia-go/engine/roles"
	"github.com/aeviaprotocol/aevia-go/wallet"
)

// Well known fixture addresses.
var (
	TestVerifyingContract = ethcommon.HexToAddress("0x00000000000000000000000000000000ae01ae01")
	TestAdmin             = ethcommon.HexToAddress("0x00000000000000000000000000000000000000ad")
	TestOperator          = ethcommon.HexToAddress("0x000000000000000000000000000000000000001a")
	TestRecipient         = ethcommon.HexToAddress("0x00000000000000000000000000000000000000be")

	TestFungibleAddress     = ethcommon.HexToAddress("0x0000000000000000000000000000000000002001")
	TestUniqueAddress       = ethcommon.HexToAddress("0x0000000000000000000000000000000000002002")
	TestSemiFungibleAddress = ethcommon.HexToAddress("0x0000000000000000000000000000000000002003")
)

// TestChainID matches the default local development chain.
var TestChainID = big.NewInt(31337)

// TestEngine is a fully wired engine with funded mock ledgers, one operator
// and one owner key, mirroring the standard protocol test setup: the owner
// holds 1000 fungible units, item 1 of the unique ledger and 100 units of
// item 1 on the semi-fungible ledger, all approved for the engine.
type TestEngine struct {
	Config  *engine.Config
	Roles   *roles.Registry
	Store   *ledger.MemoryStore
	Router  *events.Router
	Handler *handler.LegacyHandler

	Owner *wallet.Signer

	Fungible     *FungibleToken
	Unique       *UniqueToken
	SemiFungible *SemiFungibleToken
}

// NewTestEngine builds the fixture.
func NewTestEngine() (*TestEngine, error) {
	owner, err := wallet.NewSigner()
	if err != nil {
		return nil, err
	}

	config := &engine.Config{
		ChainID:           new(big.Int).Set(TestChainID),
		VerifyingContract: TestVerifyingContract,
		Admin:             TestAdmin,
		Operators:         []ethcommon.Address{TestOperator},
	}

	router := events.NewRouter()
	registry := roles.NewRegistry(config.Admin, config.Operators, router)
	store := ledger.NewMemoryStore()

	fungible := NewFungibleToken(config.VerifyingContract)
	unique := NewUniqueToken(config.VerifyingContract)
	semiFungible := NewSemiFungibleToken(config.VerifyingContract)

	fungible.Mint(owner.Address(), big.NewInt(1000))
	fungible.Approve(owner.Address(), config.VerifyingContract, big.NewInt(1000))
	unique.Mint(owner.Address(), big.NewInt(1))
	unique.SetApprovalForAll(owner.Address(), config.VerifyingContract, true)
	semiFungible.Mint(owner.Address(), big.NewInt(1), big.NewInt(100))
	semiFungible.SetApprovalForAll(owner.Address(), config.VerifyingContract, true)

	assets := map[ethcommon.Address]engine.AssetLedger{
		TestFungibleAddress:     fungible,
		TestUniqueAddress:       unique,
		TestSemiFungibleAddress: semiFungible,
	}

	return &TestEngine{
		Config:       config,
		Roles:        registry,
		Store:        store,
		Router:       router,
		Handler:      handler.NewLegacyHandler(config, registry, store, assets, router),
		Owner:        owner,
		Fungible:     fungible,
		Unique:       unique,
		SemiFungible: semiFungible,
	}, nil
}

// SignedFungibleTransfer builds a fungible legacy from the fixture owner to
// the fixture recipient and signs it with the owner key.
func (e *TestEngine) SignedFungibleTransfer(legacyID int64, amount int64) (*handler.ExecuteLegacyRequest, error) {
	legacy := engine.Legacy{
		LegacyID:     big.NewInt(legacyID),
		TokenType:    engine.TokenTypeERC20,
		TokenAddress: TestFungibleAddress,
		TokenID:      big.NewInt(0),
		Amount:       big.NewInt(amount),
		From:         e.Owner.Address(),
		To:           TestRecipient,
	}
	signature, err := e.Owner.SignLegacy(e.Handler.Domain(), &legacy)
	if err != nil {
		return nil, err
	}
	return &handler.ExecuteLegacyRequest{Legacy: legacy, Signature: signature}, nil
}
