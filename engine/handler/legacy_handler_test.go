package handler_test

import (
	"context"
	"math/big"
	"sync"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeviaprotocol/aevia-go/engine"
	"github.com/aeviaprotocol/aevia-go/engine/events"
	"github.com/aeviaprotocol/aevia-go/engine/handler"
	"github.com/aeviaprotocol/aevia-go/engine/ledger"
	testutil "github.com/aeviaprotocol/aevia-go/test_util"
	"github.com/aeviaprotocol/aevia-go/wallet"
)

func TestExecuteFungibleTransfer(t *testing.T) {
	fixture, err := testutil.NewTestEngine()
	require.NoError(t, err)
	records := fixture.Router.Subscribe("test")

	req, err := fixture.SignedFungibleTransfer(1, 100)
	require.NoError(t, err)

	err = fixture.Handler.ExecuteLegacy(context.Background(), testutil.TestOperator, req)
	require.NoError(t, err)

	assert.Equal(t, int64(100), fixture.Fungible.BalanceOf(testutil.TestRecipient).Int64())
	assert.Equal(t, int64(900), fixture.Fungible.BalanceOf(fixture.Owner.Address()).Int64())

	executed := (<-records).(events.LegacyExecuted)
	assert.Equal(t, req.Legacy, executed.Legacy)
}

func TestExecuteLegacyExactlyOnce(t *testing.T) {
	fixture, err := testutil.NewTestEngine()
	require.NoError(t, err)

	req, err := fixture.SignedFungibleTransfer(1, 50)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, fixture.Handler.ExecuteLegacy(ctx, testutil.TestOperator, req))

	// Identical resubmission is rejected and moves nothing.
	err = fixture.Handler.ExecuteLegacy(ctx, testutil.TestOperator, req)
	assert.ErrorIs(t, err, engine.ErrAlreadyFinalized)
	assert.Equal(t, int64(50), fixture.Fungible.BalanceOf(testutil.TestRecipient).Int64())
}

func TestExecuteUniqueTransfer(t *testing.T) {
	fixture, err := testutil.NewTestEngine()
	require.NoError(t, err)

	legacy := engine.Legacy{
		LegacyID:     big.NewInt(1),
		TokenType:    engine.TokenTypeERC721,
		TokenAddress: testutil.TestUniqueAddress,
		TokenID:      big.NewInt(1),
		Amount:       big.NewInt(1),
		From:         fixture.Owner.Address(),
		To:           testutil.TestRecipient,
	}
	signature, err := fixture.Owner.SignLegacy(fixture.Handler.Domain(), &legacy)
	require.NoError(t, err)

	err = fixture.Handler.ExecuteLegacy(context.Background(), testutil.TestOperator, &handler.ExecuteLegacyRequest{Legacy: legacy, Signature: signature})
	require.NoError(t, err)

	owner, ok := fixture.Unique.OwnerOf(big.NewInt(1))
	require.True(t, ok)
	assert.Equal(t, testutil.TestRecipient, owner)
}

func TestExecuteSemiFungibleTransfer(t *testing.T) {
	fixture, err := testutil.NewTestEngine()
	require.NoError(t, err)

	legacy := engine.Legacy{
		LegacyID:     big.NewInt(1),
		TokenType:    engine.TokenTypeERC1155,
		TokenAddress: testutil.TestSemiFungibleAddress,
		TokenID:      big.NewInt(1),
		Amount:       big.NewInt(40),
		From:         fixture.Owner.Address(),
		To:           testutil.TestRecipient,
	}
	signature, err := fixture.Owner.SignLegacy(fixture.Handler.Domain(), &legacy)
	require.NoError(t, err)

	err = fixture.Handler.ExecuteLegacy(context.Background(), testutil.TestOperator, &handler.ExecuteLegacyRequest{Legacy: legacy, Signature: signature})
	require.NoError(t, err)

	assert.Equal(t, int64(40), fixture.SemiFungible.BalanceOf(testutil.TestRecipient, big.NewInt(1)).Int64())
	assert.Equal(t, int64(60), fixture.SemiFungible.BalanceOf(fixture.Owner.Address(), big.NewInt(1)).Int64())
}

func TestRevocationBlocksExecution(t *testing.T) {
	fixture, err := testutil.NewTestEngine()
	require.NoError(t, err)
	records := fixture.Router.Subscribe("test")

	req, err := fixture.SignedFungibleTransfer(1, 100)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, fixture.Handler.RevokeLegacy(ctx, fixture.Owner.Address(), big.NewInt(1)))

	revoked, err := fixture.Handler.IsLegacyRevoked(ctx, fixture.Owner.Address(), big.NewInt(1))
	require.NoError(t, err)
	assert.True(t, revoked)

	err = fixture.Handler.ExecuteLegacy(ctx, testutil.TestOperator, req)
	assert.ErrorIs(t, err, engine.ErrAlreadyFinalized)
	assert.Equal(t, int64(0), fixture.Fungible.BalanceOf(testutil.TestRecipient).Int64())

	record := (<-records).(events.LegacyRevoked)
	assert.Equal(t, fixture.Owner.Address(), record.Owner)
	assert.Equal(t, int64(1), record.LegacyID.Int64())
}

func TestRevokeIsOwnerScoped(t *testing.T) {
	fixture, err := testutil.NewTestEngine()
	require.NoError(t, err)

	// A second owner with the same legacy id is untouched by the first
	// owner's revocation.
	otherOwner, err := wallet.NewSigner()
	require.NoError(t, err)
	fixture.Fungible.Mint(otherOwner.Address(), big.NewInt(500))
	fixture.Fungible.Approve(otherOwner.Address(), fixture.Config.VerifyingContract, big.NewInt(500))

	ctx := context.Background()
	require.NoError(t, fixture.Handler.RevokeLegacy(ctx, fixture.Owner.Address(), big.NewInt(1)))

	legacy := engine.Legacy{
		LegacyID:     big.NewInt(1),
		TokenType:    engine.TokenTypeERC20,
		TokenAddress: testutil.TestFungibleAddress,
		TokenID:      big.NewInt(0),
		Amount:       big.NewInt(200),
		From:         otherOwner.Address(),
		To:           testutil.TestRecipient,
	}
	signature, err := otherOwner.SignLegacy(fixture.Handler.Domain(), &legacy)
	require.NoError(t, err)

	err = fixture.Handler.ExecuteLegacy(ctx, testutil.TestOperator, &handler.ExecuteLegacyRequest{Legacy: legacy, Signature: signature})
	require.NoError(t, err)
	assert.Equal(t, int64(200), fixture.Fungible.BalanceOf(testutil.TestRecipient).Int64())
}

func TestRevokeTwiceSucceeds(t *testing.T) {
	fixture, err := testutil.NewTestEngine()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, fixture.Handler.RevokeLegacy(ctx, fixture.Owner.Address(), big.NewInt(1)))
	require.NoError(t, fixture.Handler.RevokeLegacy(ctx, fixture.Owner.Address(), big.NewInt(1)))
}

func TestRevokeAfterExecutionFails(t *testing.T) {
	fixture, err := testutil.NewTestEngine()
	require.NoError(t, err)

	req, err := fixture.SignedFungibleTransfer(1, 100)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, fixture.Handler.ExecuteLegacy(ctx, testutil.TestOperator, req))

	err = fixture.Handler.RevokeLegacy(ctx, fixture.Owner.Address(), big.NewInt(1))
	assert.ErrorIs(t, err, engine.ErrAlreadyFinalized)

	revoked, err := fixture.Handler.IsLegacyRevoked(ctx, fixture.Owner.Address(), big.NewInt(1))
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestSignatureBinding(t *testing.T) {
	fixture, err := testutil.NewTestEngine()
	require.NoError(t, err)

	// Signed by an account other than the declared owner.
	impostor, err := wallet.NewSigner()
	require.NoError(t, err)

	req, err := fixture.SignedFungibleTransfer(1, 100)
	require.NoError(t, err)
	req.Signature, err = impostor.SignLegacy(fixture.Handler.Domain(), &req.Legacy)
	require.NoError(t, err)

	err = fixture.Handler.ExecuteLegacy(context.Background(), testutil.TestOperator, req)
	assert.ErrorIs(t, err, engine.ErrInvalidSignature)
	assert.Equal(t, int64(0), fixture.Fungible.BalanceOf(testutil.TestRecipient).Int64())
}

func TestTamperedFieldInvalidatesSignature(t *testing.T) {
	fixture, err := testutil.NewTestEngine()
	require.NoError(t, err)

	req, err := fixture.SignedFungibleTransfer(1, 100)
	require.NoError(t, err)
	req.Legacy.Amount = big.NewInt(1000)

	err = fixture.Handler.ExecuteLegacy(context.Background(), testutil.TestOperator, req)
	assert.ErrorIs(t, err, engine.ErrInvalidSignature)
}

func TestRoleGating(t *testing.T) {
	fixture, err := testutil.NewTestEngine()
	require.NoError(t, err)

	req, err := fixture.SignedFungibleTransfer(1, 100)
	require.NoError(t, err)

	ctx := context.Background()
	stranger := ethcommon.HexToAddress("0x00000000000000000000000000000000000000ff")

	err = fixture.Handler.ExecuteLegacy(ctx, stranger, req)
	assert.ErrorIs(t, err, engine.ErrUnauthorized)

	err = fixture.Handler.AddOperator(stranger, stranger)
	assert.ErrorIs(t, err, engine.ErrUnauthorized)

	require.NoError(t, fixture.Handler.AddOperator(testutil.TestAdmin, stranger))
	require.NoError(t, fixture.Handler.ExecuteLegacy(ctx, stranger, req))

	require.NoError(t, fixture.Handler.RemoveOperator(testutil.TestAdmin, stranger))
	err = fixture.Handler.ExecuteLegacy(ctx, stranger, req)
	assert.ErrorIs(t, err, engine.ErrUnauthorized)
}

func TestKindSpecificValidation(t *testing.T) {
	fixture, err := testutil.NewTestEngine()
	require.NoError(t, err)
	ctx := context.Background()

	cases := []struct {
		name   string
		legacy engine.Legacy
	}{
		{
			name: "fungible with non-zero token id",
			legacy: engine.Legacy{
				LegacyID:     big.NewInt(1),
				TokenType:    engine.TokenTypeERC20,
				TokenAddress: testutil.TestFungibleAddress,
				TokenID:      big.NewInt(1),
				Amount:       big.NewInt(100),
			},
		},
		{
			name: "fungible with zero amount",
			legacy: engine.Legacy{
				LegacyID:     big.NewInt(2),
				TokenType:    engine.TokenTypeERC20,
				TokenAddress: testutil.TestFungibleAddress,
				TokenID:      big.NewInt(0),
				Amount:       big.NewInt(0),
			},
		},
		{
			name: "unique with amount two",
			legacy: engine.Legacy{
				LegacyID:     big.NewInt(3),
				TokenType:    engine.TokenTypeERC721,
				TokenAddress: testutil.TestUniqueAddress,
				TokenID:      big.NewInt(1),
				Amount:       big.NewInt(2),
			},
		},
		{
			name: "semi-fungible with zero amount",
			legacy: engine.Legacy{
				LegacyID:     big.NewInt(4),
				TokenType:    engine.TokenTypeERC1155,
				TokenAddress: testutil.TestSemiFungibleAddress,
				TokenID:      big.NewInt(1),
				Amount:       big.NewInt(0),
			},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			legacy := tt.legacy
			legacy.From = fixture.Owner.Address()
			legacy.To = testutil.TestRecipient

			signature, err := fixture.Owner.SignLegacy(fixture.Handler.Domain(), &legacy)
			require.NoError(t, err)

			err = fixture.Handler.ExecuteLegacy(ctx, testutil.TestOperator, &handler.ExecuteLegacyRequest{Legacy: legacy, Signature: signature})
			assert.ErrorIs(t, err, engine.ErrInvalidParameters)

			// A validation failure must not consume the legacy.
			state, err := fixture.Store.State(ctx, legacy.From, legacy.LegacyID)
			require.NoError(t, err)
			assert.Equal(t, ledger.StateUnused, state)
		})
	}
}

func TestTransferFailureLeavesLegacyUnused(t *testing.T) {
	fixture, err := testutil.NewTestEngine()
	require.NoError(t, err)
	ctx := context.Background()

	// More than the owner's balance.
	req, err := fixture.SignedFungibleTransfer(1, 5000)
	require.NoError(t, err)

	err = fixture.Handler.ExecuteLegacy(ctx, testutil.TestOperator, req)
	assert.ErrorIs(t, err, engine.ErrTransferFailed)

	state, err := fixture.Store.State(ctx, fixture.Owner.Address(), big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, ledger.StateUnused, state)

	// The same id is still redeemable once the authorization is fundable.
	retry, err := fixture.SignedFungibleTransfer(1, 100)
	require.NoError(t, err)
	require.NoError(t, fixture.Handler.ExecuteLegacy(ctx, testutil.TestOperator, retry))
}

func TestUnknownTokenContractFailsTransfer(t *testing.T) {
	fixture, err := testutil.NewTestEngine()
	require.NoError(t, err)

	legacy := engine.Legacy{
		LegacyID:     big.NewInt(1),
		TokenType:    engine.TokenTypeERC20,
		TokenAddress: ethcommon.HexToAddress("0x0000000000000000000000000000000000009999"),
		TokenID:      big.NewInt(0),
		Amount:       big.NewInt(100),
		From:         fixture.Owner.Address(),
		To:           testutil.TestRecipient,
	}
	signature, err := fixture.Owner.SignLegacy(fixture.Handler.Domain(), &legacy)
	require.NoError(t, err)

	err = fixture.Handler.ExecuteLegacy(context.Background(), testutil.TestOperator, &handler.ExecuteLegacyRequest{Legacy: legacy, Signature: signature})
	assert.ErrorIs(t, err, engine.ErrTransferFailed)
}

func TestExecuteRevokeRaceHasOneWinner(t *testing.T) {
	for i := 0; i < 10; i++ {
		fixture, err := testutil.NewTestEngine()
		require.NoError(t, err)

		req, err := fixture.SignedFungibleTransfer(1, 100)
		require.NoError(t, err)

		ctx := context.Background()
		var wg sync.WaitGroup
		var execErr, revokeErr error

		wg.Add(2)
		go func() {
			defer wg.Done()
			execErr = fixture.Handler.ExecuteLegacy(ctx, testutil.TestOperator, req)
		}()
		go func() {
			defer wg.Done()
			revokeErr = fixture.Handler.RevokeLegacy(ctx, fixture.Owner.Address(), big.NewInt(1))
		}()
		wg.Wait()

		if execErr == nil {
			assert.ErrorIs(t, revokeErr, engine.ErrAlreadyFinalized)
			assert.Equal(t, int64(100), fixture.Fungible.BalanceOf(testutil.TestRecipient).Int64())
		} else {
			assert.ErrorIs(t, execErr, engine.ErrAlreadyFinalized)
			require.NoError(t, revokeErr)
			assert.Equal(t, int64(0), fixture.Fungible.BalanceOf(testutil.TestRecipient).Int64())
		}
	}
}

func TestConcurrentExecutionsSingleWinner(t *testing.T) {
	fixture, err := testutil.NewTestEngine()
	require.NoError(t, err)

	req, err := fixture.SignedFungibleTransfer(1, 100)
	require.NoError(t, err)

	ctx := context.Background()
	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = fixture.Handler.ExecuteLegacy(ctx, testutil.TestOperator, req)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, engine.ErrAlreadyFinalized)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, int64(100), fixture.Fungible.BalanceOf(testutil.TestRecipient).Int64())
}
