package wallet

import (
	"math/big"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeviaprotocol/aevia-go/engine"
	"github.com/aeviaprotocol/aevia-go/engine/typeddata"
)

func TestSignLegacyRecoversToSigner(t *testing.T) {
	signer, err := NewSigner()
	require.NoError(t, err)

	domain := typeddata.DefaultDomain(big.NewInt(31337), ethcommon.HexToAddress("0x01"))
	legacy := &engine.Legacy{
		LegacyID:     big.NewInt(1),
		TokenType:    engine.TokenTypeERC20,
		TokenAddress: ethcommon.HexToAddress("0x02"),
		TokenID:      big.NewInt(0),
		Amount:       big.NewInt(100),
		From:         signer.Address(),
		To:           ethcommon.HexToAddress("0x03"),
	}

	signature, err := signer.SignLegacy(domain, legacy)
	require.NoError(t, err)
	require.Len(t, signature, 65)
	assert.True(t, signature[64] == 27 || signature[64] == 28)

	recovered, err := typeddata.RecoverSigner(domain, legacy, signature)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), recovered)
}

func TestSignerFromHexRoundtrip(t *testing.T) {
	signer, err := NewSigner()
	require.NoError(t, err)

	restored, err := NewSignerFromHex("0x" + signer.PrivateKeyHex())
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), restored.Address())
}

func TestSignerRejectsBadKey(t *testing.T) {
	_, err := NewSignerFromHex("zz")
	assert.Error(t, err)

	_, err = NewSignerFromBytes(make([]byte, 16))
	assert.Error(t, err)
}
