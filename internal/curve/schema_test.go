package curve

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurveAccountRoundTrip(t *testing.T) {
	p := DefaultParams()
	c := New(p, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(),
		"Fuse Token", "FUSE", "https://ipfs.io/ipfs/QmFuse", time.Unix(1_700_000_000, 0).UTC())
	c.RealSolReserves = 12_345_678_901
	c.CreatorFeeAccumulated = 4_200_000
	c.Complete = true

	data, err := c.MarshalBinary()
	require.NoError(t, err)

	got, err := UnmarshalBinary(data)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestUnmarshalBinary_Rejections(t *testing.T) {
	_, err := UnmarshalBinary(nil)
	assert.Error(t, err)

	_, err = UnmarshalBinary([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	assert.Error(t, err, "wrong discriminator must be rejected")

	p := DefaultParams()
	c := New(p, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), "T", "T", "", time.Now().UTC())
	data, err := c.MarshalBinary()
	require.NoError(t, err)

	// Corrupt the version byte right after the discriminator.
	data[8] = 99
	_, err = UnmarshalBinary(data)
	assert.Error(t, err, "unknown schema version must be rejected")
}
