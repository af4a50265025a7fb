// =============================
// File: internal/curve/schema.go
// =============================
package curve

import (
	"bytes"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// AccountDiscriminator prefixes every serialized curve account.
var AccountDiscriminator = [8]byte{0x17, 0xb7, 0xf8, 0x37, 0x60, 0xd8, 0xac, 0x60}

// schemaVersion is bumped whenever the account layout changes. Decoders reject
// versions they do not know instead of guessing at byte offsets.
const schemaVersion uint8 = 1

// curveAccount is the borsh wire layout of a BondingCurve.
type curveAccount struct {
	Version               uint8
	Creator               solana.PublicKey
	TokenMint             solana.PublicKey
	TokenTotalSupply      uint64
	VirtualSolReserves    uint64
	VirtualTokenReserves  uint64
	RealSolReserves       uint64
	RealTokenReserves     uint64
	Complete              bool
	Migrated              bool
	CreatorFeeAccumulated uint64
	LaunchTimestamp       int64
	Name                  string
	Symbol                string
	URI                   string
}

// MarshalBinary serializes the curve as discriminator + versioned borsh body.
func (c *BondingCurve) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(AccountDiscriminator[:])

	acc := curveAccount{
		Version:               schemaVersion,
		Creator:               c.Creator,
		TokenMint:             c.TokenMint,
		TokenTotalSupply:      c.TokenTotalSupply,
		VirtualSolReserves:    c.VirtualSolReserves,
		VirtualTokenReserves:  c.VirtualTokenReserves,
		RealSolReserves:       c.RealSolReserves,
		RealTokenReserves:     c.RealTokenReserves,
		Complete:              c.Complete,
		Migrated:              c.Migrated,
		CreatorFeeAccumulated: c.CreatorFeeAccumulated,
		LaunchTimestamp:       c.LaunchTimestamp.Unix(),
		Name:                  c.Name,
		Symbol:                c.Symbol,
		URI:                   c.URI,
	}
	if err := bin.NewBorshEncoder(buf).Encode(&acc); err != nil {
		return nil, fmt.Errorf("failed to encode bonding curve: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a serialized curve account, validating the
// discriminator and schema version.
func UnmarshalBinary(data []byte) (*BondingCurve, error) {
	if len(data) < len(AccountDiscriminator) {
		return nil, fmt.Errorf("data too short for bonding curve account: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], AccountDiscriminator[:]) {
		return nil, fmt.Errorf("invalid discriminator for bonding curve account")
	}

	var acc curveAccount
	if err := bin.NewBorshDecoder(data[8:]).Decode(&acc); err != nil {
		return nil, fmt.Errorf("failed to decode bonding curve: %w", err)
	}
	if acc.Version != schemaVersion {
		return nil, fmt.Errorf("unsupported bonding curve schema version %d", acc.Version)
	}

	return &BondingCurve{
		Creator:               acc.Creator,
		TokenMint:             acc.TokenMint,
		TokenTotalSupply:      acc.TokenTotalSupply,
		VirtualSolReserves:    acc.VirtualSolReserves,
		VirtualTokenReserves:  acc.VirtualTokenReserves,
		RealSolReserves:       acc.RealSolReserves,
		RealTokenReserves:     acc.RealTokenReserves,
		Complete:              acc.Complete,
		Migrated:              acc.Migrated,
		CreatorFeeAccumulated: acc.CreatorFeeAccumulated,
		LaunchTimestamp:       time.Unix(acc.LaunchTimestamp, 0).UTC(),
		Name:                  acc.Name,
		Symbol:                acc.Symbol,
		URI:                   acc.URI,
	}, nil
}
