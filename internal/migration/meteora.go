// ==================================
// File: internal/migration/meteora.go
// ==================================
package migration

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// Program addresses involved in a migration.
var (
	LaunchpadProgramID = solana.MustPublicKeyFromBase58("CT4bS24PZXLzxuGMiHPLs3tpWYu72aVJ83UMgSNUeKY2")
	MeteoraAmmProgram  = solana.MustPublicKeyFromBase58("Eo7WjKq67rjJQSZxS6z3YkapzY3eMj6Xy8X5EQVn5UaB")
)

// Anchor instruction discriminators (sha256("global:<name>")[:8]).
var (
	migrateDiscriminator    = [8]byte{155, 234, 231, 146, 236, 158, 162, 30}
	lockDiscriminator       = [8]byte{21, 19, 208, 43, 237, 62, 255, 87}
	lockEscrowDiscriminator = [8]byte{54, 87, 165, 19, 69, 227, 218, 224}
)

// DeriveCurveAddress returns the launchpad's curve PDA for a mint.
func DeriveCurveAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("curve"), mint.Bytes()},
		LaunchpadProgramID,
	)
	return addr, err
}

// DeriveVaultAddress returns the launchpad's token vault PDA for a mint.
func DeriveVaultAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("vault"), mint.Bytes()},
		LaunchpadProgramID,
	)
	return addr, err
}

// DerivePoolAddress returns the AMM pool PDA for the token/WSOL pair. The
// two mints are sorted byte-wise before derivation.
func DerivePoolAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	a, b := mint, solana.WrappedSol
	if bytes.Compare(b.Bytes(), a.Bytes()) < 0 {
		a, b = b, a
	}
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("pool"), a.Bytes(), b.Bytes()},
		MeteoraAmmProgram,
	)
	return addr, err
}

// DeriveLockEscrowAddress returns the escrow PDA holding a locked LP position.
func DeriveLockEscrowAddress(pool, owner solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("lock_escrow"), pool.Bytes(), owner.Bytes()},
		MeteoraAmmProgram,
	)
	return addr, err
}

// MeteoraClient drives migrations through the launchpad program and the
// Meteora dynamic AMM.
type MeteoraClient struct {
	rpc    *rpc.Client
	wallet solana.PrivateKey
	logger *zap.Logger
}

func NewMeteoraClient(rpcClient *rpc.Client, wallet solana.PrivateKey, logger *zap.Logger) *MeteoraClient {
	return &MeteoraClient{
		rpc:    rpcClient,
		wallet: wallet,
		logger: logger.Named("meteora"),
	}
}

// CreatePool runs the on-chain migrate instruction, which drains the curve
// vault and seeds the AMM pool in one transaction. If the pool account
// already exists the call is a no-op and returns its address.
func (m *MeteoraClient) CreatePool(ctx context.Context, mint solana.PublicKey, solLamports, tokenAmount uint64) (solana.PublicKey, error) {
	pool, err := DerivePoolAddress(mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive pool address: %w", err)
	}

	existing, err := m.rpc.GetAccountInfo(ctx, pool)
	if err == nil && existing != nil && existing.Value != nil {
		m.logger.Info("pool already exists, skipping creation",
			zap.String("mint", mint.String()),
			zap.String("pool", pool.String()))
		return pool, nil
	}

	curveAddr, err := DeriveCurveAddress(mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive curve address: %w", err)
	}
	vaultAddr, err := DeriveVaultAddress(mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive vault address: %w", err)
	}
	migrationATA, _, err := solana.FindAssociatedTokenAddress(m.wallet.PublicKey(), mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive migration token account: %w", err)
	}

	data, err := encodeMigrateArgs(solLamports, tokenAmount)
	if err != nil {
		return solana.PublicKey{}, err
	}

	ix := solana.NewInstruction(
		LaunchpadProgramID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(m.wallet.PublicKey(), true, true), // migration authority
			solana.NewAccountMeta(curveAddr, true, false),
			solana.NewAccountMeta(mint, true, false),
			solana.NewAccountMeta(vaultAddr, true, false),
			solana.NewAccountMeta(migrationATA, true, false),
			solana.NewAccountMeta(pool, true, false),
			solana.NewAccountMeta(MeteoraAmmProgram, false, false),
			solana.NewAccountMeta(solana.TokenProgramID, false, false),
			solana.NewAccountMeta(solana.SystemProgramID, false, false),
		},
		data,
	)

	if _, err := m.sendAndConfirm(ctx, []solana.Instruction{ix}); err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to create pool for %s: %w", mint, err)
	}

	m.logger.Info("pool created",
		zap.String("mint", mint.String()),
		zap.String("pool", pool.String()),
		zap.Uint64("sol", solLamports),
		zap.Uint64("tokens", tokenAmount))
	return pool, nil
}

// LockLiquidity creates the lock escrow (if needed) and locks the migration
// wallet's full LP balance into it.
func (m *MeteoraClient) LockLiquidity(ctx context.Context, pool, mint solana.PublicKey) (string, error) {
	escrow, err := DeriveLockEscrowAddress(pool, m.wallet.PublicKey())
	if err != nil {
		return "", fmt.Errorf("failed to derive lock escrow: %w", err)
	}

	var instructions []solana.Instruction

	existing, err := m.rpc.GetAccountInfo(ctx, escrow)
	if err != nil || existing == nil || existing.Value == nil {
		instructions = append(instructions, solana.NewInstruction(
			MeteoraAmmProgram,
			solana.AccountMetaSlice{
				solana.NewAccountMeta(pool, true, false),
				solana.NewAccountMeta(escrow, true, false),
				solana.NewAccountMeta(m.wallet.PublicKey(), false, false), // escrow owner
				solana.NewAccountMeta(m.wallet.PublicKey(), true, true),   // payer
				solana.NewAccountMeta(solana.SystemProgramID, false, false),
			},
			lockEscrowDiscriminator[:],
		))
	}

	instructions = append(instructions, solana.NewInstruction(
		MeteoraAmmProgram,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(pool, true, false),
			solana.NewAccountMeta(escrow, true, false),
			solana.NewAccountMeta(m.wallet.PublicKey(), true, true),
			solana.NewAccountMeta(solana.TokenProgramID, false, false),
		},
		lockDiscriminator[:],
	))

	sig, err := m.sendAndConfirm(ctx, instructions)
	if err != nil {
		return "", fmt.Errorf("failed to lock liquidity for pool %s: %w", pool, err)
	}

	m.logger.Info("liquidity locked",
		zap.String("pool", pool.String()),
		zap.String("escrow", escrow.String()),
		zap.String("signature", sig.String()))
	return sig.String(), nil
}

// PayCreator transfers the accumulated creator fees from the migration wallet.
func (m *MeteoraClient) PayCreator(ctx context.Context, creator solana.PublicKey, lamports uint64) (string, error) {
	if lamports == 0 {
		return "", nil
	}

	ix := system.NewTransferInstruction(lamports, m.wallet.PublicKey(), creator).Build()

	sig, err := m.sendAndConfirm(ctx, []solana.Instruction{ix})
	if err != nil {
		return "", fmt.Errorf("failed to pay creator %s: %w", creator, err)
	}

	m.logger.Info("creator paid",
		zap.String("creator", creator.String()),
		zap.Uint64("lamports", lamports),
		zap.String("signature", sig.String()))
	return sig.String(), nil
}

func (m *MeteoraClient) sendAndConfirm(ctx context.Context, instructions []solana.Instruction) (solana.Signature, error) {
	recent, err := m.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(m.wallet.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(m.wallet.PublicKey()) {
			return &m.wallet
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sendPolicy := backoff.NewExponentialBackOff()
	sendPolicy.InitialInterval = 500 * time.Millisecond
	sendPolicy.MaxInterval = 5 * time.Second

	operation := func() (solana.Signature, error) {
		return m.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentConfirmed,
		})
	}
	notify := func(err error, duration time.Duration) {
		m.logger.Warn("retrying transaction send", zap.Error(err), zap.Duration("backoff", duration))
	}

	sig, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(sendPolicy),
		backoff.WithMaxTries(3),
		backoff.WithNotify(notify))
	if err != nil {
		return solana.Signature{}, err
	}

	if err := m.awaitConfirmation(ctx, sig); err != nil {
		return solana.Signature{}, err
	}
	return sig, nil
}

func (m *MeteoraClient) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			statuses, err := m.rpc.GetSignatureStatuses(ctx, true, sig)
			if err != nil {
				continue
			}
			if len(statuses.Value) == 0 || statuses.Value[0] == nil {
				continue
			}
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed on chain: %v", sig, status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}
	}
}

func encodeMigrateArgs(solLamports, tokenAmount uint64) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBytes(migrateDiscriminator[:], false); err != nil {
		return nil, fmt.Errorf("failed to encode migrate args: %w", err)
	}
	if err := enc.WriteUint64(solLamports, bin.LE); err != nil {
		return nil, fmt.Errorf("failed to encode migrate args: %w", err)
	}
	if err := enc.WriteUint64(tokenAmount, bin.LE); err != nil {
		return nil, fmt.Errorf("failed to encode migrate args: %w", err)
	}
	return buf.Bytes(), nil
}
