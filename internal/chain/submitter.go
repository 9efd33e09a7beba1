// Package chain signs and broadcasts transfers to an Ethereum node.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/WalletAdvisor/models"
)

// transferGasLimit is the intrinsic gas of a plain value transfer
const transferGasLimit = 21_000

// Backend is the node API the submitter needs
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Submitter signs legacy value transfers with a single key
type Submitter struct {
	backend Backend
	key     *ecdsa.PrivateKey
	from    common.Address
	logger  zerolog.Logger
}

// Dial connects to a node
func Dial(ctx context.Context, url string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing node: %w", err)
	}
	return client, nil
}

// NewSubmitter creates a submitter from a hex private key
func NewSubmitter(backend Backend, hexKey string) (*Submitter, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signer key: %w", err)
	}

	return &Submitter{
		backend: backend,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		logger:  log.With().Str("component", "chain_submitter").Logger(),
	}, nil
}

// From is the sending address
func (s *Submitter) From() common.Address {
	return s.from
}

// Submit signs and broadcasts a transfer at gasPriceWei and returns the tx hash
func (s *Submitter) Submit(ctx context.Context, transfer models.TransferRequest, gasPriceWei *big.Int) (string, error) {
	if !common.IsHexAddress(transfer.Recipient) {
		return "", models.ErrInvalidRecipient
	}
	if gasPriceWei == nil || gasPriceWei.Sign() <= 0 {
		return "", fmt.Errorf("gas price must be positive")
	}

	nonce, err := s.backend.PendingNonceAt(ctx, s.from)
	if err != nil {
		return "", fmt.Errorf("fetching nonce: %w", err)
	}
	chainID, err := s.backend.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching chain id: %w", err)
	}

	value := transfer.AmountWei
	if value == nil {
		value = new(big.Int)
	}
	to := common.HexToAddress(transfer.Recipient)

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      transferGasLimit,
		GasPrice: gasPriceWei,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return "", fmt.Errorf("signing transaction: %w", err)
	}

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("broadcasting transaction: %w", err)
	}

	s.logger.Info().
		Str("tx_hash", signed.Hash().Hex()).
		Uint64("nonce", nonce).
		Str("to", to.Hex()).
		Msg("Transaction broadcast")

	return signed.Hash().Hex(), nil
}
