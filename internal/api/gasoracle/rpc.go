package gasoracle

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/WalletAdvisor/models"
)

// RPCMempool reads mempool figures from a node's JSON-RPC endpoint
type RPCMempool struct {
	client *rpc.Client
	logger zerolog.Logger
}

// DialMempool connects to a node
func DialMempool(ctx context.Context, url string) (*RPCMempool, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing node: %w", err)
	}
	return &RPCMempool{
		client: client,
		logger: log.With().Str("component", "rpc_mempool").Logger(),
	}, nil
}

// GetMempoolStats returns the pending count from txpool_status and the
// node's suggested gas price
func (m *RPCMempool) GetMempoolStats(ctx context.Context) (models.MempoolStats, error) {
	var status struct {
		Pending hexutil.Uint `json:"pending"`
		Queued  hexutil.Uint `json:"queued"`
	}
	if err := m.client.CallContext(ctx, &status, "txpool_status"); err != nil {
		return models.MempoolStats{}, fmt.Errorf("txpool_status: %w", err)
	}

	var price hexutil.Big
	if err := m.client.CallContext(ctx, &price, "eth_gasPrice"); err != nil {
		return models.MempoolStats{}, fmt.Errorf("eth_gasPrice: %w", err)
	}

	m.logger.Debug().
		Uint("pending", uint(status.Pending)).
		Uint("queued", uint(status.Queued)).
		Msg("Fetched txpool status")

	return models.MempoolStats{
		PendingCount:   int(status.Pending),
		AvgGasPriceWei: price.ToInt(),
	}, nil
}

// Close releases the connection
func (m *RPCMempool) Close() {
	m.client.Close()
}
