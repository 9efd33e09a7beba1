package gasoracle

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(ClientOptions{
		BaseURL:         url,
		RequestTimeout:  time.Second,
		RequestsPerSec:  100,
		MaxRetries:      1,
		MaxRetryTimeout: time.Second,
	})
}

func TestGetGasTier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gas", r.URL.Path)
		_, _ = io.WriteString(w, `{"slow":"10000000000","standard":"25000000000","fast":"0xdf8475800","instant":"90000000000","confidence":1.4}`)
	}))
	defer srv.Close()

	tier, err := newTestClient(srv.URL + "/").GetGasTier(context.Background())
	require.NoError(t, err)

	assert.Zero(t, big.NewInt(10e9).Cmp(tier.Slow))
	assert.Zero(t, big.NewInt(25e9).Cmp(tier.Standard))
	assert.Zero(t, big.NewInt(60e9).Cmp(tier.Fast))
	assert.Zero(t, big.NewInt(90e9).Cmp(tier.Instant))
	assert.Equal(t, 1.0, tier.Confidence)
}

func TestGetGasTierRejectsBadPrices(t *testing.T) {
	for _, body := range []string{
		`{"slow":"","standard":"1","fast":"2","instant":"3"}`,
		`{"slow":"abc","standard":"1","fast":"2","instant":"3"}`,
		`{"slow":"-1","standard":"1","fast":"2","instant":"3"}`,
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		}))

		_, err := newTestClient(srv.URL).GetGasTier(context.Background())
		assert.Error(t, err, body)
		srv.Close()
	}
}

func TestGetMempoolStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mempool", r.URL.Path)
		_, _ = io.WriteString(w, `{"pending_count":120000,"avg_gas_price_wei":"31000000000"}`)
	}))
	defer srv.Close()

	stats, err := newTestClient(srv.URL).GetMempoolStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120_000, stats.PendingCount)
	assert.Zero(t, big.NewInt(31e9).Cmp(stats.AvgGasPriceWei))
}

func TestServerFailureIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetGasTier(context.Background())
	assert.Error(t, err)
	_, err = newTestClient(srv.URL).GetMempoolStats(context.Background())
	assert.Error(t, err)
}

func TestRPCMempool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result string
		switch req.Method {
		case "txpool_status":
			result = `{"pending":"0x1d4c0","queued":"0x10"}`
		case "eth_gasPrice":
			result = `"0x746a52880"`
		default:
			t.Errorf("unexpected method %s", req.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":`+string(req.ID)+`,"result":`+result+`}`)
	}))
	defer srv.Close()

	mempool, err := DialMempool(context.Background(), srv.URL)
	require.NoError(t, err)
	defer mempool.Close()

	stats, err := mempool.GetMempoolStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120_000, stats.PendingCount)
	assert.Zero(t, big.NewInt(31_250_000_000).Cmp(stats.AvgGasPriceWei))
}
