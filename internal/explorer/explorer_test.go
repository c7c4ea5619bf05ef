package explorer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/drain-watcher/internal/types/environments"
	"github.com/dwarvesf/drain-watcher/internal/utils/config"
	"github.com/dwarvesf/drain-watcher/internal/utils/logger"
)

func newTestClient(url string) IExplorer {
	cfg := &config.AppConfig{
		Explorer: config.ExplorerConfig{
			APIURL: url,
			APIKey: "test-key",
		},
	}
	return New(cfg, logger.New(environments.Test))
}

func TestEtherscan_GetTransactionsByAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "account", q.Get("module"))
		assert.Equal(t, "txlist", q.Get("action"))
		assert.Equal(t, "0xabc", q.Get("address"))
		assert.Equal(t, "desc", q.Get("sort"))
		assert.Equal(t, "test-key", q.Get("apikey"))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"1","message":"OK","result":[
			{"hash":"0x2","from":"0xabc","to":"0xdef","value":"50000000000000","timeStamp":"1760000000","isError":"1"},
			{"hash":"0x1","from":"0xabc","to":"","value":"0","timeStamp":"1759990000","isError":"0"}
		]}`))
	}))
	defer server.Close()

	txs, err := newTestClient(server.URL).GetTransactionsByAddress(context.Background(), "0xabc")
	require.NoError(t, err)
	// reverted records stay in the feed like any other
	require.Len(t, txs, 2)
	assert.Equal(t, "0x2", txs[0].Hash)
	assert.Equal(t, "50000000000000", txs[0].Value)
	assert.Equal(t, "1760000000", txs[0].TimeStamp)
	assert.Equal(t, "", txs[1].To)
}

func TestEtherscan_NoTransactionsFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","message":"No transactions found","result":[]}`))
	}))
	defer server.Close()

	txs, err := newTestClient(server.URL).GetTransactionsByAddress(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Len(t, txs, 0)
}

func TestEtherscan_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Invalid API Key"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetTransactionsByAddress(context.Background(), "0xabc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API Key")
	assert.False(t, errors.Is(err, ErrRateLimited))
}

func TestEtherscan_RetriesOn429(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("Rate limit exceeded"))
			return
		}
		w.Write([]byte(`{"status":"1","message":"OK","result":[]}`))
	}))
	defer server.Close()

	txs, err := newTestClient(server.URL).GetTransactionsByAddress(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Len(t, txs, 0)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestEtherscan_RateLimitedAfterRetries(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetTransactionsByAddress(context.Background(), "0xabc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, int32(maxRetries+1), atomic.LoadInt32(&requests))
}

func TestEtherscan_CountTransactions(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{
			name:     "never seen",
			body:     `{"status":"0","message":"No transactions found","result":[]}`,
			expected: 0,
		},
		{
			name:     "only the drain transaction",
			body:     `{"status":"1","message":"OK","result":[{"hash":"0x1"}]}`,
			expected: 1,
		},
		{
			name:     "has history",
			body:     `{"status":"1","message":"OK","result":[{"hash":"0x1"},{"hash":"0x2"}]}`,
			expected: 2,
		},
		{
			name:     "explorer ignores offset",
			body:     `{"status":"1","message":"OK","result":[{"hash":"0x1"},{"hash":"0x2"},{"hash":"0x3"}]}`,
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				assert.Equal(t, "1", q.Get("page"))
				assert.Equal(t, "2", q.Get("offset"))
				assert.Equal(t, "asc", q.Get("sort"))
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			count, err := newTestClient(server.URL).CountTransactions(context.Background(), "0xdef", 2)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, count)
		})
	}
}

func TestEtherscan_CountTransactions_InvalidLimit(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:0").CountTransactions(context.Background(), "0xdef", 0)
	assert.Error(t, err)
}

func TestEtherscan_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CountTransactions(context.Background(), "0xdef", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse txlist response")
}
