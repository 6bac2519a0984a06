package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toncenterResponse = `{
  "ok": true,
  "result": [
    {
      "utime": 1732104000,
      "transaction_id": {"lt": "4900000000001", "hash": "hash-1"},
      "out_msgs": [
        {"destination": "UQB1tZNtifeLxqQmWUfI9AHVtjvrt3x85Jv6XmkvMiDIt0mS", "value": "150000000"},
        {"destination": "", "value": "1"}
      ]
    },
    {
      "utime": 1732100000,
      "transaction_id": {"lt": "4900000000000", "hash": "hash-0"},
      "out_msgs": []
    }
  ]
}`

func TestTonCenterClient_GetTransactions(t *testing.T) {
	var gotQuery, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getTransactions", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(toncenterResponse))
	}))
	defer server.Close()

	client := NewTonCenterClient(server.URL+"/", "secret")
	txs, err := client.GetTransactions(context.Background(), "UQCuqHbDt1kltOPMmGT3u_PWgEtiQm_dHUUo3fC-ejDrcnMQ", 3)
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Contains(t, gotQuery, "limit=3")
	assert.Contains(t, gotQuery, "address=UQCuqHbDt1kltOPMmGT3u_PWgEtiQm_dHUUo3fC-ejDrcnMQ")

	require.Len(t, txs, 2)
	assert.Equal(t, "hash-1", txs[0].Hash)
	assert.Equal(t, time.Unix(1732104000, 0).UTC(), txs[0].Utime)
	require.Len(t, txs[0].OutMessages, 1)
	assert.Equal(t, "0:75b5936d89f78bc6a4265947c8f401d5b63bebb77c7ce49bfa5e692f3220c8b7", txs[0].OutMessages[0].Destination)
	assert.Equal(t, int64(150000000), txs[0].OutMessages[0].ValueNano)
	assert.Empty(t, txs[1].OutMessages)
}

func TestTonCenterClient_Errors(t *testing.T) {
	t.Run("non 200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"ok":false,"error":"Ratelimit exceed"}`))
		}))
		defer server.Close()

		_, err := NewTonCenterClient(server.URL, "").GetTransactions(context.Background(), "w", 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Ratelimit exceed")
	})

	t.Run("ok false", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":false,"error":"invalid address"}`))
		}))
		defer server.Close()

		_, err := NewTonCenterClient(server.URL, "").GetTransactions(context.Background(), "w", 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid address")
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := parseTransactions([]byte(`{"ok":`))
		assert.Error(t, err)
	})
}
