package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tonflip/domain/entities"
	"tonflip/domain/utils"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// TonCenterClient reads wallet transactions from the toncenter v2 HTTP API
type TonCenterClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewTonCenterClient creates a new toncenter client
func NewTonCenterClient(baseURL, apiKey string) *TonCenterClient {
	return &TonCenterClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetTransactions returns the latest transactions of wallet, newest first
func (c *TonCenterClient) GetTransactions(ctx context.Context, wallet string, limit int) ([]*entities.ChainTransaction, error) {
	query := url.Values{}
	query.Set("address", wallet)
	query.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/getTransactions?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build toncenter request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query toncenter: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read toncenter response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("toncenter returned status %d: %s", resp.StatusCode, gjson.GetBytes(body, "error").String())
	}

	return parseTransactions(body)
}

func parseTransactions(body []byte) ([]*entities.ChainTransaction, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("toncenter response is not valid JSON")
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.Get("ok").Bool() {
		return nil, fmt.Errorf("toncenter request failed: %s", parsed.Get("error").String())
	}

	var transactions []*entities.ChainTransaction
	parsed.Get("result").ForEach(func(_, tx gjson.Result) bool {
		chainTx := &entities.ChainTransaction{
			Hash:  tx.Get("transaction_id.hash").String(),
			Utime: time.Unix(tx.Get("utime").Int(), 0).UTC(),
		}

		tx.Get("out_msgs").ForEach(func(_, msg gjson.Result) bool {
			destination := msg.Get("destination").String()
			if destination == "" {
				return true
			}
			raw, err := utils.NormalizeTONAddress(destination)
			if err != nil {
				log.WithFields(log.Fields{
					"txHash":      chainTx.Hash,
					"destination": destination,
				}).Debug("Skipping message with unparseable destination")
				return true
			}
			chainTx.OutMessages = append(chainTx.OutMessages, entities.ChainMessage{
				Destination: raw,
				ValueNano:   msg.Get("value").Int(),
			})
			return true
		})

		transactions = append(transactions, chainTx)
		return true
	})

	return transactions, nil
}
