package oracle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Etherscan reads the ether price from an etherscan-compatible stats API
type Etherscan struct {
	baseURL string
	apiKey  string
	client  *http.Client
	source  *limitedSource
}

// NewEtherscan creates an ether price oracle; perSecond bounds the request rate
func NewEtherscan(baseURL, apiKey string, perSecond float64) *Etherscan {
	e := &Etherscan{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(),
	}
	e.source = newLimitedSource(perSecond, e.fetch)
	return e
}

// NativeAssetPriceUSD returns the ether price in USD
func (e *Etherscan) NativeAssetPriceUSD(ctx context.Context) (float64, error) {
	return e.source.price(ctx)
}

func (e *Etherscan) fetch(ctx context.Context) (float64, error) {
	u, err := url.Parse(e.baseURL)
	if err != nil {
		return 0, fmt.Errorf("invalid etherscan url: %w", err)
	}
	q := u.Query()
	q.Set("module", "stats")
	q.Set("action", "ethprice")
	if e.apiKey != "" {
		q.Set("apikey", e.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	var result struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Result  struct {
			EthUSD string `json:"ethusd"`
		} `json:"result"`
	}
	if err := getJSON(ctx, e.client, req, &result); err != nil {
		return 0, err
	}
	if result.Status != "1" {
		return 0, fmt.Errorf("etherscan error: %s", result.Message)
	}

	price, err := strconv.ParseFloat(result.Result.EthUSD, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ethusd %q: %w", result.Result.EthUSD, err)
	}
	return price, nil
}
