package oracle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	cgBaseDemo = "https://api.coingecko.com/api/v3"
	cgBasePro  = "https://pro-api.coingecko.com/api/v3"
)

// CoinGecko reads a coin's USD price from the simple/price endpoint
type CoinGecko struct {
	baseURL string
	apiKey  string
	isPro   bool
	coinID  string
	client  *http.Client
	source  *limitedSource
}

// NewCoinGecko creates a price oracle for coinID ("ethereum", "fantom", ...).
// A non-empty baseURL overrides the public endpoints.
func NewCoinGecko(baseURL, apiKey string, isPro bool, coinID string, perSecond float64) *CoinGecko {
	if baseURL == "" {
		baseURL = cgBaseDemo
		if isPro {
			baseURL = cgBasePro
		}
	}

	c := &CoinGecko{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		isPro:   isPro,
		coinID:  coinID,
		client:  newHTTPClient(),
	}
	c.source = newLimitedSource(perSecond, c.fetch)
	return c
}

// NativeAssetPriceUSD returns the coin price in USD
func (c *CoinGecko) NativeAssetPriceUSD(ctx context.Context) (float64, error) {
	return c.source.price(ctx)
}

func (c *CoinGecko) fetch(ctx context.Context) (float64, error) {
	q := url.Values{}
	q.Set("ids", c.coinID)
	q.Set("vs_currencies", "usd")

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		if c.isPro {
			req.Header.Set("x-cg-pro-api-key", c.apiKey)
		} else {
			req.Header.Set("x-cg-demo-api-key", c.apiKey)
		}
	}

	var result map[string]map[string]float64
	if err := getJSON(ctx, c.client, req, &result); err != nil {
		return 0, err
	}

	price, ok := result[c.coinID]["usd"]
	if !ok {
		return 0, fmt.Errorf("no usd price for %s", c.coinID)
	}
	return price, nil
}
