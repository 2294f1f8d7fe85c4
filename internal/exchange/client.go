package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// rateUnavailable is the sentinel returned whenever a live rate cannot be
// obtained. Callers treat it as "skip conversion", not as an error.
var rateUnavailable = decimal.NewFromInt(1)

type Client struct {
	httpClient  *http.Client
	redisClient *redis.Client
	log         *slog.Logger
	apiURL      string
	apiKey      string
	base        string
	cacheTTL    time.Duration
}

func NewClient(apiURL, apiKey, baseCurrency string, timeout, cacheTTL time.Duration, redisClient *redis.Client, log *slog.Logger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		redisClient: redisClient,
		log:         log,
		apiURL:      apiURL,
		apiKey:      apiKey,
		base:        baseCurrency,
		cacheTTL:    cacheTTL,
	}
}

type ratesResponse struct {
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
}

// FetchRate returns the exchange rate from the base currency to the target
// currency. On any failure it returns 1.0, the "unavailable" sentinel.
func (c *Client) FetchRate(ctx context.Context, target string) decimal.Decimal {
	if target == c.base {
		return rateUnavailable
	}

	cacheKey := "exchange_rate:" + target
	if c.redisClient != nil {
		if cached, err := c.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			if rate, err := decimal.NewFromString(cached); err == nil {
				return rate
			}
		}
	}

	url := fmt.Sprintf("%s/%s/latest/%s", c.apiURL, c.apiKey, c.base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.log.Error("build exchange rate request", "error", err)
		return rateUnavailable
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("fetch exchange rate", "error", err)
		return rateUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("fetch exchange rate", "status", resp.StatusCode)
		return rateUnavailable
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.log.Error("decode exchange rate response", "error", err)
		return rateUnavailable
	}

	rate, ok := body.ConversionRates[target]
	if !ok {
		c.log.Warn("exchange rate not found", "currency", target)
		return rateUnavailable
	}

	if c.redisClient != nil {
		if err := c.redisClient.Set(ctx, cacheKey, rate.String(), c.cacheTTL).Err(); err != nil {
			c.log.Error("cache exchange rate", "error", err)
		}
	}
	return rate
}

// Unavailable reports whether a rate is the sentinel value.
func Unavailable(rate decimal.Decimal) bool {
	return rate.Equal(rateUnavailable)
}
