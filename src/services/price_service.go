// backend/src/services/price_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/hodlfolio/backend/src/logger"
	"github.com/username/hodlfolio/backend/src/models"
	"github.com/username/hodlfolio/backend/src/utils"
	"golang.org/x/net/publicsuffix"
)

// --- API Response Structs ---

// simplePriceResponse is the CoinGecko /simple/price body:
// {"bitcoin": {"usd": 64123.45}}. Prices decode as json.Number so they can be
// carried into decimal.Decimal without a float round trip.
type simplePriceResponse map[string]map[string]json.Number

const priceProviderAssetKey = "bitcoin"

// --- Service Implementation ---

type priceServiceImpl struct {
	httpClient http.Client
	baseURL    string
	quoteCache *cache.Cache
	cacheTTL   time.Duration
}

// NewPriceService builds the CoinGecko-backed price service. baseURL is
// configurable so tests can point it at a local stub server.
func NewPriceService(baseURL string, cacheTTL, fetchTimeout time.Duration) PriceService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	client := http.Client{
		Jar:     jar,
		Timeout: fetchTimeout,
	}

	return &priceServiceImpl{
		httpClient: client,
		baseURL:    baseURL,
		quoteCache: cache.New(cacheTTL, 2*cacheTTL),
		cacheTTL:   cacheTTL,
	}
}

// GetBitcoinPrice returns the spot price of 1 BTC in the given fiat currency.
// A quote fetched within the cache TTL is served from memory and tagged
// Cached. Concurrent misses for the same currency may fetch twice; the last
// write wins, which is harmless for a spot quote.
func (s *priceServiceImpl) GetBitcoinPrice(ctx context.Context, currency string) (*models.BitcoinPriceResponse, error) {
	cur := utils.NormalizeCurrency(currency)
	if cur == "" {
		cur = "usd"
	}

	if cached, found := s.quoteCache.Get(cur); found {
		quote := cached.(models.BitcoinPriceResponse)
		quote.Cached = true
		logger.FromContext(ctx).Debug("Price cache hit", "currency", cur, "fetchedAt", quote.FetchedAt)
		return &quote, nil
	}

	price, err := s.fetchSpotPrice(ctx, cur)
	if err != nil {
		return nil, err
	}

	quote := models.BitcoinPriceResponse{
		Currency:  cur,
		Price:     price,
		Cached:    false,
		FetchedAt: time.Now(),
	}
	s.quoteCache.Set(cur, quote, cache.DefaultExpiration)
	logger.FromContext(ctx).Info("Price fetched from provider", "currency", cur, "price", price.String())
	return &quote, nil
}

func (s *priceServiceImpl) fetchSpotPrice(ctx context.Context, currency string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s", s.baseURL, priceProviderAssetKey, currency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: building request: %v", ErrPriceProvider, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrPriceProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: provider returned status %d", ErrPriceProvider, resp.StatusCode)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var data simplePriceResponse
	if err := decoder.Decode(&data); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decoding response: %v", ErrPriceProvider, err)
	}

	raw, ok := data[priceProviderAssetKey][currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no price for currency %q in response", ErrPriceProvider, currency)
	}
	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: malformed price %q: %v", ErrPriceProvider, raw.String(), err)
	}
	return price, nil
}
