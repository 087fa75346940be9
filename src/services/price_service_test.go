package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPriceStub(t *testing.T, price string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		currency := r.URL.Query().Get("vs_currencies")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"bitcoin":{"%s":%s}}`, currency, price)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGetBitcoinPriceCaching(t *testing.T) {
	var hits atomic.Int32
	server := newPriceStub(t, "64123.45", &hits)
	svc := NewPriceService(server.URL, time.Minute, 5*time.Second)

	first, err := svc.GetBitcoinPrice(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, "usd", first.Currency)
	assert.False(t, first.Cached)
	assert.Equal(t, "64123.45", first.Price.String())

	second, err := svc.GetBitcoinPrice(context.Background(), "usd")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.True(t, second.Price.Equal(first.Price))
	assert.Equal(t, int32(1), hits.Load(), "second call within TTL must not hit the provider")
}

func TestGetBitcoinPriceTTLExpiry(t *testing.T) {
	var hits atomic.Int32
	server := newPriceStub(t, "64123.45", &hits)
	svc := NewPriceService(server.URL, 50*time.Millisecond, 5*time.Second)

	_, err := svc.GetBitcoinPrice(context.Background(), "usd")
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	refetched, err := svc.GetBitcoinPrice(context.Background(), "usd")
	require.NoError(t, err)
	assert.False(t, refetched.Cached)
	assert.Equal(t, int32(2), hits.Load(), "expired quote must trigger a new fetch")
}

func TestGetBitcoinPricePerCurrencyEntries(t *testing.T) {
	var hits atomic.Int32
	server := newPriceStub(t, "60000", &hits)
	svc := NewPriceService(server.URL, time.Minute, 5*time.Second)

	_, err := svc.GetBitcoinPrice(context.Background(), "usd")
	require.NoError(t, err)
	eur, err := svc.GetBitcoinPrice(context.Background(), "eur")
	require.NoError(t, err)
	assert.False(t, eur.Cached)
	assert.Equal(t, int32(2), hits.Load(), "different currencies are cached independently")
}

func TestGetBitcoinPriceProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)
	svc := NewPriceService(server.URL, time.Minute, 5*time.Second)

	_, err := svc.GetBitcoinPrice(context.Background(), "usd")
	assert.True(t, errors.Is(err, ErrPriceProvider))
}

func TestGetBitcoinPriceMissingField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"bitcoin":{}}`)
	}))
	t.Cleanup(server.Close)
	svc := NewPriceService(server.URL, time.Minute, 5*time.Second)

	_, err := svc.GetBitcoinPrice(context.Background(), "usd")
	assert.True(t, errors.Is(err, ErrPriceProvider))
}

func TestGetBitcoinPriceDefaultsToUSD(t *testing.T) {
	var hits atomic.Int32
	server := newPriceStub(t, "60000", &hits)
	svc := NewPriceService(server.URL, time.Minute, 5*time.Second)

	quote, err := svc.GetBitcoinPrice(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "usd", quote.Currency)
}
