package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/meme-launchpad/internal/fixedpoint"
	"github.com/rovshanmuradov/meme-launchpad/internal/launchpad"
)

func newTestFeed(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(server.URL, zap.NewNop())
	t.Cleanup(client.Close)
	return client
}

func TestSolUSDPrice(t *testing.T) {
	client := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote/solana", r.URL.Path)
		w.Write([]byte(`{"priceUsd":"123.45"}`))
	})

	price, err := client.SolUSDPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.New(123_450_000_000), price)
}

func TestPoolTokensPerSol(t *testing.T) {
	pool := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	client := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pairs/solana/"+pool.String(), r.URL.Path)
		w.Write([]byte(`{"pairAddress":"` + pool.String() + `","priceNative":"0.0000004","liquidity":{"usd":12000}}`))
	})

	price, err := client.PoolTokensPerSol(context.Background(), pool)
	require.NoError(t, err)

	// 0.0000004 SOL per token inverts to 2,500,000 tokens per SOL
	assert.Equal(t, fixedpoint.New(1_000_000_000), price.Numerator)
	assert.Equal(t, fixedpoint.New(400), price.Denominator)

	tokensPerSol, err := price.Numerator.Div(price.Denominator)
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.New(2_500_000), tokensPerSol)
}

func TestPoolQuotesZero(t *testing.T) {
	client := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"priceNative":"0"}`))
	})

	_, err := client.PoolTokensPerSol(context.Background(), solana.PublicKey{})
	assert.ErrorIs(t, err, launchpad.ErrCurveUninitialized)
}

func TestFeedUnavailable(t *testing.T) {
	client := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.SolUSDPrice(context.Background())
	assert.ErrorIs(t, err, launchpad.ErrRemoteUnavailable)
}

func TestFeedMalformedQuote(t *testing.T) {
	client := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"priceUsd":"-1"}`))
	})

	_, err := client.SolUSDPrice(context.Background())
	assert.ErrorIs(t, err, fixedpoint.ErrInvalidAmount)
}
