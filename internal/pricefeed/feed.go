// internal/pricefeed/feed.go
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/meme-launchpad/internal/fixedpoint"
	"github.com/rovshanmuradov/meme-launchpad/internal/launchpad"
)

const (
	defaultTimeout = 10 * time.Second
	// requests per minute allowed by the feed
	rateLimit = 300
)

// PairResponse is the feed's answer for one pool pair.
type PairResponse struct {
	PairAddress string `json:"pairAddress"`
	// PriceNative is the pool price as SOL per token, decimal string.
	PriceNative string        `json:"priceNative"`
	Liquidity   LiquidityInfo `json:"liquidity"`
}

// LiquidityInfo carries the pool's liquidity figures.
type LiquidityInfo struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// QuoteResponse is the feed's answer for a native-token USD quote.
type QuoteResponse struct {
	PriceUSD string `json:"priceUsd"`
}

// Client talks to the HTTP price feed. It implements the launchpad's
// PriceSource: a SOL/USD spot quote and, post-bonding, the pool's
// tokens-per-SOL ratio.
type Client struct {
	http        *http.Client
	baseURL     string
	logger      *zap.Logger
	rateLimiter *time.Ticker
}

// New creates a feed client for the given base URL.
func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:     baseURL,
		logger:      logger.Named("pricefeed"),
		rateLimiter: time.NewTicker(time.Minute / rateLimit),
	}
}

// Close releases the rate limiter ticker.
func (c *Client) Close() {
	c.rateLimiter.Stop()
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	select {
	case <-c.rateLimiter.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", launchpad.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: feed returned status %d", launchpad.ErrRemoteUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %s", launchpad.ErrRemoteUnavailable, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode feed response: %w", err)
	}
	return nil
}

// SolUSDPrice returns the current USD price of SOL at the internal scale.
func (c *Client) SolUSDPrice(ctx context.Context) (fixedpoint.Value, error) {
	var quote QuoteResponse
	url := fmt.Sprintf("%s/quote/solana", c.baseURL)
	if err := c.get(ctx, url, &quote); err != nil {
		return fixedpoint.Value{}, err
	}

	price, err := fixedpoint.ParseDecimal(quote.PriceUSD)
	if err != nil {
		return fixedpoint.Value{}, fmt.Errorf("parse sol/usd quote %q: %w", quote.PriceUSD, err)
	}
	c.logger.Debug("sol/usd quote", zap.String("price_usd", quote.PriceUSD))
	return price, nil
}

// PoolTokensPerSol returns the pool's price as an exact tokens-per-SOL
// rational. The feed quotes SOL per token; inverting it as a rational
// keeps downstream conversions in integer arithmetic.
func (c *Client) PoolTokensPerSol(ctx context.Context, pool solana.PublicKey) (launchpad.PoolPrice, error) {
	var pair PairResponse
	url := fmt.Sprintf("%s/pairs/solana/%s", c.baseURL, pool.String())
	if err := c.get(ctx, url, &pair); err != nil {
		return launchpad.PoolPrice{}, err
	}

	solPerToken, err := fixedpoint.ParseDecimal(pair.PriceNative)
	if err != nil {
		return launchpad.PoolPrice{}, fmt.Errorf("parse pool price %q: %w", pair.PriceNative, err)
	}
	if solPerToken.IsZero() {
		return launchpad.PoolPrice{}, fmt.Errorf("%w: pool %s quotes zero", launchpad.ErrCurveUninitialized, pool)
	}

	c.logger.Debug("pool price",
		zap.String("pool", pool.String()),
		zap.String("sol_per_token", pair.PriceNative),
		zap.Float64("liquidity_usd", pair.Liquidity.USD))

	// tokensPerSol = 1 / (solPerToken / 10^9) = 10^9 / solPerToken.
	return launchpad.PoolPrice{
		Numerator:   fixedpoint.New(1_000_000_000),
		Denominator: solPerToken,
	}, nil
}

var _ launchpad.PriceSource = (*Client)(nil)
