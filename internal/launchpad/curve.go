// internal/launchpad/curve.go
package launchpad

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/meme-launchpad/internal/fixedpoint"
)

// Pricing has two phases. Before the liquidity event every conversion uses
// the fixed launch price; after it, the recorded pool drives the price
// through an external feed. The transition is one-directional and happens
// exactly once per token, observed on the entry account's bondedTime.

// InitialTokensPerSol is the fixed pre-liquidity launch price.
const InitialTokensPerSol = 2_500_000

// Phase is the bonding curve phase.
type Phase int

const (
	PhasePreLiquidity Phase = iota
	PhasePostLiquidity
)

func (p Phase) String() string {
	if p == PhasePostLiquidity {
		return "post-liquidity"
	}
	return "pre-liquidity"
}

// PoolPrice is a tokens-per-SOL ratio kept as an exact rational so the
// conversions stay in integer arithmetic.
type PoolPrice struct {
	Numerator   fixedpoint.Value // tokens
	Denominator fixedpoint.Value // per this much SOL
}

// PoolPriceSource supplies the post-liquidity market price for a pool.
type PoolPriceSource interface {
	PoolTokensPerSol(ctx context.Context, pool solana.PublicKey) (PoolPrice, error)
}

// Curve converts between token and SOL quantities for one token.
type Curve struct {
	phase  Phase
	pool   solana.PublicKey
	source PoolPriceSource
}

// NewCurve returns a curve in the pre-liquidity phase.
func NewCurve(source PoolPriceSource) *Curve {
	return &Curve{phase: PhasePreLiquidity, source: source}
}

// CurveForEntry derives the curve phase from a decoded entry record.
func CurveForEntry(entry *EntryRecord, source PoolPriceSource) *Curve {
	c := NewCurve(source)
	if entry.Bonded() && entry.PoolID != nil {
		c.Bond(*entry.PoolID)
	}
	return c
}

// Phase returns the current phase.
func (c *Curve) Phase() Phase {
	return c.phase
}

// Bond records the one-time transition to market pricing. Calling it again
// is a no-op; the transition never reverts.
func (c *Curve) Bond(pool solana.PublicKey) {
	if c.phase == PhasePostLiquidity {
		return
	}
	c.phase = PhasePostLiquidity
	c.pool = pool
}

// price returns the effective tokens-per-SOL ratio for the current phase.
func (c *Curve) price(ctx context.Context) (PoolPrice, error) {
	if c.phase == PhasePreLiquidity {
		return PoolPrice{
			Numerator:   fixedpoint.New(InitialTokensPerSol),
			Denominator: fixedpoint.New(1),
		}, nil
	}
	if c.source == nil {
		return PoolPrice{}, fmt.Errorf("%w: no pool price source", ErrCurveUninitialized)
	}
	price, err := c.source.PoolTokensPerSol(ctx, c.pool)
	if err != nil {
		return PoolPrice{}, fmt.Errorf("pool price for %s: %w", c.pool, err)
	}
	if price.Numerator.IsZero() || price.Denominator.IsZero() {
		return PoolPrice{}, fmt.Errorf("%w: pool %s has no price yet", ErrCurveUninitialized, c.pool)
	}
	return price, nil
}

// TokensToSol converts a token quantity to SOL at the phase price. The
// result truncates toward zero; the round trip through SolToTokens recovers
// the input to within one raw unit at the 10^9 scale, which is expected and
// acceptable.
func (c *Curve) TokensToSol(ctx context.Context, tokens fixedpoint.Value) (fixedpoint.Value, error) {
	if tokens.IsZero() {
		return fixedpoint.Zero(), nil
	}
	price, err := c.price(ctx)
	if err != nil {
		return fixedpoint.Value{}, err
	}
	return tokens.Mul(price.Denominator).Div(price.Numerator)
}

// SolToTokens converts a SOL quantity to tokens at the phase price.
func (c *Curve) SolToTokens(ctx context.Context, sol fixedpoint.Value) (fixedpoint.Value, error) {
	if sol.IsZero() {
		return fixedpoint.Zero(), nil
	}
	price, err := c.price(ctx)
	if err != nil {
		return fixedpoint.Value{}, err
	}
	return sol.Mul(price.Numerator).Div(price.Denominator)
}

// usdCentStep is one display cent at the internal scale.
var usdCentStep = fixedpoint.New(10_000_000)

// USDValue prices a SOL quantity in USD, rounded up to two decimal places.
// solUsd is the USD-per-SOL quote at the internal scale. The ceiling
// direction is deliberate: displayed minimums must never understate cost.
func USDValue(sol, solUsd fixedpoint.Value) (fixedpoint.Value, error) {
	if sol.Sign() < 0 || solUsd.Sign() < 0 {
		return fixedpoint.Value{}, fmt.Errorf("%w: negative usd input", fixedpoint.ErrInvalidAmount)
	}
	// Both operands carry the 10^9 scale; divide one of them back out.
	usd, err := sol.Mul(solUsd).Div(fixedpoint.New(1_000_000_000))
	if err != nil {
		return fixedpoint.Value{}, err
	}
	steps, err := usd.Div(usdCentStep)
	if err != nil {
		return fixedpoint.Value{}, err
	}
	floored := steps.Mul(usdCentStep)
	if floored.Cmp(usd) < 0 {
		floored = floored.Add(usdCentStep)
	}
	return floored, nil
}
