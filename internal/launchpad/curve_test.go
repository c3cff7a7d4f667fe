package launchpad

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/meme-launchpad/internal/fixedpoint"
)

// fakeFeed serves a fixed pool price and records which pool was asked for.
type fakeFeed struct {
	price     PoolPrice
	err       error
	askedPool solana.PublicKey
}

func (f *fakeFeed) PoolTokensPerSol(_ context.Context, pool solana.PublicKey) (PoolPrice, error) {
	f.askedPool = pool
	if f.err != nil {
		return PoolPrice{}, f.err
	}
	return f.price, nil
}

func TestPreLiquidityConversions(t *testing.T) {
	c := NewCurve(nil)
	ctx := context.Background()

	// 1,000,000 tokens at 2,500,000 tokens/SOL = 0.4 SOL
	tokens := fixedpoint.New(1_000_000_000_000_000)
	sol, err := c.TokensToSol(ctx, tokens)
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.New(400_000_000), sol)

	back, err := c.SolToTokens(ctx, sol)
	require.NoError(t, err)
	assert.Equal(t, tokens, back, "round trip is exact when the division is")
}

func TestConversionsOfZero(t *testing.T) {
	c := NewCurve(nil)
	ctx := context.Background()

	sol, err := c.TokensToSol(ctx, fixedpoint.Zero())
	require.NoError(t, err)
	assert.True(t, sol.IsZero())

	tokens, err := c.SolToTokens(ctx, fixedpoint.Zero())
	require.NoError(t, err)
	assert.True(t, tokens.IsZero())
}

func TestPostLiquidityUsesPoolPrice(t *testing.T) {
	pool := testKey(0x77)
	feed := &fakeFeed{price: PoolPrice{
		Numerator:   fixedpoint.New(1_000_000_000),
		Denominator: fixedpoint.New(400), // 0.0000004 SOL per token
	}}

	c := NewCurve(feed)
	c.Bond(pool)
	require.Equal(t, PhasePostLiquidity, c.Phase())

	sol, err := c.TokensToSol(context.Background(), fixedpoint.New(1_000_000_000_000_000))
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.New(400_000_000), sol)
	assert.Equal(t, pool, feed.askedPool)
}

func TestBondIsOneWay(t *testing.T) {
	poolA := testKey(0x01)
	poolB := testKey(0x02)
	feed := &fakeFeed{price: PoolPrice{
		Numerator:   fixedpoint.New(1),
		Denominator: fixedpoint.New(1),
	}}

	c := NewCurve(feed)
	c.Bond(poolA)
	c.Bond(poolB) // no-op

	_, err := c.TokensToSol(context.Background(), fixedpoint.New(1))
	require.NoError(t, err)
	assert.Equal(t, poolA, feed.askedPool, "second Bond must not replace the pool")
}

func TestPostLiquidityWithoutSource(t *testing.T) {
	c := NewCurve(nil)
	c.Bond(testKey(1))

	_, err := c.TokensToSol(context.Background(), fixedpoint.New(1))
	assert.ErrorIs(t, err, ErrCurveUninitialized)
}

func TestPostLiquidityZeroPrice(t *testing.T) {
	feed := &fakeFeed{price: PoolPrice{
		Numerator:   fixedpoint.Zero(),
		Denominator: fixedpoint.New(1),
	}}
	c := NewCurve(feed)
	c.Bond(testKey(1))

	_, err := c.SolToTokens(context.Background(), fixedpoint.New(1))
	assert.ErrorIs(t, err, ErrCurveUninitialized)
}

func TestCurveForEntryPhase(t *testing.T) {
	pool := testKey(0x99)

	bonded := &EntryRecord{BondedTime: 1_700_000_000, PoolID: &pool}
	assert.Equal(t, PhasePostLiquidity, CurveForEntry(bonded, nil).Phase())

	unbonded := &EntryRecord{BondedTime: BondedTimeUnset}
	assert.Equal(t, PhasePreLiquidity, CurveForEntry(unbonded, nil).Phase())

	// bonded but no recorded pool yet stays on the launch price
	noPool := &EntryRecord{BondedTime: 1_700_000_000}
	assert.Equal(t, PhasePreLiquidity, CurveForEntry(noPool, nil).Phase())
}

func TestUSDValueCeilsToCents(t *testing.T) {
	oneSol := fixedpoint.New(1_000_000_000)

	// $123.456789 per SOL rounds up to $123.46
	usd, err := USDValue(oneSol, fixedpoint.New(123_456_789_000))
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.New(123_460_000_000), usd)

	// an exact cent amount is untouched
	usd, err = USDValue(oneSol, fixedpoint.New(2_500_000_000))
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.New(2_500_000_000), usd)

	usd, err = USDValue(fixedpoint.Zero(), fixedpoint.New(2_500_000_000))
	require.NoError(t, err)
	assert.True(t, usd.IsZero())

	_, err = USDValue(fixedpoint.New(-1), fixedpoint.New(1))
	assert.ErrorIs(t, err, fixedpoint.ErrInvalidAmount)
}
