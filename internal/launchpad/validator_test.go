package launchpad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/meme-launchpad/internal/fixedpoint"
)

func testBalances() Balances {
	return Balances{
		Wallet:    fixedpoint.New(1_000),
		Locked:    fixedpoint.New(100),
		Claimable: fixedpoint.New(50),
	}
}

func TestCeiling(t *testing.T) {
	b := testBalances()
	assert.Equal(t, b.Wallet, ActionBuy.Ceiling(b))
	assert.Equal(t, b.Wallet, ActionLock.Ceiling(b))
	assert.Equal(t, b.Locked, ActionSell.Ceiling(b))
	assert.Equal(t, b.Claimable, ActionClaim.Ceiling(b))
}

func TestValidate(t *testing.T) {
	b := testBalances()

	// selling more than is locked fails, wallet balance is irrelevant
	_, err := Validate(ActionSell, fixedpoint.New(150), b)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// the boundary is inclusive and the amount comes back unchanged
	got, err := Validate(ActionSell, fixedpoint.New(100), b)
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.New(100), got)

	got, err = Validate(ActionBuy, fixedpoint.New(999), b)
	require.NoError(t, err)
	assert.Equal(t, fixedpoint.New(999), got)

	_, err = Validate(ActionClaim, fixedpoint.New(51), b)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestValidateRejectsNonPositive(t *testing.T) {
	b := testBalances()

	_, err := Validate(ActionBuy, fixedpoint.Zero(), b)
	assert.ErrorIs(t, err, fixedpoint.ErrInvalidAmount)

	_, err = Validate(ActionBuy, fixedpoint.New(-5), b)
	assert.ErrorIs(t, err, fixedpoint.ErrInvalidAmount)
}

func TestClamp(t *testing.T) {
	b := testBalances()

	assert.Equal(t, fixedpoint.New(100), Clamp(ActionSell, fixedpoint.New(150), b))
	assert.Equal(t, fixedpoint.New(70), Clamp(ActionSell, fixedpoint.New(70), b))
	assert.Equal(t, fixedpoint.New(50), Clamp(ActionClaim, fixedpoint.New(9_999), b))
}
