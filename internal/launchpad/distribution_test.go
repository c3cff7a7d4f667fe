package launchpad

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rovshanmuradov/meme-launchpad/internal/fixedpoint"
)

func TestPercentage(t *testing.T) {
	// 1/3 truncates to 33.33%, never rounds to 33.34%
	p := Percentage(fixedpoint.New(1), fixedpoint.New(3))
	assert.Equal(t, Percent(3333), p)
	assert.Equal(t, "33.33%", p.String())

	assert.Equal(t, Percent(10000), Percentage(fixedpoint.New(5), fixedpoint.New(5)))
	assert.Equal(t, "100.00%", Percent(10000).String())

	// empty distributions render as zero, not as an error
	assert.Equal(t, Percent(0), Percentage(fixedpoint.Zero(), fixedpoint.New(3)))
	assert.Equal(t, Percent(0), Percentage(fixedpoint.New(3), fixedpoint.Zero()))
}

func TestSplitThree(t *testing.T) {
	locked, unlocked, claimable := SplitThree(
		fixedpoint.New(500),
		fixedpoint.New(300),
		fixedpoint.New(200),
	)
	assert.Equal(t, Percent(5000), locked)
	assert.Equal(t, Percent(3000), unlocked)
	assert.Equal(t, Percent(2000), claimable)

	locked, unlocked, claimable = SplitThree(fixedpoint.Zero(), fixedpoint.Zero(), fixedpoint.Zero())
	assert.Equal(t, Percent(0), locked)
	assert.Equal(t, Percent(0), unlocked)
	assert.Equal(t, Percent(0), claimable)
}

func TestUnlockedPeriods(t *testing.T) {
	bonded := int64(1_700_000_000)
	at := func(offset time.Duration) time.Time {
		return time.Unix(bonded, 0).Add(offset)
	}

	assert.Equal(t, int64(0), UnlockedPeriods(BondedTimeUnset, at(48*time.Hour)))
	assert.Equal(t, int64(0), UnlockedPeriods(bonded, at(23*time.Hour)))
	assert.Equal(t, int64(1), UnlockedPeriods(bonded, at(25*time.Hour)))
	assert.Equal(t, int64(10), UnlockedPeriods(bonded, at(10*24*time.Hour)))
}

func TestClaimableAt(t *testing.T) {
	bonded := int64(1_700_000_000)
	locked := fixedpoint.New(1_000)
	at := func(offset time.Duration) time.Time {
		return time.Unix(bonded, 0).Add(offset)
	}

	assert.True(t, ClaimableAt(locked, BondedTimeUnset, at(0)).IsZero())
	assert.True(t, ClaimableAt(locked, bonded, at(time.Hour)).IsZero())

	// 10% per completed day
	assert.Equal(t, fixedpoint.New(100), ClaimableAt(locked, bonded, at(25*time.Hour)))
	assert.Equal(t, fixedpoint.New(300), ClaimableAt(locked, bonded, at(3*24*time.Hour+time.Minute)))

	// caps at the full balance after ten periods, however long ago
	assert.Equal(t, locked, ClaimableAt(locked, bonded, at(10*24*time.Hour)))
	assert.Equal(t, locked, ClaimableAt(locked, bonded, at(400*24*time.Hour)))
}
