// internal/launchpad/distribution.go
package launchpad

import (
	"fmt"
	"time"

	"github.com/rovshanmuradov/meme-launchpad/internal/fixedpoint"
)

// Percent is a percentage with two implied decimals (basis points). The
// intermediate scale of 10,000 keeps the math in integers; the final
// two-decimal digit truncates, it does not round.
type Percent int64

func (p Percent) String() string {
	return fmt.Sprintf("%d.%02d%%", int64(p)/100, abs64(int64(p)%100))
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

var tenThousand = fixedpoint.New(10_000)

// Percentage returns numerator/denominator as a truncated two-decimal
// percentage. Either operand being zero yields zero rather than an error,
// so empty distributions render as 0.00% instead of failing.
func Percentage(numerator, denominator fixedpoint.Value) Percent {
	if numerator.IsZero() || denominator.IsZero() {
		return 0
	}
	bps, err := numerator.Mul(tenThousand).Div(denominator)
	if err != nil {
		// Unreachable: denominator checked above.
		return 0
	}
	return Percent(bps.BigInt().Int64())
}

// SplitThree returns the locked/unlocked/claimable shares of their sum.
// An all-zero sum returns all zeros.
func SplitThree(locked, unlocked, claimable fixedpoint.Value) (Percent, Percent, Percent) {
	total := locked.Add(unlocked).Add(claimable)
	return Percentage(locked, total),
		Percentage(unlocked, total),
		Percentage(claimable, total)
}

// Post-bonding unlock schedule: a fixed share of the locked balance becomes
// claimable every period.
const (
	UnlockPeriod  = 24 * time.Hour
	UnlockPercent = 10
)

// UnlockedPeriods counts completed unlock periods since bonding. Zero when
// the entry has not bonded.
func UnlockedPeriods(bondedTime int64, now time.Time) int64 {
	if bondedTime < 0 {
		return 0
	}
	elapsed := now.Unix() - bondedTime
	if elapsed <= 0 {
		return 0
	}
	return elapsed / int64(UnlockPeriod/time.Second)
}

// ClaimableAt projects the claimable share of a locked balance at the given
// time, capped at the full balance once ten periods have passed.
func ClaimableAt(locked fixedpoint.Value, bondedTime int64, now time.Time) fixedpoint.Value {
	periods := UnlockedPeriods(bondedTime, now)
	if periods <= 0 {
		return fixedpoint.Zero()
	}
	if periods*UnlockPercent >= 100 {
		return locked
	}
	share, err := locked.Mul(fixedpoint.New(periods * UnlockPercent)).Div(fixedpoint.New(100))
	if err != nil {
		return fixedpoint.Zero()
	}
	return share
}
