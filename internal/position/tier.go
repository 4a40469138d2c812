package position

import "time"

// Tier is the lock-duration bracket of a position. It gates downstream access
// and must match the contract's own tiering.
type Tier int

const (
	TierNone Tier = iota
	TierSupporter
	TierBeliever
	TierChampion
	TierLegend
)

const secondsPerDay = 86400

var tierNames = [...]string{"none", "supporter", "believer", "champion", "legend"}

func (t Tier) String() string {
	if t < TierNone || t > TierLegend {
		return "unknown"
	}
	return tierNames[t]
}

// TierForLock returns the tier for a lock ending at lockEnd, measured from at.
// Whole days are counted; a lock already expired is TierNone.
func TierForLock(lockEnd, at int64) Tier {
	return TierForDays(LockDays(lockEnd, at))
}

// LockDays returns the number of whole days between at and lockEnd, never negative.
func LockDays(lockEnd, at int64) int64 {
	if lockEnd <= at {
		return 0
	}
	return (lockEnd - at) / secondsPerDay
}

// TierForDays maps a lock length in whole days to a tier.
func TierForDays(days int64) Tier {
	switch {
	case days >= 90:
		return TierLegend
	case days >= 30:
		return TierChampion
	case days >= 7:
		return TierBeliever
	case days >= 1:
		return TierSupporter
	default:
		return TierNone
	}
}

// TierForDuration is TierForDays for a time.Duration.
func TierForDuration(d time.Duration) Tier {
	if d <= 0 {
		return TierNone
	}
	return TierForDays(int64(d / (24 * time.Hour)))
}
