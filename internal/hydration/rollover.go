package hydration

import (
	"fmt"
	"time"
)

const msPerDay = 86_400_000

// StreakPolicy decides what a rollover after at most one elapsed day does to
// the streak.
type StreakPolicy string

const (
	// StreakIncrement adds one to the streak when the previous update was
	// less than two full days ago.
	StreakIncrement StreakPolicy = "increment"

	// StreakPreserve carries the streak forward unchanged in that case.
	StreakPreserve StreakPolicy = "preserve"
)

// DefaultStreakPolicy is used when nothing is configured.
const DefaultStreakPolicy = StreakIncrement

// ParseStreakPolicy maps a config value to a policy. Empty selects the default.
func ParseStreakPolicy(s string) (StreakPolicy, error) {
	switch StreakPolicy(s) {
	case "":
		return DefaultStreakPolicy, nil
	case StreakIncrement, StreakPreserve:
		return StreakPolicy(s), nil
	}
	return "", fmt.Errorf("unknown streak policy %q (want %q or %q)", s, StreakIncrement, StreakPreserve)
}

// Rollover applies the daily reset rule and reports whether it fired.
//
// Calendar days are compared in now's location. A record without LastUpdate,
// a record from today, or one stamped on a later day than now (clock skew) is
// returned unchanged. Otherwise the amount and log are cleared, LastUpdate
// becomes now, and the streak continues when fewer than two whole days have
// elapsed and restarts at 1 otherwise.
func Rollover(st State, now time.Time, policy StreakPolicy) (State, bool) {
	if st.LastUpdate == 0 {
		return st, false
	}
	last := st.LastUpdateTime(now.Location())
	if sameDay(last, now) || last.After(now) {
		return st, false
	}

	diffDays := (now.UnixMilli() - st.LastUpdate) / msPerDay

	next := st
	switch {
	case diffDays > 1:
		next.Streak = 1
	case policy == StreakPreserve:
		// carried forward
	default:
		next.Streak = st.Streak + 1
	}
	if next.Streak < 1 {
		next.Streak = 1
	}
	next.CurrentAmount = 0
	next.History = []IntakeEvent{}
	next.LastUpdate = now.UnixMilli()
	return next, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
