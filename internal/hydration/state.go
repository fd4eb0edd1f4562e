// Package hydration holds the hydration record and the pure rules that act on
// it: daily rollover, liter rounding and the bounded intake log.
// Nothing in this package reads the wall clock; callers pass now in.
package hydration

import "time"

const (
	// DefaultGoal is the daily target in liters for a fresh record.
	DefaultGoal = 2.0

	// DefaultMood is the display label for a fresh record.
	DefaultMood = "Glowing!"

	// DefaultHistoryLimit bounds the intake log when no limit is configured.
	DefaultHistoryLimit = 50
)

// State is the single hydration record for the current day.
// A published State is never modified in place; changes build a new one.
type State struct {
	CurrentAmount float64       `json:"currentAmount"` // liters
	Goal          float64       `json:"goal"`          // liters
	Streak        int           `json:"streak"`
	Mood          string        `json:"mood"`
	History       []IntakeEvent `json:"history"` // newest first
	// LastUpdate is epoch milliseconds of the last durable commit. Zero means
	// the document never carried one.
	LastUpdate int64 `json:"lastUpdate,omitempty"`
}

// IntakeEvent records a single drink.
type IntakeEvent struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount"`    // milliliters
	Timestamp string  `json:"timestamp"` // local wall time, display only
	Label     string  `json:"label"`
	Icon      string  `json:"icon"`
	Category  string  `json:"category"`
}

// Default returns a fresh record stamped at now. A non-positive goal falls
// back to DefaultGoal.
func Default(now time.Time, goal float64) State {
	if !validLiters(goal) {
		goal = DefaultGoal
	}
	return State{
		Goal:       goal,
		Streak:     1,
		Mood:       DefaultMood,
		History:    []IntakeEvent{},
		LastUpdate: now.UnixMilli(),
	}
}

// Sanitize clamps a document read from storage into the record invariants.
func Sanitize(st State, limit int) State {
	if st.CurrentAmount < 0 || !finite(st.CurrentAmount) {
		st.CurrentAmount = 0
	}
	if !validLiters(st.Goal) {
		st.Goal = DefaultGoal
	}
	if st.Streak < 1 {
		st.Streak = 1
	}
	if st.Mood == "" {
		st.Mood = DefaultMood
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if st.History == nil {
		st.History = []IntakeEvent{}
	}
	if len(st.History) > limit {
		st.History = st.History[:limit]
	}
	return Clone(st)
}

// Clone returns a deep copy of st.
func Clone(st State) State {
	h := make([]IntakeEvent, len(st.History))
	copy(h, st.History)
	st.History = h
	return st
}

// LastUpdateTime converts LastUpdate to a time in loc. The zero time is
// returned when LastUpdate is absent.
func (s State) LastUpdateTime(loc *time.Location) time.Time {
	if s.LastUpdate == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.LastUpdate).In(loc)
}

// Progress returns the fraction of the goal reached, capped at 1.
func (s State) Progress() float64 {
	if s.Goal <= 0 {
		return 0
	}
	p := s.CurrentAmount / s.Goal
	if p > 1 {
		return 1
	}
	return p
}
