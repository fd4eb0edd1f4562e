package hydration

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Fallback display metadata for events recorded without any.
const (
	DefaultLabel    = "Sip"
	DefaultIcon     = "water_drop"
	DefaultCategory = "Custom"
)

// AddLiters adds ml milliliters to a liter total and rounds to two decimals so
// repeated additions do not drift.
func AddLiters(current, ml float64) float64 {
	return math.Round((current+ml/1000)*100) / 100
}

// PrependEvent returns a new log with ev in front, truncated to limit.
// The input slice is not modified.
func PrependEvent(history []IntakeEvent, ev IntakeEvent, limit int) []IntakeEvent {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	n := len(history) + 1
	if n > limit {
		n = limit
	}
	out := make([]IntakeEvent, 0, n)
	out = append(out, ev)
	for _, h := range history {
		if len(out) == n {
			break
		}
		out = append(out, h)
	}
	return out
}

// NewEvent builds an intake event stamped at now. The ID is the creation
// time in milliseconds plus a random suffix so events created within the same
// millisecond stay distinct.
func NewEvent(now time.Time, ml float64, label, icon, category string) IntakeEvent {
	return IntakeEvent{
		ID:        newEventID(now),
		Amount:    ml,
		Timestamp: now.Format("15:04"),
		Label:     clean(label, DefaultLabel),
		Icon:      clean(icon, DefaultIcon),
		Category:  clean(category, DefaultCategory),
	}
}

// ValidAmount reports whether ml can be recorded.
func ValidAmount(ml float64) bool {
	return ml > 0 && finite(ml)
}

func newEventID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix
}

func clean(s, fallback string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return fallback
	}
	return s
}

func validLiters(v float64) bool {
	return v > 0 && finite(v)
}

// ValidGoal reports whether liters is usable as a daily goal.
func ValidGoal(liters float64) bool {
	return validLiters(liters)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
