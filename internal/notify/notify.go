// Package notify broadcasts the hydration record over MQTT so that other
// displays (home dashboards, e-ink panels) can follow along.
package notify

import (
	"encoding/json"
	"math"
	"time"

	"github.com/fakeyudi/hydro/internal/hydration"
)

// DefaultTopic is the MQTT topic for state broadcasts.
const DefaultTopic = "hydro/state"

// Publisher publishes the hydration record.
type Publisher interface {
	// Publish sends the record. Errors are reported, never fatal.
	Publish(st hydration.State) error

	// Close disconnects from the broker.
	Close() error
}

// Payload is the MQTT message body.
type Payload struct {
	Hydration StatePayload `json:"hydration"`
}

// StatePayload carries the display-relevant fields of the record.
type StatePayload struct {
	Timestamp  string  `json:"timestamp"`
	CurrentL   float64 `json:"current_l"`
	GoalL      float64 `json:"goal_l"`
	ProgressPc int     `json:"progress_pct"`
	Streak     int     `json:"streak"`
	Mood       string  `json:"mood"`
	Entries    int     `json:"entries"`
}

// FormatPayload creates the JSON payload for st.
func FormatPayload(st hydration.State) ([]byte, error) {
	ts := ""
	if st.LastUpdate != 0 {
		ts = time.UnixMilli(st.LastUpdate).UTC().Format(time.RFC3339)
	}
	return json.Marshal(Payload{
		Hydration: StatePayload{
			Timestamp:  ts,
			CurrentL:   st.CurrentAmount,
			GoalL:      st.Goal,
			ProgressPc: int(math.Round(st.Progress() * 100)),
			Streak:     st.Streak,
			Mood:       st.Mood,
			Entries:    len(st.History),
		},
	})
}
