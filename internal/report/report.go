// Package report renders the hydration record for terminal and machine output.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fakeyudi/hydro/internal/hydration"
	"github.com/fakeyudi/hydro/internal/status"
)

// RecentEntries is how many log entries the text report lists.
const RecentEntries = 5

const barWidth = 20

// Report is everything a status view shows.
type Report struct {
	State hydration.State
	Sync  status.Snapshot
	Tip   string
	Now   time.Time // sets the date line and the display location
}

// Renderer serializes a Report to bytes.
type Renderer interface {
	Render(r *Report) ([]byte, error)
}

// For returns the renderer for format, "text" or "json".
func For(format string) (Renderer, error) {
	switch format {
	case "", "text":
		return &TextRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want text or json)", format)
}

// StatusJSON is the machine-readable report.
type StatusJSON struct {
	State       hydration.State `json:"state"`
	ProgressPct int             `json:"progress_pct"`
	Sync        SyncJSON        `json:"sync"`
	Tip         string          `json:"tip,omitempty"`
}

// SyncJSON reports the sync indicator.
type SyncJSON struct {
	Mode      string `json:"mode"`
	Status    string `json:"status"`
	LastError string `json:"last_error,omitempty"`
	LastSync  string `json:"last_sync,omitempty"`
	Pushes    int    `json:"pushes"`
	Failures  int    `json:"failures"`
}

// JSONRenderer renders a Report as indented JSON.
type JSONRenderer struct{}

func (JSONRenderer) Render(r *Report) ([]byte, error) {
	out := StatusJSON{
		State:       r.State,
		ProgressPct: Percent(r.State),
		Tip:         r.Tip,
		Sync: SyncJSON{
			Mode:      r.Sync.Mode.String(),
			Status:    string(r.Sync.Status),
			LastError: r.Sync.LastError,
			Pushes:    r.Sync.Pushes,
			Failures:  r.Sync.Failures,
		},
	}
	if !r.Sync.LastSync.IsZero() {
		out.Sync.LastSync = r.Sync.LastSync.UTC().Format(time.RFC3339)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// TextRenderer renders a Report as an aligned plain-text summary.
type TextRenderer struct{}

func (TextRenderer) Render(r *Report) ([]byte, error) {
	st := r.State
	loc := r.Now.Location()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hydration for %s\n\n", r.Now.Format("Mon 2 Jan 2006"))

	fmt.Fprintf(&sb, "  %-9s %.2f L of %.2f L (%d%%)\n", "Today", st.CurrentAmount, st.Goal, Percent(st))
	fmt.Fprintf(&sb, "  %-9s [%s]\n", "Progress", Bar(st.Progress(), barWidth))
	fmt.Fprintf(&sb, "  %-9s %s\n", "Streak", days(st.Streak))
	fmt.Fprintf(&sb, "  %-9s %s\n", "Mood", st.Mood)
	fmt.Fprintf(&sb, "  %-9s %s (%s)\n", "Sync", r.Sync.Status, r.Sync.Mode)
	if r.Sync.LastError != "" {
		fmt.Fprintf(&sb, "  %-9s %s\n", "Error", r.Sync.LastError)
	}
	updated := "never"
	if st.LastUpdate != 0 {
		updated = st.LastUpdateTime(loc).Format("15:04")
	}
	fmt.Fprintf(&sb, "  %-9s %s\n", "Updated", updated)

	sb.WriteString("\nRecent intake\n")
	if len(st.History) == 0 {
		sb.WriteString("  Nothing logged yet today.\n")
	}
	for i, ev := range st.History {
		if i == RecentEntries {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(st.History)-RecentEntries)
			break
		}
		fmt.Fprintf(&sb, "  %-5s  %-12s %5.0f ml\n", ev.Timestamp, ev.Label, ev.Amount)
	}

	if r.Tip != "" {
		fmt.Fprintf(&sb, "\n  %s\n", r.Tip)
	}
	return []byte(sb.String()), nil
}

// Percent is the goal progress as a whole percentage, capped at 100.
func Percent(st hydration.State) int {
	return int(math.Round(st.Progress() * 100))
}

// Bar draws a progress bar of width cells for a fraction in [0, 1].
func Bar(fraction float64, width int) string {
	filled := int(math.Round(fraction * float64(width)))
	filled = max(0, min(filled, width))
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
