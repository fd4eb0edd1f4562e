package hydration_test

import (
	"math"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/hydro/internal/hydration"
)

var morning = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func TestAddLitersSevenCups(t *testing.T) {
	total := 0.0
	for i := 0; i < 7; i++ {
		total = hydration.AddLiters(total, 150)
	}
	if total != 1.05 {
		t.Errorf("seven 150ml cups: got %v, want 1.05", total)
	}
}

// Adding whole multiples of 10ml always lands exactly on the two-decimal total.
func TestAddLitersNoDrift(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		steps := rapid.SliceOfN(rapid.IntRange(1, 200), 1, 200).Draw(t, "centiliters")
		total := 0.0
		sum := 0
		for _, cl := range steps {
			total = hydration.AddLiters(total, float64(cl*10))
			sum += cl
		}
		want := float64(sum) / 100
		if total != want {
			t.Fatalf("got %v, want %v", total, want)
		}
	})
}

func TestAddLitersAlwaysTwoDecimals(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		steps := rapid.SliceOfN(rapid.Float64Range(0.1, 1500), 1, 100).Draw(t, "ml")
		total := 0.0
		for _, ml := range steps {
			total = hydration.AddLiters(total, ml)
			scaled := total * 100
			if math.Abs(scaled-math.Round(scaled)) > 1e-6 {
				t.Fatalf("total %v has more than two decimals", total)
			}
		}
	})
}

func TestPrependEventBound(t *testing.T) {
	var history []hydration.IntakeEvent
	for i := 0; i < 25; i++ {
		ev := hydration.IntakeEvent{ID: string(rune('a' + i)), Amount: float64(i + 1)}
		history = hydration.PrependEvent(history, ev, 20)
	}
	if len(history) != 20 {
		t.Fatalf("len: got %d, want 20", len(history))
	}
	if history[0].Amount != 25 {
		t.Errorf("newest: got %v, want 25", history[0].Amount)
	}
	if history[19].Amount != 6 {
		t.Errorf("oldest kept: got %v, want 6", history[19].Amount)
	}
	for i := 1; i < len(history); i++ {
		if history[i-1].Amount <= history[i].Amount {
			t.Fatalf("order broken at %d: %v then %v", i, history[i-1].Amount, history[i].Amount)
		}
	}
}

func TestPrependEventDoesNotAlias(t *testing.T) {
	base := []hydration.IntakeEvent{{ID: "1"}, {ID: "2"}}
	got := hydration.PrependEvent(base, hydration.IntakeEvent{ID: "0"}, 2)
	got[1].ID = "changed"
	if base[0].ID != "1" {
		t.Errorf("input slice modified: %+v", base)
	}
}

func TestPrependEventBoundProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 60).Draw(t, "limit")
		inserts := rapid.IntRange(0, 150).Draw(t, "inserts")
		var history []hydration.IntakeEvent
		for i := 0; i < inserts; i++ {
			history = hydration.PrependEvent(history, hydration.IntakeEvent{Amount: float64(i)}, limit)
		}
		want := inserts
		if want > limit {
			want = limit
		}
		if len(history) != want {
			t.Fatalf("len: got %d, want %d", len(history), want)
		}
		for i, ev := range history {
			if ev.Amount != float64(inserts-1-i) {
				t.Fatalf("position %d: got %v, want %v", i, ev.Amount, inserts-1-i)
			}
		}
	})
}

func TestNewEventIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ev := hydration.NewEvent(morning, 150, "Cup", "local_cafe", "Fresh")
		if seen[ev.ID] {
			t.Fatalf("duplicate id %q after %d events", ev.ID, i)
		}
		seen[ev.ID] = true
		if !strings.HasPrefix(ev.ID, "1792315800000-") {
			t.Fatalf("id %q does not start with the creation time", ev.ID)
		}
	}
}

func TestNewEventDefaultsAndNormalization(t *testing.T) {
	ev := hydration.NewEvent(morning, 250, "  Cafe\u0301 ", "", "")
	if ev.Label != "Caf\u00e9" {
		t.Errorf("Label: got %q, want NFC %q", ev.Label, "Caf\u00e9")
	}
	if ev.Icon != hydration.DefaultIcon {
		t.Errorf("Icon: got %q, want %q", ev.Icon, hydration.DefaultIcon)
	}
	if ev.Category != hydration.DefaultCategory {
		t.Errorf("Category: got %q, want %q", ev.Category, hydration.DefaultCategory)
	}
	if ev.Timestamp != "09:30" {
		t.Errorf("Timestamp: got %q, want 09:30", ev.Timestamp)
	}
}

func TestValidAmount(t *testing.T) {
	tests := []struct {
		ml   float64
		want bool
	}{
		{150, true},
		{0.5, true},
		{0, false},
		{-250, false},
		{math.NaN(), false},
		{math.Inf(1), false},
	}
	for _, tt := range tests {
		if got := hydration.ValidAmount(tt.ml); got != tt.want {
			t.Errorf("ValidAmount(%v): got %v, want %v", tt.ml, got, tt.want)
		}
	}
}

func daysAgo(st hydration.State, now time.Time, d time.Duration) hydration.State {
	st.LastUpdate = now.Add(-d).UnixMilli()
	return st
}

func populated() hydration.State {
	return hydration.State{
		CurrentAmount: 1.2,
		Goal:          2.5,
		Streak:        5,
		Mood:          "Glowing!",
		History:       []hydration.IntakeEvent{{ID: "x", Amount: 500}, {ID: "y", Amount: 700}},
	}
}

func TestRolloverStreakReset(t *testing.T) {
	st := daysAgo(populated(), morning, 72*time.Hour)
	got, fired := hydration.Rollover(st, morning, hydration.StreakIncrement)
	if !fired {
		t.Fatal("expected rollover to fire")
	}
	if got.Streak != 1 {
		t.Errorf("Streak: got %d, want 1", got.Streak)
	}
	if got.CurrentAmount != 0 {
		t.Errorf("CurrentAmount: got %v, want 0", got.CurrentAmount)
	}
	if len(got.History) != 0 || got.History == nil {
		t.Errorf("History: got %v, want empty non-nil", got.History)
	}
	if got.LastUpdate != morning.UnixMilli() {
		t.Errorf("LastUpdate: got %d, want %d", got.LastUpdate, morning.UnixMilli())
	}
	if got.Goal != 2.5 {
		t.Errorf("Goal should survive rollover: got %v", got.Goal)
	}
}

func TestRolloverStreakContinuity(t *testing.T) {
	tests := []struct {
		policy hydration.StreakPolicy
		want   int
	}{
		{hydration.StreakIncrement, 6},
		{hydration.StreakPreserve, 5},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			st := daysAgo(populated(), morning, 24*time.Hour)
			got, fired := hydration.Rollover(st, morning, tt.policy)
			if !fired {
				t.Fatal("expected rollover to fire")
			}
			if got.Streak != tt.want {
				t.Errorf("Streak: got %d, want %d", got.Streak, tt.want)
			}
			if got.CurrentAmount != 0 || len(got.History) != 0 {
				t.Errorf("expected amount and history reset, got %v / %d", got.CurrentAmount, len(got.History))
			}
		})
	}
}

func TestRolloverSameDayIsNoop(t *testing.T) {
	st := populated()
	st.LastUpdate = time.Date(2026, 10, 18, 0, 5, 0, 0, time.UTC).UnixMilli()
	got, fired := hydration.Rollover(st, morning, hydration.StreakIncrement)
	if fired {
		t.Fatal("rollover fired on the same day")
	}
	if got.CurrentAmount != st.CurrentAmount || got.Streak != st.Streak {
		t.Errorf("state changed: %+v", got)
	}
}

func TestRolloverWithoutLastUpdate(t *testing.T) {
	st := populated()
	if _, fired := hydration.Rollover(st, morning, hydration.StreakIncrement); fired {
		t.Error("rollover fired without a LastUpdate")
	}
}

func TestRolloverFutureStampIsNoop(t *testing.T) {
	st := populated()
	st.LastUpdate = morning.Add(48 * time.Hour).UnixMilli()
	if _, fired := hydration.Rollover(st, morning, hydration.StreakIncrement); fired {
		t.Error("rollover fired for a record stamped in the future")
	}
}

func TestRolloverIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		st := populated()
		st.Streak = rapid.IntRange(1, 400).Draw(t, "streak")
		back := time.Duration(rapid.Int64Range(0, int64(30*24*time.Hour)).Draw(t, "back"))
		st = daysAgo(st, morning, back)
		policy := rapid.SampledFrom([]hydration.StreakPolicy{hydration.StreakIncrement, hydration.StreakPreserve}).Draw(t, "policy")

		once, _ := hydration.Rollover(st, morning, policy)
		twice, fired := hydration.Rollover(once, morning, policy)
		if fired {
			t.Fatalf("second rollover fired (back=%v)", back)
		}
		if once.Streak != twice.Streak || once.CurrentAmount != twice.CurrentAmount ||
			once.LastUpdate != twice.LastUpdate || len(once.History) != len(twice.History) {
			t.Fatalf("second application changed state: %+v vs %+v", once, twice)
		}
		if once.Streak < 1 {
			t.Fatalf("streak dropped below 1: %d", once.Streak)
		}
	})
}

func TestParseStreakPolicy(t *testing.T) {
	if p, err := hydration.ParseStreakPolicy(""); err != nil || p != hydration.StreakIncrement {
		t.Errorf("empty: got %q, %v", p, err)
	}
	if p, err := hydration.ParseStreakPolicy("preserve"); err != nil || p != hydration.StreakPreserve {
		t.Errorf("preserve: got %q, %v", p, err)
	}
	if _, err := hydration.ParseStreakPolicy("double"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestDefault(t *testing.T) {
	st := hydration.Default(morning, 0)
	if st.Goal != hydration.DefaultGoal || st.Streak != 1 || st.CurrentAmount != 0 {
		t.Errorf("unexpected default: %+v", st)
	}
	if st.Mood != hydration.DefaultMood {
		t.Errorf("Mood: got %q", st.Mood)
	}
	if st.History == nil || len(st.History) != 0 {
		t.Errorf("History: got %v, want empty", st.History)
	}
	if st.LastUpdate != morning.UnixMilli() {
		t.Errorf("LastUpdate: got %d", st.LastUpdate)
	}
}

func TestSanitize(t *testing.T) {
	in := hydration.State{
		CurrentAmount: -3,
		Goal:          0,
		Streak:        0,
		History:       make([]hydration.IntakeEvent, 30),
	}
	got := hydration.Sanitize(in, 20)
	if got.CurrentAmount != 0 || got.Goal != hydration.DefaultGoal || got.Streak != 1 {
		t.Errorf("not clamped: %+v", got)
	}
	if got.Mood != hydration.DefaultMood {
		t.Errorf("Mood: got %q", got.Mood)
	}
	if len(got.History) != 20 {
		t.Errorf("History len: got %d, want 20", len(got.History))
	}
}

func TestProgress(t *testing.T) {
	st := hydration.State{CurrentAmount: 1.5, Goal: 2}
	if got := st.Progress(); got != 0.75 {
		t.Errorf("Progress: got %v, want 0.75", got)
	}
	st.CurrentAmount = 3
	if got := st.Progress(); got != 1 {
		t.Errorf("Progress over goal: got %v, want 1", got)
	}
}

func TestLookupPreset(t *testing.T) {
	p, err := hydration.LookupPreset("JUG")
	if err != nil {
		t.Fatalf("LookupPreset: %v", err)
	}
	if p.AmountMl != 500 || p.Label != "Jug" {
		t.Errorf("got %+v", p)
	}
	if _, err := hydration.LookupPreset("bucket"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestNextGoal(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{1.5, 2.0},
		{2.0, 2.5},
		{3.0, 1.5},
		{2.2, 1.5},
	}
	for _, tt := range tests {
		if got := hydration.NextGoal(tt.in); got != tt.want {
			t.Errorf("NextGoal(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
