// Package tips supplies the short encouragement line shown next to the
// hydration record.
package tips

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// DefaultDelay is how long Static pauses before answering.
const DefaultDelay = 300 * time.Millisecond

// Fixed messages for notable progress.
const (
	GoalReached = "Goal reached! You're a hydration legend."
	AlmostThere = "Almost there, you're glowing with health."
	FirstSip    = "Let's get the flow going. The first sip is the best one."
	Waiting     = "Hydroy is waking up..."
)

var general = []string{
	"You're doing great, keep sipping.",
	"Your skin will thank you for every glass today.",
	"Hydroy is proud of you for drinking water.",
	"One sip at a time adds up to a full day.",
	"Blink, breathe and take a sip.",
	"Every drop helps your cells do their job.",
	"Stay hydrated and stay you.",
	"Time for a refill, the bottle is calling.",
	"Shine from the inside out with some water.",
	"You're a plant with opinions. Water yourself.",
	"A sip a day keeps the thirst away.",
	"Drinking water counts as a small win. Take it.",
	"Hydroy is cheering for you.",
	"Water is the easiest upgrade to your day.",
	"Stay fresh, keep the glass close.",
	"Your brain runs better on water.",
	"Sip sip hooray, you're on track.",
	"A little splash goes a long way.",
	"Your water bottle misses you.",
	"Hydration goes with every outfit.",
}

var morning = []string{
	"Good morning! Start the day with a big glass.",
	"Morning sips set the tone for the day.",
	"Your body woke up thirsty. Give it a drink.",
}

var evening = []string{
	"Wind down with a calm glass of water.",
	"A hydrated evening makes for better sleep.",
	"Evening sips, then rest.",
}

// Source produces a tip for the current progress.
type Source interface {
	Tip(ctx context.Context, current, goal float64) string
}

// Static picks tips from fixed pools. The zero value is ready to use.
type Static struct {
	Delay time.Duration    // zero selects DefaultDelay; negative disables the pause
	Now   func() time.Time // defaults to time.Now

	mu  sync.Mutex
	rng *rand.Rand
}

// NewStatic returns a Static with a seeded generator, for reproducible picks.
func NewStatic(seed uint64) *Static {
	return &Static{rng: rand.New(rand.NewPCG(seed, seed))}
}

// Tip returns a tip after the configured delay. If ctx ends first the
// progress message is still returned, without the pause.
func (s *Static) Tip(ctx context.Context, current, goal float64) string {
	delay := s.Delay
	if delay == 0 {
		delay = DefaultDelay
	}
	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	return s.pick(current, goal)
}

func (s *Static) pick(current, goal float64) string {
	switch {
	case current >= goal:
		return GoalReached
	case current > goal*0.8:
		return AlmostThere
	case current == 0:
		return FirstSip
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	pool := Pool(now().Hour())
	return pool[s.intn(len(pool))]
}

func (s *Static) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng == nil {
		return rand.IntN(n)
	}
	return s.rng.IntN(n)
}

// Pool returns the candidates for the given hour of day: the general pool,
// plus the morning pool before 11:00 or the evening pool after 19:59.
func Pool(hour int) []string {
	switch {
	case hour < 11:
		return append(append([]string(nil), general...), morning...)
	case hour > 19:
		return append(append([]string(nil), general...), evening...)
	}
	return general
}
