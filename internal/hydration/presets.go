package hydration

import (
	"fmt"
	"slices"
	"strings"
)

// Preset is a named drink size.
type Preset struct {
	Name     string
	AmountMl float64
	Label    string
	Icon     string
	Category string
}

// Presets are the one-key drink sizes.
var Presets = []Preset{
	{Name: "cup", AmountMl: 150, Label: "Cup", Icon: "local_cafe", Category: "Fresh"},
	{Name: "jug", AmountMl: 500, Label: "Jug", Icon: "layers", Category: "Fresh"},
	{Name: "sip", AmountMl: 250, Label: "Pure Sip", Icon: "water_full", Category: "Quick Add"},
}

// GoalPresets are the goals offered by the goal picker, in liters.
var GoalPresets = []float64{1.5, 2.0, 2.5, 3.0}

// LookupPreset finds a preset by name, ignoring case.
func LookupPreset(name string) (Preset, error) {
	for _, p := range Presets {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("unknown preset %q", name)
}

// NextGoal returns the goal preset after current, wrapping around. A goal that
// is not a preset moves to the first one.
func NextGoal(current float64) float64 {
	i := slices.Index(GoalPresets, current)
	return GoalPresets[(i+1)%len(GoalPresets)]
}
