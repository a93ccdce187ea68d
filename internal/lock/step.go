package lock

// ButtonInput is the pair of level-sampled push buttons.
type ButtonInput interface {
	Left() bool
	Right() bool
}

// OverrideSwitch is the manual override slide switch.
type OverrideSwitch interface {
	On() bool
}

// Controls bundles everything the host loop polls.
type Controls interface {
	ButtonInput
	OverrideSwitch
}

// Step runs one host-loop iteration: lockout housekeeping, then the left
// button (record), the right button (check) and the override switch, in
// that order. Inputs are levels, so a held button fires on every step.
// It returns the non-trivial outcomes in the order they happened.
func (c *Controller) Step(in Controls) []Outcome {
	var out []Outcome
	add := func(o Outcome) {
		if o != OutcomeNone && o != OutcomeCheckIgnored {
			out = append(out, o)
		}
	}

	add(c.Tick())
	if in.Left() {
		add(c.RecordGesture())
	}
	if in.Right() {
		add(c.CheckGesture())
	}
	if in.On() {
		add(c.Override())
	}
	return out
}
