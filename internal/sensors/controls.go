package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/relabs-tech/gesture_lock/internal/diag"
)

// Controls polls the two buttons and the override switch. All inputs are
// active high with the internal pull-down enabled. Controls implements
// lock.Controls.
type Controls struct {
	left, right, override gpio.PinIn
}

// NewControls looks up and configures the three input pins by name.
func NewControls(leftPin, rightPin, overridePin string) (*Controls, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("controls: %w", err)
	}
	var pins [3]gpio.PinIn
	for i, name := range []string{leftPin, rightPin, overridePin} {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("controls: pin %q not found", name)
		}
		pins[i] = p
	}
	return newControls(pins[0], pins[1], pins[2])
}

func newControls(left, right, override gpio.PinIn) (*Controls, error) {
	for _, p := range []gpio.PinIn{left, right, override} {
		if err := p.In(gpio.PullDown, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("controls: configure %s: %w", p.Name(), err)
		}
	}
	return &Controls{left: left, right: right, override: override}, nil
}

// Left reports whether the record button is held.
func (c *Controls) Left() bool { return c.left.Read() == gpio.High }

// Right reports whether the check button is held.
func (c *Controls) Right() bool { return c.right.Read() == gpio.High }

// On reports whether the override switch is engaged.
func (c *Controls) On() bool { return c.override.Read() == gpio.High }

// StatusLED is the single lock LED. It implements indicator.StatusLight.
type StatusLED struct {
	pin gpio.PinOut
}

// NewStatusLED looks up the LED pin by name and switches it off.
func NewStatusLED(pinName string) (*StatusLED, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("status LED: %w", err)
	}
	p := gpioreg.ByName(pinName)
	if p == nil {
		return nil, fmt.Errorf("status LED: pin %q not found", pinName)
	}
	return newStatusLED(p)
}

func newStatusLED(p gpio.PinOut) (*StatusLED, error) {
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("status LED: %w", err)
	}
	return &StatusLED{pin: p}, nil
}

// Set drives the LED. Write errors are logged, never returned.
func (l *StatusLED) Set(on bool) {
	if err := l.pin.Out(gpio.Level(on)); err != nil {
		diag.Logf("status LED: %v", err)
	}
}
