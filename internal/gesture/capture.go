package gesture

import (
	"time"

	"github.com/relabs-tech/gesture_lock/internal/timeutil"
)

// MotionSensor yields instantaneous accelerations. Reads have no error
// mode; adapters deal with bus errors themselves.
type MotionSensor interface {
	X() float64
	Y() float64
	Z() float64
}

// Read takes one sample from the sensor.
func Read(s MotionSensor) Sample {
	return Sample{X: s.X(), Y: s.Y(), Z: s.Z()}
}

// TickFunc is called once per captured sample with its index.
type TickFunc func(i int, s Sample)

// Window bounds a capture: it stops when MaxDuration has elapsed or
// MaxSamples have been taken, whichever happens first.
type Window struct {
	MaxDuration time.Duration
	MaxSamples  int
	Cadence     time.Duration
}

// Capturer samples a MotionSensor on a fixed cadence.
type Capturer struct {
	sensor MotionSensor
	clock  timeutil.Clock
}

// NewCapturer returns a Capturer reading from sensor and pacing with clock.
func NewCapturer(sensor MotionSensor, clock timeutil.Clock) *Capturer {
	return &Capturer{sensor: sensor, clock: clock}
}

// Capture blocks until the window closes and returns what was recorded.
// The returned sequence has capacity w.MaxSamples.
func (c *Capturer) Capture(w Window, tick TickFunc) *Sequence {
	seq := NewSequence(w.MaxSamples)
	start := c.clock.Now()

	for c.clock.Since(start) < w.MaxDuration && seq.Len() < w.MaxSamples {
		s := Read(c.sensor)
		i := seq.Len()
		seq.Append(s)
		if tick != nil {
			tick(i, s)
		}
		c.clock.Sleep(w.Cadence)
	}
	return seq
}
