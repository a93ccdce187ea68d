// Package indicator drives the pixel ring and status LED with the lock's
// visual feedback patterns.
package indicator

import (
	"math"
	"time"

	"github.com/relabs-tech/gesture_lock/internal/gesture"
	"github.com/relabs-tech/gesture_lock/internal/timeutil"
)

// PixelDisplay sets one addressable pixel.
type PixelDisplay interface {
	SetPixel(index int, r, g, b uint8)
}

// StatusLight is a single on/off LED.
type StatusLight interface {
	Set(on bool)
}

// NumPixels is the size of the ring the patterns are drawn for.
const NumPixels = 10

// Color is an RGB triple.
type Color struct{ R, G, B uint8 }

var (
	Off    = Color{}
	Red    = Color{255, 0, 0}
	Green  = Color{0, 255, 0}
	Orange = Color{255, 165, 0}
	Purple = Color{255, 0, 255}
)

// Pixels renders the feedback patterns. Animations block on the clock.
type Pixels struct {
	px    PixelDisplay
	led   StatusLight
	clock timeutil.Clock
}

// New returns a Pixels driving px and led.
func New(px PixelDisplay, led StatusLight, clock timeutil.Clock) *Pixels {
	return &Pixels{px: px, led: led, clock: clock}
}

func (p *Pixels) set(i int, c Color) {
	p.px.SetPixel(i, c.R, c.G, c.B)
}

func (p *Pixels) fill(c Color) {
	for i := 0; i < NumPixels; i++ {
		p.set(i, c)
	}
}

// Clear turns every pixel off.
func (p *Pixels) Clear() {
	p.fill(Off)
}

// StatusLight switches the status LED.
func (p *Pixels) StatusLight(on bool) {
	p.led.Set(on)
}

// RecordingStarted clears the ring and lights pixel 0 orange.
func (p *Pixels) RecordingStarted() {
	p.Clear()
	p.set(0, Orange)
}

// CheckingStarted clears the ring and lights pixel 0 purple.
func (p *Pixels) CheckingStarted() {
	p.Clear()
	p.set(0, Purple)
}

// SampleLevel shows |x| of sample i on pixel i%10 in magenta.
func (p *Pixels) SampleLevel(i int, s gesture.Sample) {
	v := Intensity(s.X)
	p.px.SetPixel(i%NumPixels, v, 0, v)
}

// Recorded blinks pixel 0 green twice.
func (p *Pixels) Recorded() {
	p.Clear()
	for i := 0; i < 2; i++ {
		p.set(0, Green)
		p.clock.Sleep(200 * time.Millisecond)
		p.set(0, Off)
		p.clock.Sleep(200 * time.Millisecond)
	}
}

// Rejected flashes pixel 0 red three times.
func (p *Pixels) Rejected() {
	for i := 0; i < 3; i++ {
		p.set(0, Red)
		p.clock.Sleep(100 * time.Millisecond)
		p.set(0, Off)
		p.clock.Sleep(100 * time.Millisecond)
	}
}

// Matched runs a green spiral round the ring, holds, then clears.
func (p *Pixels) Matched() {
	p.Clear()
	for i := 0; i < NumPixels; i++ {
		p.set(i, Green)
		p.clock.Sleep(50 * time.Millisecond)
	}
	p.clock.Sleep(500 * time.Millisecond)
	p.Clear()
}

// Mismatched flashes the whole ring red three times.
func (p *Pixels) Mismatched() {
	p.Clear()
	for i := 0; i < 3; i++ {
		p.fill(Red)
		p.clock.Sleep(100 * time.Millisecond)
		p.Clear()
		p.clock.Sleep(100 * time.Millisecond)
	}
}

// LockoutEntered paints the whole ring red.
func (p *Pixels) LockoutEntered() {
	p.fill(Red)
}

// LockoutPulse sets pixel 0 to a red level that breathes with uptime.
func (p *Pixels) LockoutPulse(uptime time.Duration) {
	p.px.SetPixel(0, PulseLevel(uptime), 0, 0)
}

// Intensity maps an acceleration to a 0-255 level as |x|*255, saturating.
func Intensity(x float64) uint8 {
	v := math.Abs(x) * 255
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// PulseLevel is (sin(ms/500)+1)*127 for the given uptime.
func PulseLevel(uptime time.Duration) uint8 {
	ms := float64(uptime.Milliseconds())
	return uint8((math.Sin(ms/500.0) + 1) * 127)
}
