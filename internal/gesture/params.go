package gesture

import (
	"fmt"
	"time"
)

// Build-time defaults for the lock.
const (
	DefaultCapacity        = 50
	DefaultMaxAttempts     = 3
	DefaultLockoutDuration = 300_000 * time.Millisecond
	DefaultSampleCadence   = 20 * time.Millisecond
	// DefaultCaptureWindow is the nominal window. With 50 samples at 20ms the
	// sample bound is reached after about 1s, so this is never the limit.
	DefaultCaptureWindow  = 5_000 * time.Millisecond
	DefaultMatchThreshold = 0.85
	DefaultTolerance      = 0.30
)

// Params groups every numeric knob of capture, scoring and lockout.
type Params struct {
	Capacity        int
	MaxAttempts     int
	LockoutDuration time.Duration
	SampleCadence   time.Duration
	CaptureWindow   time.Duration
	MatchThreshold  float64
	Tolerance       float64
}

// DefaultParams returns the values the device ships with.
func DefaultParams() Params {
	return Params{
		Capacity:        DefaultCapacity,
		MaxAttempts:     DefaultMaxAttempts,
		LockoutDuration: DefaultLockoutDuration,
		SampleCadence:   DefaultSampleCadence,
		CaptureWindow:   DefaultCaptureWindow,
		MatchThreshold:  DefaultMatchThreshold,
		Tolerance:       DefaultTolerance,
	}
}

// EffectiveWindow is how long a full-capacity capture actually lasts:
// the smaller of the nominal window and Capacity*SampleCadence.
func (p Params) EffectiveWindow() time.Duration {
	bySamples := time.Duration(p.Capacity) * p.SampleCadence
	if bySamples < p.CaptureWindow {
		return bySamples
	}
	return p.CaptureWindow
}

// Validate rejects parameter sets the controller cannot run with.
func (p Params) Validate() error {
	if p.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", p.Capacity)
	}
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", p.MaxAttempts)
	}
	if p.LockoutDuration <= 0 {
		return fmt.Errorf("lockout duration must be positive, got %s", p.LockoutDuration)
	}
	if p.SampleCadence < 0 {
		return fmt.Errorf("sample cadence must not be negative, got %s", p.SampleCadence)
	}
	if p.CaptureWindow <= 0 {
		return fmt.Errorf("capture window must be positive, got %s", p.CaptureWindow)
	}
	if p.MatchThreshold < 0 || p.MatchThreshold > 1 {
		return fmt.Errorf("match threshold must be 0-1, got %.2f", p.MatchThreshold)
	}
	if p.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %.2f", p.Tolerance)
	}
	return nil
}
