// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gesture

import (
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/gesture_lock/internal/timeutil"
)

// Waveform selects what a MockSensor produces.
type Waveform int

const (
	// WaveStill reports gravity on Z only.
	WaveStill Waveform = iota
	// WaveShake is a fast side-to-side shake on X.
	WaveShake
	// WaveCircle traces a circle in the X/Y plane.
	WaveCircle
	// WaveFlat reports zero on every axis.
	WaveFlat
)

func (w Waveform) String() string {
	switch w {
	case WaveStill:
		return "still"
	case WaveShake:
		return "shake"
	case WaveCircle:
		return "circle"
	case WaveFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// MockSensor is a MotionSensor that generates smooth synthetic motion
// from the clock, for running the lock without hardware.
type MockSensor struct {
	mu    sync.Mutex
	clock timeutil.Clock
	start time.Time
	wave  Waveform
	gain  float64
}

// NewMockSensor creates a mock sensor producing WaveStill.
func NewMockSensor(clock timeutil.Clock) *MockSensor {
	return &MockSensor{clock: clock, start: clock.Now(), gain: 1}
}

// SetWaveform switches the generated motion and its amplitude.
func (m *MockSensor) SetWaveform(w Waveform, gain float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wave = w
	m.gain = gain
	m.start = m.clock.Now()
}

func (m *MockSensor) sample() Sample {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.clock.Since(m.start).Seconds()
	switch m.wave {
	case WaveShake:
		return Sample{X: m.gain * 9 * math.Sin(2*math.Pi*3*t), Y: 0.5, Z: 9.8}
	case WaveCircle:
		return Sample{X: m.gain * 6 * math.Cos(2*math.Pi*t), Y: m.gain * 6 * math.Sin(2*math.Pi*t), Z: 9.8}
	case WaveFlat:
		return Sample{}
	default:
		return Sample{X: 0.1, Y: -0.1, Z: 9.8}
	}
}

func (m *MockSensor) X() float64 { return m.sample().X }
func (m *MockSensor) Y() float64 { return m.sample().Y }
func (m *MockSensor) Z() float64 { return m.sample().Z }
