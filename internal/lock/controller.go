// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package lock implements the gesture lock state machine: it owns the
// enrolled template, the attempt counter and the lockout window.
//
// The controller is not safe for concurrent use. A single host loop calls
// Step (or the individual intent methods); everything else sees Events and
// Status snapshots only.
package lock

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/gesture_lock/internal/gesture"
	"github.com/relabs-tech/gesture_lock/internal/timeutil"
)

// Feedback is the visual side of the lock. It never influences decisions.
type Feedback interface {
	Clear()
	StatusLight(on bool)
	RecordingStarted()
	CheckingStarted()
	SampleLevel(i int, s gesture.Sample)
	Recorded()
	Rejected()
	Matched()
	Mismatched()
	LockoutEntered()
	LockoutPulse(uptime time.Duration)
}

// Logger is the line-oriented diagnostic sink.
type Logger interface {
	Printf(format string, v ...any)
}

// Options configures a Controller. Zero values pick defaults: no-op
// feedback, discarded log, real clock.
type Options struct {
	Params    gesture.Params
	Sensor    gesture.MotionSensor
	Feedback  Feedback
	Log       Logger
	Clock     timeutil.Clock
	Observers []Observer
}

// Controller is the lock state machine.
type Controller struct {
	params    gesture.Params
	capturer  *gesture.Capturer
	fb        Feedback
	log       Logger
	clock     timeutil.Clock
	observers []Observer

	started      time.Time
	state        State
	template     *gesture.Sequence
	attempts     int
	lockoutStart time.Time
	lastScore    float64
}

// New builds the controller in the Unlocked state with no template.
func New(opts Options) (*Controller, error) {
	if err := opts.Params.Validate(); err != nil {
		return nil, fmt.Errorf("lock params: %w", err)
	}
	if opts.Sensor == nil {
		return nil, fmt.Errorf("lock: motion sensor is required")
	}
	if opts.Feedback == nil {
		opts.Feedback = nopFeedback{}
	}
	if opts.Log == nil {
		opts.Log = log.New(io.Discard, "", 0)
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}

	c := &Controller{
		params:    opts.Params,
		capturer:  gesture.NewCapturer(opts.Sensor, opts.Clock),
		fb:        opts.Feedback,
		log:       opts.Log,
		clock:     opts.Clock,
		observers: opts.Observers,
		started:   opts.Clock.Now(),
		state:     Unlocked,
	}
	c.fb.StatusLight(false)
	c.fb.Clear()
	return c, nil
}

// AddObserver registers o for all subsequent events.
func (c *Controller) AddObserver(o Observer) {
	c.observers = append(c.observers, o)
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Attempts returns the failed-check count since the last reset.
func (c *Controller) Attempts() int { return c.attempts }

// HasTemplate reports whether a gesture has been recorded.
func (c *Controller) HasTemplate() bool { return c.template != nil }

// Template returns a copy of the enrolled gesture, or nil.
func (c *Controller) Template() *gesture.Sequence { return c.template.Clone() }

// LockoutRemaining is the time left in the lockout window, or 0.
func (c *Controller) LockoutRemaining() time.Duration {
	if c.state != Lockout {
		return 0
	}
	rem := c.params.LockoutDuration - c.clock.Since(c.lockoutStart)
	if rem < 0 {
		return 0
	}
	return rem
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	return Status{
		Time:               c.clock.Now(),
		State:              c.state,
		Attempts:           c.attempts,
		MaxAttempts:        c.params.MaxAttempts,
		HasTemplate:        c.HasTemplate(),
		TemplateLength:     c.template.Len(),
		LastScore:          c.lastScore,
		LockoutRemainingMS: c.LockoutRemaining().Milliseconds(),
	}
}

// Tick handles lockout expiry and the lockout pulse. The host loop calls
// it once per iteration before dispatching intents.
func (c *Controller) Tick() Outcome {
	if c.state != Lockout {
		return OutcomeNone
	}
	if c.expireLockout() {
		return OutcomeLockoutExpired
	}
	c.fb.LockoutPulse(c.clock.Since(c.started))
	return OutcomeNone
}

// RecordGesture captures a new template and locks. Only allowed while
// Unlocked; otherwise the request is rejected with feedback only.
func (c *Controller) RecordGesture() Outcome {
	c.expireLockout()
	if c.state != Unlocked {
		c.log.Printf("System already locked - cannot record new gesture")
		c.fb.Rejected()
		c.emit(Event{Outcome: OutcomeRecordRejected})
		return OutcomeRecordRejected
	}

	c.log.Printf("Recording started - %d second gesture", int(c.params.CaptureWindow/time.Second))
	c.fb.RecordingStarted()
	seq := c.capturer.Capture(gesture.Window{
		MaxDuration: c.params.CaptureWindow,
		MaxSamples:  c.params.Capacity,
		Cadence:     c.params.SampleCadence,
	}, c.sampleTick("Sample"))
	c.template = seq
	c.fb.Recorded()
	c.log.Printf("Recording complete. Collected %d samples", seq.Len())

	c.state = Locked
	c.attempts = 0
	c.fb.StatusLight(true)
	c.log.Printf("System Locked with new gesture")
	c.emit(Event{Outcome: OutcomeRecorded, Samples: seq.Len()})
	return OutcomeRecorded
}

// CheckGesture captures an attempt and scores it against the template.
func (c *Controller) CheckGesture() Outcome {
	c.expireLockout()
	switch {
	case c.state == Unlocked:
		return OutcomeCheckIgnored
	case c.state == Lockout:
		c.log.Printf("System is locked out for %d more seconds", int(c.LockoutRemaining()/time.Second))
		c.fb.Rejected()
		c.emit(Event{Outcome: OutcomeCheckRejectedLockout})
		return OutcomeCheckRejectedLockout
	case c.template.Len() == 0:
		c.log.Printf("No gesture recorded - cannot check")
		c.fb.Rejected()
		c.emit(Event{Outcome: OutcomeCheckRejectedNoTemplate})
		return OutcomeCheckRejectedNoTemplate
	}

	c.log.Printf("Checking gesture - perform the same motion")
	c.log.Printf("Attempt %d of %d", c.attempts+1, c.params.MaxAttempts)
	c.fb.CheckingStarted()

	n := min(c.params.Capacity, c.template.Len())
	attempt := c.capturer.Capture(gesture.Window{
		MaxDuration: c.params.CaptureWindow,
		MaxSamples:  n,
		Cadence:     c.params.SampleCadence,
	}, c.sampleTick("Check Sample"))

	score := gesture.Score(attempt, c.template, n, c.params.Tolerance)
	c.lastScore = score
	c.log.Printf("Gesture match: %.2f%%", score*100)
	c.fb.Clear()

	if gesture.Matches(score, c.params.MatchThreshold) {
		c.log.Printf("Gesture Matched! System Unlocked")
		c.state = Unlocked
		c.attempts = 0
		c.fb.StatusLight(false)
		c.fb.Matched()
		c.fb.Clear()
		c.emit(Event{Outcome: OutcomeUnlocked, Score: score, Samples: attempt.Len()})
		return OutcomeUnlocked
	}

	c.attempts++
	c.log.Printf("Gesture Did Not Match - %d attempts remaining", c.params.MaxAttempts-c.attempts)
	if c.attempts >= c.params.MaxAttempts {
		c.enterLockout()
		// The ring goes dark again; the lockout pulse takes over on the next tick.
		c.fb.Clear()
		c.emit(Event{Outcome: OutcomeLockoutEntered, Score: score, Samples: attempt.Len()})
		return OutcomeLockoutEntered
	}
	c.fb.Mismatched()
	c.fb.Clear()
	c.emit(Event{Outcome: OutcomeMismatch, Score: score, Samples: attempt.Len()})
	return OutcomeMismatch
}

// Override forces the lock open from any state. The template is kept.
// The indicators are cleared on every call, but OutcomeNone is returned
// when the lock was already open with no failed attempts.
func (c *Controller) Override() Outcome {
	changed := c.state != Unlocked || c.attempts != 0
	c.state = Unlocked
	c.attempts = 0
	c.lockoutStart = time.Time{}
	c.fb.StatusLight(false)
	c.fb.Clear()
	if changed {
		c.log.Printf("Override switch engaged - system unlocked")
		c.emit(Event{Outcome: OutcomeOverridden})
		return OutcomeOverridden
	}
	return OutcomeNone
}

func (c *Controller) enterLockout() {
	c.state = Lockout
	c.lockoutStart = c.clock.Now()
	c.log.Printf("Too many failed attempts. System locked for %d minutes.", int(c.params.LockoutDuration/time.Minute))
	c.fb.LockoutEntered()
}

// expireLockout leaves Lockout once the window has fully elapsed.
func (c *Controller) expireLockout() bool {
	if c.state != Lockout || c.clock.Since(c.lockoutStart) < c.params.LockoutDuration {
		return false
	}
	c.state = Locked
	c.attempts = 0
	c.lockoutStart = time.Time{}
	c.log.Printf("Lockout period ended. System ready for new attempts.")
	c.fb.Clear()
	c.emit(Event{Outcome: OutcomeLockoutExpired})
	return true
}

func (c *Controller) sampleTick(label string) gesture.TickFunc {
	return func(i int, s gesture.Sample) {
		c.fb.SampleLevel(i, s)
		c.log.Printf("%s %d: X=%.2f Y=%.2f Z=%.2f", label, i, s.X, s.Y, s.Z)
	}
}

func (c *Controller) emit(ev Event) {
	if len(c.observers) == 0 {
		return
	}
	st := c.Status()
	ev.ID = uuid.NewString()
	ev.Time = st.Time
	ev.State = c.state
	ev.Attempts = c.attempts
	ev.MaxAttempts = c.params.MaxAttempts
	ev.LockoutRemainingMS = st.LockoutRemainingMS
	for _, o := range c.observers {
		o.Observe(ev, st)
	}
}

type nopFeedback struct{}

func (nopFeedback) Clear()                          {}
func (nopFeedback) StatusLight(bool)                {}
func (nopFeedback) RecordingStarted()               {}
func (nopFeedback) CheckingStarted()                {}
func (nopFeedback) SampleLevel(int, gesture.Sample) {}
func (nopFeedback) Recorded()                       {}
func (nopFeedback) Rejected()                       {}
func (nopFeedback) Matched()                        {}
func (nopFeedback) Mismatched()                     {}
func (nopFeedback) LockoutEntered()                 {}
func (nopFeedback) LockoutPulse(time.Duration)      {}
