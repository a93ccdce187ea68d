// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/relabs-tech/gesture_lock/internal/config"
	"github.com/relabs-tech/gesture_lock/internal/diag"
	"github.com/relabs-tech/gesture_lock/internal/gesture"
	"github.com/relabs-tech/gesture_lock/internal/indicator"
	"github.com/relabs-tech/gesture_lock/internal/lock"
	"github.com/relabs-tech/gesture_lock/internal/timeutil"
)

const consoleHelp = `keys (then Enter):
  r  press left button (record)
  c  press right button (check)
  o  toggle override switch
  s  still   k  shake   i  circle   f  flat   (motion source)
  p  print status
  q  quit`

// RunConsole runs the lock in a terminal with a synthetic motion source.
// Lock events go to MQTT when a broker is reachable.
func RunConsole() error {
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := timeutil.RealClock{}
	rig, err := newConsoleRig(os.Stdout, clock)
	if err != nil {
		return err
	}

	if client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole); err != nil {
		log.Printf("console: MQTT unavailable, events stay local: %v", err)
	} else {
		defer client.Disconnect(250)
		rep := newMQTTReporter(client, cfg.TopicLockEvents, cfg.TopicLockStatus)
		rig.ctrl.AddObserver(rep)
		rep.PublishStatus(rig.ctrl.Status())
	}

	fmt.Println(consoleHelp)

	ticker := clock.NewTicker(time.Duration(cfg.LoopInterval) * time.Millisecond)
	defer ticker.Stop()
	return rig.run(ctx, os.Stdin, ticker.C())
}

// consoleRig is a lock wired to terminal stand-ins for every device.
type consoleRig struct {
	ctrl     *lock.Controller
	sensor   *gesture.MockSensor
	controls *consoleControls
	out      io.Writer
}

func newConsoleRig(out io.Writer, clock timeutil.Clock) (*consoleRig, error) {
	ring := &consoleRing{}
	led := &consoleLED{}
	fb := &consoleFeedback{
		Pixels: indicator.New(ring, led, clock),
		ring:   ring,
		led:    led,
		out:    out,
	}
	sensor := gesture.NewMockSensor(clock)

	ctrl, err := lock.New(lock.Options{
		Params:   gesture.DefaultParams(),
		Sensor:   sensor,
		Feedback: fb,
		Log:      diag.New(out),
		Clock:    clock,
	})
	if err != nil {
		return nil, fmt.Errorf("console: %w", err)
	}
	return &consoleRig{ctrl: ctrl, sensor: sensor, controls: &consoleControls{}, out: out}, nil
}

// run reads keys from in and steps the lock on every tick. It returns when
// ctx is done, on "q", or at end of input.
func (r *consoleRig) run(ctx context.Context, in io.Reader, tick <-chan time.Time) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make(chan string)
	go func() {
		defer close(keys)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case keys <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-keys:
			if !ok || !r.apply(key) {
				return nil
			}
		case <-tick:
			r.ctrl.Step(r.controls)
		}
	}
}

// apply handles one key and reports whether to keep running.
func (r *consoleRig) apply(key string) bool {
	switch key {
	case "":
	case "r":
		r.controls.left = true
	case "c":
		r.controls.right = true
	case "o":
		r.controls.override = !r.controls.override
		fmt.Fprintf(r.out, "override switch %s\n", onOff(r.controls.override))
	case "s":
		r.setWave(gesture.WaveStill)
	case "k":
		r.setWave(gesture.WaveShake)
	case "i":
		r.setWave(gesture.WaveCircle)
	case "f":
		r.setWave(gesture.WaveFlat)
	case "p":
		st := r.ctrl.Status()
		fmt.Fprintf(r.out, "state=%s attempts=%d/%d template=%d last=%.2f lockout=%dms\n",
			st.State, st.Attempts, st.MaxAttempts, st.TemplateLength, st.LastScore, st.LockoutRemainingMS)
	case "q":
		return false
	default:
		fmt.Fprintln(r.out, consoleHelp)
	}
	return true
}

func (r *consoleRig) setWave(w gesture.Waveform) {
	r.sensor.SetWaveform(w, 1)
	fmt.Fprintf(r.out, "motion source: %s\n", w)
}

// consoleControls turns key presses into one-tick button pulses. The
// override switch stays where it was put.
type consoleControls struct {
	left, right, override bool
}

func (c *consoleControls) Left() bool {
	v := c.left
	c.left = false
	return v
}

func (c *consoleControls) Right() bool {
	v := c.right
	c.right = false
	return v
}

func (c *consoleControls) On() bool { return c.override }

// consoleRing keeps the pixel colors so they can be printed.
type consoleRing struct {
	px [indicator.NumPixels]indicator.Color
}

func (r *consoleRing) SetPixel(i int, red, green, blue uint8) {
	if i < 0 || i >= len(r.px) {
		return
	}
	r.px[i] = indicator.Color{R: red, G: green, B: blue}
}

func (r *consoleRing) String() string {
	var b strings.Builder
	for _, c := range r.px {
		switch c {
		case indicator.Off:
			b.WriteByte('.')
		case indicator.Red:
			b.WriteByte('R')
		case indicator.Green:
			b.WriteByte('G')
		case indicator.Orange:
			b.WriteByte('O')
		case indicator.Purple:
			b.WriteByte('P')
		default:
			b.WriteByte('*')
		}
	}
	return b.String()
}

type consoleLED struct{ on bool }

func (l *consoleLED) Set(on bool) { l.on = on }

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// consoleFeedback prints the ring after each feedback pattern. Per-sample
// levels and the lockout pulse are too frequent to print.
type consoleFeedback struct {
	*indicator.Pixels
	ring *consoleRing
	led  *consoleLED
	out  io.Writer
}

func (f *consoleFeedback) show(what string) {
	fmt.Fprintf(f.out, "[ring %s] [led %-3s] %s\n", f.ring, onOff(f.led.on), what)
}

func (f *consoleFeedback) RecordingStarted() {
	f.Pixels.RecordingStarted()
	f.show("recording")
}

func (f *consoleFeedback) CheckingStarted() {
	f.Pixels.CheckingStarted()
	f.show("checking")
}

func (f *consoleFeedback) Recorded() {
	f.Pixels.Recorded()
	f.show("recorded")
}

func (f *consoleFeedback) Rejected() {
	f.Pixels.Rejected()
	f.show("rejected")
}

func (f *consoleFeedback) Matched() {
	f.Pixels.Matched()
	f.show("matched")
}

func (f *consoleFeedback) Mismatched() {
	f.Pixels.Mismatched()
	f.show("mismatch")
}

func (f *consoleFeedback) LockoutEntered() {
	f.Pixels.LockoutEntered()
	f.show("lockout")
}
