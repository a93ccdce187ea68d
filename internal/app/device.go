// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/gesture_lock/internal/config"
	"github.com/relabs-tech/gesture_lock/internal/diag"
	"github.com/relabs-tech/gesture_lock/internal/gesture"
	"github.com/relabs-tech/gesture_lock/internal/indicator"
	"github.com/relabs-tech/gesture_lock/internal/lock"
	"github.com/relabs-tech/gesture_lock/internal/sensors"
	"github.com/relabs-tech/gesture_lock/internal/timeutil"
)

// RunDevice runs the lock on real hardware until SIGINT or SIGTERM.
// MQTT and the OLED are optional: the lock keeps working without them.
func RunDevice() error {
	cfg := config.Get()

	dlog, err := diag.Open(cfg.DiagSerialPort, cfg.DiagBaudRate)
	if err != nil {
		return err
	}
	defer dlog.Close()

	accel, err := sensors.NewAccelerometer(cfg.AccelSPIDevice, cfg.AccelCSPin, cfg.AccelRange)
	if err != nil {
		return err
	}
	controls, err := sensors.NewControls(cfg.ButtonLeftPin, cfg.ButtonRightPin, cfg.OverrideSwitchPin)
	if err != nil {
		return err
	}
	led, err := sensors.NewStatusLED(cfg.StatusLEDPin)
	if err != nil {
		return err
	}
	strip, err := sensors.OpenPixelStrip(cfg.PixelSPIDevice, cfg.PixelCount)
	if err != nil {
		return err
	}
	defer strip.Close()

	clock := timeutil.RealClock{}
	ctrl, err := lock.New(lock.Options{
		Params:   gesture.DefaultParams(),
		Sensor:   accel,
		Feedback: indicator.New(strip, led, clock),
		Log:      dlog,
		Clock:    clock,
	})
	if err != nil {
		return fmt.Errorf("device: %w", err)
	}

	if client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDevice); err != nil {
		log.Printf("device: MQTT unavailable, running offline: %v", err)
	} else {
		defer client.Disconnect(250)
		rep := newMQTTReporter(client, cfg.TopicLockEvents, cfg.TopicLockStatus)
		ctrl.AddObserver(rep)
		rep.PublishStatus(ctrl.Status())
		log.Printf("device: reporting to %s on %s", cfg.MQTTBroker, cfg.TopicLockEvents)
	}

	if cfg.DisplayEnabled {
		disp, err := openStatusDisplay(cfg.DisplayI2CBus)
		if err != nil {
			log.Printf("device: display unavailable: %v", err)
		} else {
			defer disp.Close()
			ctrl.AddObserver(disp)
			disp.Show(ctrl.Status())
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := clock.NewTicker(time.Duration(cfg.LoopInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Printf("device: lock ready, polling inputs every %dms", cfg.LoopInterval)
	runLoop(ctx, ctrl, controls, ticker.C())
	log.Println("device: shutting down")
	return nil
}

// runLoop steps ctrl once per tick until ctx is done.
func runLoop(ctx context.Context, ctrl *lock.Controller, in lock.Controls, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			for _, o := range ctrl.Step(in) {
				log.Printf("device: %s (state=%s attempts=%d)", o, ctrl.State(), ctrl.Attempts())
			}
		}
	}
}
