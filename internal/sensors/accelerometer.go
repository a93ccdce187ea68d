// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"

	"github.com/relabs-tech/gesture_lock/internal/diag"
)

// StandardGravity converts g to m/s².
const StandardGravity = 9.80665

// accelAxes is the part of the MPU9250 driver the lock reads.
type accelAxes interface {
	GetAccelerationX() (int16, error)
	GetAccelerationY() (int16, error)
	GetAccelerationZ() (int16, error)
}

// Accelerometer reads one MPU9250 in m/s². It implements
// gesture.MotionSensor.
//
// A failed bus read is logged and the previous value of that axis is
// returned, so a capture never stalls on a flaky wire.
type Accelerometer struct {
	dev        accelAxes
	countsPerG float64
	last       [3]float64
}

// NewAccelerometer initializes the MPU9250 on spiDev with chip select
// csPin and applies the full-scale range (0=±2g, 1=±4g, 2=±8g, 3=±16g).
func NewAccelerometer(spiDev, csPin string, accelRange byte) (*Accelerometer, error) {
	if accelRange > 3 {
		return nil, fmt.Errorf("accelerometer: range %d out of 0-3", accelRange)
	}
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("accelerometer: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("accelerometer: CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("accelerometer: SPI transport (%s): %w", spiDev, err)
	}

	imu, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("accelerometer: device creation: %w", err)
	}

	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("accelerometer: initialization: %w", err)
	}

	if err := imu.Calibrate(); err != nil {
		log.Printf("accelerometer: warning: calibration failed: %v", err)
	} else {
		log.Printf("accelerometer: calibration complete")
	}

	if err := imu.SetAccelRange(accelRange); err != nil {
		return nil, fmt.Errorf("accelerometer: set range: %w", err)
	}
	log.Printf("accelerometer: range set to %d (±%dg)", accelRange, []int{2, 4, 8, 16}[accelRange])

	return newAccelerometer(imu, accelRange), nil
}

func newAccelerometer(dev accelAxes, accelRange byte) *Accelerometer {
	return &Accelerometer{
		dev:        dev,
		countsPerG: float64(int(16384) >> accelRange),
	}
}

func (a *Accelerometer) axis(i int, read func() (int16, error)) float64 {
	raw, err := read()
	if err != nil {
		diag.Logf("accelerometer: axis %c read error: %v", "XYZ"[i], err)
		return a.last[i]
	}
	a.last[i] = float64(raw) / a.countsPerG * StandardGravity
	return a.last[i]
}

// X returns the X acceleration in m/s².
func (a *Accelerometer) X() float64 { return a.axis(0, a.dev.GetAccelerationX) }

// Y returns the Y acceleration in m/s².
func (a *Accelerometer) Y() float64 { return a.axis(1, a.dev.GetAccelerationY) }

// Z returns the Z acceleration in m/s².
func (a *Accelerometer) Z() float64 { return a.axis(2, a.dev.GetAccelerationZ) }
