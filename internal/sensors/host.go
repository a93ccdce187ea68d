// Package sensors binds the lock to its hardware through periph.io: the
// MPU9250 accelerometer, the GPIO buttons, switch and status LED, and the
// WS2812 pixel strip.
package sensors

import (
	"fmt"
	"sync"

	"periph.io/x/host/v3"
)

var (
	hostOnce    sync.Once
	hostInitErr error
)

// initHost loads the periph host drivers once per process.
func initHost() error {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			hostInitErr = fmt.Errorf("periph host init: %w", err)
		}
	})
	return hostInitErr
}
