package app

import (
	"fmt"
	"image"
	"log"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_lock/internal/lock"
)

// drawTarget is the part of ssd1306.Dev the status display uses.
type drawTarget interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// statusDisplay mirrors the lock status on a 128x64 SSD1306 OLED. It is a
// lock.Observer, so it redraws on every event.
type statusDisplay struct {
	dev   drawTarget
	close func() error
}

// openStatusDisplay opens the SSD1306 at its default address on the I2C
// bus busName ("" picks the first bus) and shows a splash screen.
func openStatusDisplay(busName string) (*statusDisplay, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized on I2C bus %q", busName)

	d := &statusDisplay{
		dev: dev,
		close: func() error {
			if err := dev.Halt(); err != nil {
				log.Printf("display: halt: %v", err)
			}
			return bus.Close()
		},
	}
	if err := d.draw(renderLines("Gesture Lock", "", "Starting...")); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}
	return d, nil
}

// Observe implements lock.Observer.
func (d *statusDisplay) Observe(_ lock.Event, st lock.Status) {
	d.Show(st)
}

// Show draws st.
func (d *statusDisplay) Show(st lock.Status) {
	if err := d.draw(renderStatus(st)); err != nil {
		log.Printf("display: error updating display: %v", err)
	}
}

// Close blanks the panel and releases the bus.
func (d *statusDisplay) Close() error {
	if d.close == nil {
		return nil
	}
	return d.close()
}

func (d *statusDisplay) draw(img image.Image) error {
	return d.dev.Draw(d.dev.Bounds(), img, image.Point{})
}

// statusLines is the text shown for st, one entry per display row.
func statusLines(st lock.Status) []string {
	lines := []string{
		"Gesture Lock",
		"State: " + strings.ToUpper(st.State.String()),
		fmt.Sprintf("Tries: %d/%d", st.Attempts, st.MaxAttempts),
	}
	switch {
	case st.State == lock.Lockout:
		lines = append(lines, fmt.Sprintf("Wait: %ds", st.LockoutRemainingMS/1000))
	case !st.HasTemplate:
		lines = append(lines, "No gesture")
	default:
		lines = append(lines, fmt.Sprintf("Match: %.0f%%", st.LastScore*100))
	}
	return lines
}

func renderStatus(st lock.Status) *image1bit.VerticalLSB {
	return renderLines(statusLines(st)...)
}

// renderLines draws up to four rows of 7x13 text on a blank 128x64 frame.
func renderLines(lines ...string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		if i == 4 {
			break
		}
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawBytes([]byte(line))
	}
	return img
}
