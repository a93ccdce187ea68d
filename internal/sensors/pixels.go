package sensors

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"

	"github.com/relabs-tech/gesture_lock/internal/diag"
)

// PixelStrip is a WS2812 strip driven as NRZ over SPI. Every SetPixel
// pushes the whole frame, which is what the animations expect. It
// implements indicator.PixelDisplay.
type PixelStrip struct {
	out   io.Writer
	port  spi.PortCloser
	frame []byte
}

// OpenPixelStrip opens spiDev and drives n RGB pixels on it.
func OpenPixelStrip(spiDev string, n int) (*PixelStrip, error) {
	if n <= 0 {
		return nil, fmt.Errorf("pixel strip: need at least one pixel, got %d", n)
	}
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("pixel strip: %w", err)
	}

	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("pixel strip SPI open (%s): %w", spiDev, err)
	}

	opts := nrzled.DefaultOpts
	opts.NumPixels = n
	opts.Channels = 3
	dev, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("pixel strip: %w", err)
	}

	s := newPixelStrip(dev, n)
	s.port = port
	return s, nil
}

func newPixelStrip(out io.Writer, n int) *PixelStrip {
	return &PixelStrip{out: out, frame: make([]byte, 3*n)}
}

// Len is the number of pixels.
func (s *PixelStrip) Len() int { return len(s.frame) / 3 }

// SetPixel sets pixel i and refreshes the strip. Out-of-range indices are
// ignored.
func (s *PixelStrip) SetPixel(i int, r, g, b uint8) {
	if i < 0 || i >= s.Len() {
		return
	}
	copy(s.frame[3*i:], []byte{r, g, b})
	if _, err := s.out.Write(s.frame); err != nil {
		diag.Logf("pixel strip: write: %v", err)
	}
}

// Close blanks the strip and releases the SPI port.
func (s *PixelStrip) Close() error {
	for i := range s.frame {
		s.frame[i] = 0
	}
	if _, err := s.out.Write(s.frame); err != nil {
		diag.Logf("pixel strip: blank: %v", err)
	}
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
