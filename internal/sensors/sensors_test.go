package sensors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/relabs-tech/gesture_lock/internal/diag"
)

type fakeAxes struct {
	x, y, z int16
	err     error
}

func (f *fakeAxes) GetAccelerationX() (int16, error) { return f.x, f.err }
func (f *fakeAxes) GetAccelerationY() (int16, error) { return f.y, f.err }
func (f *fakeAxes) GetAccelerationZ() (int16, error) { return f.z, f.err }

func muteDiag(t *testing.T) *[]string {
	t.Helper()
	orig := diag.Logf
	var lines []string
	diag.SetLogger(func(format string, v ...interface{}) { lines = append(lines, format) })
	t.Cleanup(func() { diag.Logf = orig })
	return &lines
}

func TestAccelerometer_ScalesByRange(t *testing.T) {
	dev := &fakeAxes{x: 16384, y: -8192, z: 0}
	a := newAccelerometer(dev, 0)

	assert.InDelta(t, StandardGravity, a.X(), 1e-9)
	assert.InDelta(t, -StandardGravity/2, a.Y(), 1e-9)
	assert.Equal(t, 0.0, a.Z())

	// ±16g: 2048 counts per g.
	a = newAccelerometer(&fakeAxes{x: 2048}, 3)
	assert.InDelta(t, StandardGravity, a.X(), 1e-9)
}

func TestAccelerometer_ReadErrorKeepsLastValue(t *testing.T) {
	lines := muteDiag(t)
	dev := &fakeAxes{x: 8192}
	a := newAccelerometer(dev, 0)
	first := a.X()

	dev.err = errors.New("spi: timeout")
	dev.x = 0
	assert.Equal(t, first, a.X())
	assert.Len(t, *lines, 1)
}

func TestControls_ReadLevels(t *testing.T) {
	left := &gpiotest.Pin{N: "GPIO17"}
	right := &gpiotest.Pin{N: "GPIO27"}
	sw := &gpiotest.Pin{N: "GPIO22"}

	c, err := newControls(left, right, sw)
	require.NoError(t, err)
	assert.Equal(t, gpio.PullDown, left.P)
	assert.False(t, c.Left())
	assert.False(t, c.Right())
	assert.False(t, c.On())

	require.NoError(t, left.Out(gpio.High))
	require.NoError(t, sw.Out(gpio.High))
	assert.True(t, c.Left())
	assert.False(t, c.Right())
	assert.True(t, c.On())
}

func TestStatusLED(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO13", L: gpio.High}
	led, err := newStatusLED(pin)
	require.NoError(t, err)
	assert.Equal(t, gpio.Low, pin.Read())

	led.Set(true)
	assert.Equal(t, gpio.High, pin.Read())
	led.Set(false)
	assert.Equal(t, gpio.Low, pin.Read())
}

type frameRecorder struct {
	frames [][]byte
	err    error
}

func (f *frameRecorder) Write(p []byte) (int, error) {
	f.frames = append(f.frames, append([]byte(nil), p...))
	return len(p), f.err
}

func TestPixelStrip_SetPixelPushesFrame(t *testing.T) {
	rec := &frameRecorder{}
	s := newPixelStrip(rec, 3)
	require.Equal(t, 3, s.Len())

	s.SetPixel(1, 255, 165, 0)
	s.SetPixel(7, 1, 2, 3)
	s.SetPixel(-1, 1, 2, 3)

	require.Len(t, rec.frames, 1)
	assert.Equal(t, []byte{0, 0, 0, 255, 165, 0, 0, 0, 0}, rec.frames[0])

	require.NoError(t, s.Close())
	assert.Equal(t, make([]byte, 9), rec.frames[1])
}

func TestPixelStrip_WriteErrorIsLogged(t *testing.T) {
	lines := muteDiag(t)
	s := newPixelStrip(&frameRecorder{err: errors.New("bus gone")}, 10)

	s.SetPixel(0, 255, 0, 0)
	assert.Len(t, *lines, 1)
}
