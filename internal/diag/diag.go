// Package diag is the lock's diagnostic log: plain text lines on stderr and,
// when a port is configured, on a serial console.
package diag

import (
	"fmt"
	"io"
	"log"
	"os"

	serial "github.com/jacobsa/go-serial/serial"
)

// Logf is the package-level process logger used by adapters that have no
// Log of their own. It defaults to log.Printf and may be replaced by
// SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// openPort is swapped in tests.
var openPort = serial.Open

// Log writes diagnostic lines. It satisfies lock.Logger.
type Log struct {
	*log.Logger
	port io.ReadWriteCloser
}

// New returns a Log writing to w only.
func New(w io.Writer) *Log {
	return &Log{Logger: log.New(w, "", log.LstdFlags)}
}

// Open returns a Log writing to stderr, plus the serial port portName at
// baud when portName is not empty.
func Open(portName string, baud uint) (*Log, error) {
	if portName == "" {
		return New(os.Stderr), nil
	}

	port, err := openPort(serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	})
	if err != nil {
		return nil, fmt.Errorf("open diagnostic port %s: %w", portName, err)
	}
	Logf("diag: serial console on %s at %d baud", portName, baud)

	l := New(io.MultiWriter(os.Stderr, port))
	l.port = port
	return l, nil
}

// Close releases the serial port, if any.
func (l *Log) Close() error {
	if l.port == nil {
		return nil
	}
	err := l.port.Close()
	l.port = nil
	return err
}
