package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// Accelerometer (MPU9250 over SPI)
	AccelSPIDevice string
	AccelCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	AccelRange byte

	// GPIO
	ButtonLeftPin     string
	ButtonRightPin    string
	OverrideSwitchPin string
	StatusLEDPin      string

	// Pixel strip (WS2812 driven over SPI)
	PixelSPIDevice string
	PixelCount     int

	// Timing
	LoopInterval int // milliseconds

	// Diagnostic serial console, empty to log to stderr only
	DiagSerialPort string
	DiagBaudRate   uint

	// MQTT
	MQTTBroker          string
	MQTTClientIDDevice  string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string

	// Topics
	TopicLockStatus string
	TopicLockEvents string

	// Web Server
	WebServerPort int

	// Display
	DisplayEnabled bool
	DisplayI2CBus  string
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: ensures InitGlobal() only runs once.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when no file is given. It matches
// the reference wiring of the lock on a Raspberry Pi.
func Default() *Config {
	return &Config{
		AccelSPIDevice:      "/dev/spidev0.0",
		AccelCSPin:          "GPIO8",
		AccelRange:          0,
		ButtonLeftPin:       "GPIO17",
		ButtonRightPin:      "GPIO27",
		OverrideSwitchPin:   "GPIO22",
		StatusLEDPin:        "GPIO13",
		PixelSPIDevice:      "/dev/spidev1.0",
		PixelCount:          10,
		LoopInterval:        10,
		DiagBaudRate:        9600,
		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDDevice:  "gesture-lock-device",
		MQTTClientIDConsole: "gesture-lock-console",
		MQTTClientIDWeb:     "gesture-lock-web",
		TopicLockStatus:     "gesture_lock/status",
		TopicLockEvents:     "gesture_lock/events",
		WebServerPort:       8080,
	}
}

// Load reads the configuration file and returns a Config struct. Keys not
// present in the file keep their Default values.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines from r on top of Default.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Accelerometer
	case "ACCEL_SPI_DEVICE":
		c.AccelSPIDevice = value
	case "ACCEL_CS_PIN":
		c.AccelCSPin = value
	case "ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.AccelRange = byte(rangeVal)

	// GPIO
	case "BUTTON_LEFT_PIN":
		c.ButtonLeftPin = value
	case "BUTTON_RIGHT_PIN":
		c.ButtonRightPin = value
	case "OVERRIDE_SWITCH_PIN":
		c.OverrideSwitchPin = value
	case "STATUS_LED_PIN":
		c.StatusLEDPin = value

	// Pixel strip
	case "PIXEL_SPI_DEVICE":
		c.PixelSPIDevice = value
	case "PIXEL_COUNT":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PIXEL_COUNT %q: %w", value, err)
		}
		if n < 1 || n > 256 {
			return fmt.Errorf("PIXEL_COUNT must be 1-256, got %d", n)
		}
		c.PixelCount = n

	// Timing
	case "LOOP_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LOOP_INTERVAL %q: %w", value, err)
		}
		c.LoopInterval = interval

	// Diagnostics
	case "DIAG_SERIAL_PORT":
		c.DiagSerialPort = value
	case "DIAG_BAUD_RATE":
		rate, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid DIAG_BAUD_RATE %q: %w", value, err)
		}
		c.DiagBaudRate = uint(rate)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_DEVICE":
		c.MQTTClientIDDevice = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_LOCK_STATUS":
		c.TopicLockStatus = value
	case "TOPIC_LOCK_EVENTS":
		c.TopicLockEvents = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_ENABLED":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = on
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.AccelSPIDevice == "" {
		return fmt.Errorf("ACCEL_SPI_DEVICE is required")
	}
	if c.PixelSPIDevice == "" {
		return fmt.Errorf("PIXEL_SPI_DEVICE is required")
	}
	if c.LoopInterval <= 0 {
		return fmt.Errorf("LOOP_INTERVAL must be positive, got %d", c.LoopInterval)
	}
	if c.DiagSerialPort != "" && c.DiagBaudRate == 0 {
		return fmt.Errorf("DIAG_BAUD_RATE is required when DIAG_SERIAL_PORT is set")
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
	}
	return nil
}

// InitGlobal initializes the global configuration from file. An empty path
// installs Default. Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		if configPath == "" {
			globalConfig = Default()
			return
		}
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
