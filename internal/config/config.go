// Package config loads the callpathd configuration.
//
// Values come from Default(), then an optional YAML file, then environment
// overrides. Validate should be called on the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultDevice      = "modem0"
	DefaultHTTPAddr    = ":8380"
	DefaultLockTimeout = 2 * time.Second
	DefaultLogLevel    = "info"
	DefaultGPIOChip    = "gpiochip0"
	DefaultMicQueue    = 16
)

// Codec backend names.
const (
	BackendNone   = "none"
	BackendLog    = "log"
	BackendNATS   = "nats"
	BackendScript = "script"
)

// Environment overrides.
const (
	EnvHTTPAddr = "CALLPATH_HTTP_ADDR"
	EnvNATSURL  = "NATS_URL"
	EnvLogLevel = "LOG_LEVEL"
	EnvDevice   = "CALLPATH_DEVICE"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Config is the daemon configuration.
type Config struct {
	Device      string        `yaml:"device"`
	LogLevel    string        `yaml:"log_level"`
	LockTimeout time.Duration `yaml:"lock_timeout"`

	HTTP  HTTP  `yaml:"http"`
	NATS  NATS  `yaml:"nats"`
	GPIO  GPIO  `yaml:"gpio"`
	Mic   Mic   `yaml:"mic"`
	Codec Codec `yaml:"codec"`
}

// HTTP configures the HTTP control API. An empty Addr disables it.
type HTTP struct {
	Addr         string `yaml:"addr"`
	AllowOrigins string `yaml:"allow_origins"`
	AccessLog    bool   `yaml:"access_log"`
}

// NATS configures the NATS control API. An empty URL disables it.
type NATS struct {
	URL             string `yaml:"url"`
	Prefix          string `yaml:"prefix"` // defaults to callpath.<device>
	ConnectAttempts int    `yaml:"connect_attempts"`
}

// GPIO names the speaker enable line. An empty Chip selects an in-memory
// line for bench use.
type GPIO struct {
	Chip             string `yaml:"chip"`
	SpeakerLine      int    `yaml:"speaker_line"`
	SpeakerActiveLow bool   `yaml:"speaker_active_low"`
}

// Mic configures the mic selector line. A negative Line disables it.
type Mic struct {
	Line      int  `yaml:"line"`
	ActiveLow bool `yaml:"active_low"`
	Async     bool `yaml:"async"`
	Queue     int  `yaml:"queue"`
}

// Codec selects the platform codec backend.
type Codec struct {
	Backend string `yaml:"backend"` // none, log, nats, script
	Script  string `yaml:"script"`  // Lua file for the script backend
	Card    string `yaml:"card"`    // ALSA card for the script mixer
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Device:      DefaultDevice,
		LogLevel:    DefaultLogLevel,
		LockTimeout: DefaultLockTimeout,
		HTTP:        HTTP{Addr: DefaultHTTPAddr, AllowOrigins: "*"},
		NATS:        NATS{ConnectAttempts: 5},
		GPIO:        GPIO{Chip: DefaultGPIOChip},
		Mic:         Mic{Line: -1, Queue: DefaultMicQueue},
		Codec:       Codec{Backend: BackendLog},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	c.HTTP.Addr = getenv(EnvHTTPAddr, c.HTTP.Addr)
	c.NATS.URL = getenv(EnvNATSURL, c.NATS.URL)
	c.LogLevel = getenv(EnvLogLevel, c.LogLevel)
	c.Device = getenv(EnvDevice, c.Device)
}

// Prefix returns the NATS subject prefix.
func (c Config) Prefix() string {
	if c.NATS.Prefix != "" {
		return c.NATS.Prefix
	}
	return "callpath." + c.Device
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Device) == "" {
		errs = append(errs, fmt.Errorf("%w: device is empty", ErrInvalid))
	}
	if c.LockTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: lock_timeout must be positive", ErrInvalid))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: unknown log_level %q", ErrInvalid, c.LogLevel))
	}
	if c.GPIO.SpeakerLine < 0 {
		errs = append(errs, fmt.Errorf("%w: gpio.speaker_line must not be negative", ErrInvalid))
	}
	if c.Mic.Line >= 0 && c.GPIO.Chip != "" && c.Mic.Line == c.GPIO.SpeakerLine {
		errs = append(errs, fmt.Errorf("%w: mic.line and gpio.speaker_line are the same line", ErrInvalid))
	}
	if c.Mic.Async && c.Mic.Queue < 1 {
		errs = append(errs, fmt.Errorf("%w: mic.queue must be positive", ErrInvalid))
	}

	switch c.Codec.Backend {
	case BackendNone, BackendLog:
	case BackendNATS:
		if c.NATS.URL == "" {
			errs = append(errs, fmt.Errorf("%w: codec backend nats needs nats.url", ErrInvalid))
		}
	case BackendScript:
		if c.Codec.Script == "" {
			errs = append(errs, fmt.Errorf("%w: codec backend script needs codec.script", ErrInvalid))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown codec backend %q", ErrInvalid, c.Codec.Backend))
	}

	if c.HTTP.Addr == "" && c.NATS.URL == "" {
		errs = append(errs, fmt.Errorf("%w: neither http.addr nor nats.url is set", ErrInvalid))
	}
	return errors.Join(errs...)
}

// getenv returns the value of key, or def when it is unset or empty.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
