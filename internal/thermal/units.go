package thermal

import (
	"fmt"
	"strings"
	"time"
)

// Celsius is a temperature in degrees Celsius
type Celsius float64

// PWMDuty is a fan duty cycle in percent, valid values are [0..100]
type PWMDuty uint8

const (
	MinPWMDuty PWMDuty = 0
	MaxPWMDuty PWMDuty = 100
)

// Rpm is a measured fan speed
type Rpm uint16

// PowerBitmask has one bit set for every power mode that is currently active
// (or, on an InputChannel, every power mode in which the input is sampled).
type PowerBitmask uint32

func (m PowerBitmask) Intersects(other PowerBitmask) bool {
	return m&other != 0
}

func (m PowerBitmask) String() string {
	return fmt.Sprintf("%#x", uint32(m))
}

// Feature is an optional capability of a FanActuator
type Feature int

const (
	FeatureRpmSensor Feature = iota
	FeatureWatchdog
)

// WatchdogConfig configures the fan controller watchdog, which drives fans
// to full speed if the controller is not serviced in time.
type WatchdogConfig uint8

const (
	WatchdogDisabled WatchdogConfig = iota
	Watchdog5s
	Watchdog10s
	Watchdog30s
)

// Timeout returns the watchdog timeout, or 0 if the watchdog is disabled
func (w WatchdogConfig) Timeout() time.Duration {
	switch w {
	case Watchdog5s:
		return 5 * time.Second
	case Watchdog10s:
		return 10 * time.Second
	case Watchdog30s:
		return 30 * time.Second
	default:
		return 0
	}
}

func (w WatchdogConfig) String() string {
	if w == WatchdogDisabled {
		return "disabled"
	}
	return w.Timeout().String()
}

func (w WatchdogConfig) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *WatchdogConfig) UnmarshalText(text []byte) error {
	parsed, err := ParseWatchdogConfig(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// ParseWatchdogConfig accepts "disabled" (or "off", "") and the supported
// timeouts "5s", "10s" and "30s".
func ParseWatchdogConfig(value string) (WatchdogConfig, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "disabled", "off":
		return WatchdogDisabled, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return WatchdogDisabled, fmt.Errorf("%w: watchdog '%s'", ErrInvalidParameter, value)
	}
	switch d {
	case 5 * time.Second:
		return Watchdog5s, nil
	case 10 * time.Second:
		return Watchdog10s, nil
	case 30 * time.Second:
		return Watchdog30s, nil
	}
	return WatchdogDisabled, fmt.Errorf("%w: unsupported watchdog timeout %s, use one of: 5s | 10s | 30s", ErrInvalidParameter, d)
}
