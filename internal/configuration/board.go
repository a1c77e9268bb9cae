package configuration

import "time"

// DefaultPowerMode is used if no power modes are configured
const DefaultPowerMode = "default"

// PowerModeConfig names one bit of the power mode bitmask
type PowerModeConfig struct {
	Name string `json:"name"`
	Bit  int    `json:"bit"`
}

// PowerModeSourceConfig selects how the current power mode is determined.
// At most one of the sub-configurations may be set.
type PowerModeSourceConfig struct {
	// Static lists the power modes which are always active
	Static []string `json:"static,omitempty"`
	// File contains the names of the active power modes, separated by whitespace or commas
	File *FilePowerModeConfig `json:"file,omitempty"`
	// Cmd prints the names of the active power modes
	Cmd *ExecConfig `json:"cmd,omitempty"`
	// Gpio maps input lines to power modes
	Gpio *GpioPowerModeConfig `json:"gpio,omitempty"`
}

func (c PowerModeSourceConfig) IsConfigured() bool {
	return len(c.Static) > 0 || c.File != nil || c.Cmd != nil || c.Gpio != nil
}

type FilePowerModeConfig struct {
	Path string `json:"path"`
}

type GpioPowerModeConfig struct {
	Chip  string           `json:"chip"`
	Lines []GpioModeConfig `json:"lines"`
}

// GpioModeConfig activates Mode while the line at Offset is asserted
type GpioModeConfig struct {
	Offset    int    `json:"offset"`
	Mode      string `json:"mode"`
	ActiveLow bool   `json:"activeLow"`
}

// PowerDownConfig selects how the system is powered down.
// If none is set, powering down only stops the fans.
type PowerDownConfig struct {
	Cmd  *ExecConfig          `json:"cmd,omitempty"`
	File *FilePowerDownConfig `json:"file,omitempty"`
	Gpio *GpioPowerDownConfig `json:"gpio,omitempty"`
}

// FilePowerDownConfig writes Value to Path, e.g. "mem" to /sys/power/state
type FilePowerDownConfig struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

// GpioPowerDownConfig asserts an output line for Pulse, or permanently if Pulse is 0
type GpioPowerDownConfig struct {
	Chip      string        `json:"chip"`
	Offset    int           `json:"offset"`
	ActiveLow bool          `json:"activeLow"`
	Pulse     time.Duration `json:"pulse"`
}
