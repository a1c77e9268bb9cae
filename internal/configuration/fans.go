package configuration

import "time"

type FanConfig struct {
	ID    string          `json:"id"`
	HwMon *HwMonFanConfig `json:"hwmon,omitempty"`
	File  *FileFanConfig  `json:"file,omitempty"`
	Cmd   *CmdFanConfig   `json:"cmd,omitempty"`
}

type HwMonFanConfig struct {
	Platform string `json:"platform"`
	// Index of the pwm output on the chip, starting at 1
	Index int `json:"index"`
	// resolved at startup
	PwmOutput string `json:"pwmOutput,omitempty"`
	RpmInput  string `json:"rpmInput,omitempty"`
}

// FileFanConfig writes the raw pwm value [0..255] to Path
type FileFanConfig struct {
	Path string `json:"path"`
	// RpmPath is optional, if set the fan supports RPM readings
	RpmPath string `json:"rpmPath,omitempty"`
	// WatchdogPath is optional, the watchdog timeout in seconds (0 = disabled) is written to it
	WatchdogPath string `json:"watchdogPath,omitempty"`
}

type ExecConfig struct {
	Exec    string        `json:"exec"`
	Args    []string      `json:"args"`
	Timeout time.Duration `json:"timeout,omitempty"`
}

// CmdFanConfig executes commands to control a fan.
// The placeholder %pwm% in the SetPwm arguments is replaced with the duty [0..100],
// %seconds% in the SetWatchdog arguments with the watchdog timeout.
type CmdFanConfig struct {
	SetPwm      *ExecConfig `json:"setPwm,omitempty"`
	GetRpm      *ExecConfig `json:"getRpm,omitempty"`
	SetWatchdog *ExecConfig `json:"setWatchdog,omitempty"`
}
