package configuration

import "time"

type SensorConfig struct {
	ID      string               `json:"id"`
	HwMon   *HwMonSensorConfig   `json:"hwmon,omitempty"`
	File    *FileSensorConfig    `json:"file,omitempty"`
	Cmd     *CmdSensorConfig     `json:"cmd,omitempty"`
	Disk    *DiskSensorConfig    `json:"disk,omitempty"`
	Virtual *VirtualSensorConfig `json:"virtual,omitempty"`
}

type HwMonSensorConfig struct {
	// Platform is a regex matched against the platform of detected hwmon chips
	Platform string `json:"platform"`
	// Index of the temperature input on the chip, starting at 1
	Index int `json:"index"`
	// TempInput is the resolved temp*_input path, set at startup
	TempInput string `json:"tempInput,omitempty"`
}

// FileSensorConfig reads a value in millidegrees from a file
type FileSensorConfig struct {
	Path string `json:"path"`
}

// CmdSensorConfig executes a command which prints a value in millidegrees
type CmdSensorConfig struct {
	Exec    string        `json:"exec"`
	Args    []string      `json:"args"`
	Timeout time.Duration `json:"timeout,omitempty"`
}

// DiskSensorConfig reads the temperature of a SATA or NVMe drive
type DiskSensorConfig struct {
	// Device is a path like /dev/sda, a name like nvme0n1, or an id from /dev/disk/by-id
	Device string `json:"device"`
}

const (
	FunctionMinimum = "minimum"
	FunctionAverage = "average"
	FunctionMaximum = "maximum"
)

// VirtualSensorConfig combines the values of other sensors
type VirtualSensorConfig struct {
	Function string   `json:"function"`
	Sensors  []string `json:"sensors"`
}

// InputConfig binds a sensor to the thermal limits of the component it measures
type InputConfig struct {
	Sensor    string  `json:"sensor"`
	Target    float64 `json:"target"`
	Critical  float64 `json:"critical"`
	PowerDown float64 `json:"powerDown"`
	// Slew is the maximum rate of change in °C per second
	Slew float64 `json:"slew"`
	// PowerModes in which this input is sampled, all modes if empty
	PowerModes []string `json:"powerModes"`
	// Removable inputs may legitimately be absent
	Removable bool `json:"removable"`
}
