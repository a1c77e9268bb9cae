package configuration

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/looplab/tarjan"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/markusressel/thermal2go/internal/util"
	"golang.org/x/exp/slices"
)

func Validate(configPath string) error {
	return validateConfig(&CurrentConfig, configPath)
}

func validateConfig(config *Configuration, path string) error {
	if config.ControlTickRate < 0 {
		return errors.New("controlTickRate must be positive")
	}
	if config.OverheatTimeout < 0 {
		return errors.New("overheatTimeout must be positive")
	}
	if config.OverheatHysteresis < 0 || math.IsNaN(config.OverheatHysteresis) || math.IsInf(config.OverheatHysteresis, 0) {
		return errors.New("overheatHysteresis must be a finite value >= 0")
	}
	if err := config.Pid.ToPidConfig().Validate(); err != nil {
		return fmt.Errorf("pid: %w, p must be > 0, i and d must be >= 0", err)
	}

	err := validatePowerModes(config)
	if err != nil {
		return err
	}
	err = validateSensors(config)
	if err != nil {
		return err
	}
	err = validateInputs(config)
	if err != nil {
		return err
	}
	err = validateMiscSensors(config)
	if err != nil {
		return err
	}
	err = validateFans(config)
	if err != nil {
		return err
	}

	if containsCommands(config) && len(path) > 0 {
		if _, err := util.CheckFilePermissionsForExecution(path); err != nil {
			return fmt.Errorf("config file '%s' has invalid permissions: %s", path, err)
		}
	}

	return nil
}

// containsCommands reports whether any part of the config executes commands,
// in which case the config file itself must not be writable by others.
func containsCommands(config *Configuration) bool {
	for _, sensorConfig := range config.Sensors {
		if sensorConfig.Cmd != nil {
			return true
		}
	}
	for _, fanConfig := range config.Fans {
		if fanConfig.Cmd != nil {
			return true
		}
	}
	return config.PowerMode.Cmd != nil || config.PowerDown.Cmd != nil
}

func validatePowerModes(config *Configuration) error {
	var names []string
	var bits []int
	for _, mode := range config.PowerModes {
		if len(mode.Name) <= 0 {
			return errors.New("power mode: missing name")
		}
		if mode.Bit < 0 || mode.Bit > 31 {
			return fmt.Errorf("power mode %s: bit must be in range [0..31]", mode.Name)
		}
		if slices.Contains(names, mode.Name) {
			return fmt.Errorf("duplicate power mode name detected: %s", mode.Name)
		}
		if slices.Contains(bits, mode.Bit) {
			return fmt.Errorf("power mode %s: bit %d is already used", mode.Name, mode.Bit)
		}
		names = append(names, mode.Name)
		bits = append(bits, mode.Bit)
	}

	source := config.PowerMode
	subConfigs := 0
	if len(source.Static) > 0 {
		subConfigs++
	}
	if source.File != nil {
		subConfigs++
	}
	if source.Cmd != nil {
		subConfigs++
	}
	if source.Gpio != nil {
		subConfigs++
	}
	if subConfigs > 1 {
		return errors.New("powerMode: only one power mode source can be used, use one of: static | file | cmd | gpio")
	}
	for _, name := range source.Static {
		if !slices.Contains(names, name) {
			return fmt.Errorf("powerMode: no power mode with name '%s' found", name)
		}
	}
	if source.File != nil && len(source.File.Path) <= 0 {
		return errors.New("powerMode: missing file path")
	}
	if source.Cmd != nil && len(source.Cmd.Exec) <= 0 {
		return errors.New("powerMode: missing exec")
	}
	if source.Gpio != nil {
		if len(source.Gpio.Chip) <= 0 {
			return errors.New("powerMode: missing gpio chip")
		}
		for _, line := range source.Gpio.Lines {
			if !slices.Contains(names, line.Mode) {
				return fmt.Errorf("powerMode: gpio line %d: no power mode with name '%s' found", line.Offset, line.Mode)
			}
		}
	}

	powerDown := config.PowerDown
	subConfigs = 0
	if powerDown.Cmd != nil {
		subConfigs++
	}
	if powerDown.File != nil {
		subConfigs++
	}
	if powerDown.Gpio != nil {
		subConfigs++
	}
	if subConfigs > 1 {
		return errors.New("powerDown: only one power down method can be used, use one of: cmd | file | gpio")
	}
	if subConfigs == 0 {
		ui.Warning("No powerDown method configured, powering down will only stop the fans")
	}

	return nil
}

func validateSensors(config *Configuration) error {
	graph := make(map[interface{}][]interface{})
	var ids []string

	for _, sensorConfig := range config.Sensors {
		if len(sensorConfig.ID) <= 0 {
			return errors.New("sensor: missing id")
		}
		if slices.Contains(ids, sensorConfig.ID) {
			return fmt.Errorf("duplicate sensor id detected: %s", sensorConfig.ID)
		}
		ids = append(ids, sensorConfig.ID)

		subConfigs := 0
		if sensorConfig.HwMon != nil {
			subConfigs++
		}
		if sensorConfig.File != nil {
			subConfigs++
		}
		if sensorConfig.Cmd != nil {
			subConfigs++
		}
		if sensorConfig.Disk != nil {
			subConfigs++
		}
		if sensorConfig.Virtual != nil {
			subConfigs++
		}
		if subConfigs > 1 {
			return fmt.Errorf("sensor %s: only one sensor type can be used per sensor definition block", sensorConfig.ID)
		}
		if subConfigs <= 0 {
			return fmt.Errorf("sensor %s: sub-configuration for sensor is missing, use one of: hwmon | file | cmd | disk | virtual", sensorConfig.ID)
		}

		if !isSensorConfigInUse(sensorConfig, config) {
			ui.Warning("Unused sensor configuration: %s", sensorConfig.ID)
		}

		if sensorConfig.HwMon != nil && sensorConfig.HwMon.Index <= 0 {
			return fmt.Errorf("sensor %s: invalid index, must be >= 1", sensorConfig.ID)
		}
		if sensorConfig.File != nil && len(sensorConfig.File.Path) <= 0 {
			return fmt.Errorf("sensor %s: missing file path", sensorConfig.ID)
		}
		if sensorConfig.Cmd != nil && len(sensorConfig.Cmd.Exec) <= 0 {
			return fmt.Errorf("sensor %s: missing exec", sensorConfig.ID)
		}
		if sensorConfig.Disk != nil && len(sensorConfig.Disk.Device) <= 0 {
			return fmt.Errorf("sensor %s: missing disk device", sensorConfig.ID)
		}

		if virtual := sensorConfig.Virtual; virtual != nil {
			supportedFunctions := []string{FunctionMinimum, FunctionAverage, FunctionMaximum}
			if !slices.Contains(supportedFunctions, virtual.Function) {
				return fmt.Errorf("sensor %s: unsupported function type '%s', use one of: %s", sensorConfig.ID, virtual.Function, strings.Join(supportedFunctions, " | "))
			}
			if len(virtual.Sensors) <= 0 {
				return fmt.Errorf("sensor %s: virtual sensor needs at least one sensor", sensorConfig.ID)
			}

			var connections []interface{}
			for _, sensor := range virtual.Sensors {
				if sensor == sensorConfig.ID {
					return fmt.Errorf("sensor %s: a sensor cannot reference itself", sensorConfig.ID)
				}
				if !sensorIdExists(sensor, config) {
					return fmt.Errorf("sensor %s: no sensor definition with id '%s' found", sensorConfig.ID, sensor)
				}
				connections = append(connections, sensor)
			}
			graph[sensorConfig.ID] = connections
		}
	}

	output := tarjan.Connections(graph)
	for _, items := range output {
		if len(items) > 1 {
			return fmt.Errorf("you have created a cycle with the following virtual sensors: %s", items)
		}
	}

	return nil
}

func isSensorConfigInUse(sensorConfig SensorConfig, config *Configuration) bool {
	for _, input := range config.Inputs {
		if input.Sensor == sensorConfig.ID {
			return true
		}
	}
	if slices.Contains(config.MiscSensors, sensorConfig.ID) {
		return true
	}
	for _, other := range config.Sensors {
		if other.Virtual != nil && slices.Contains(other.Virtual.Sensors, sensorConfig.ID) {
			return true
		}
	}
	return false
}

func sensorIdExists(id string, config *Configuration) bool {
	for _, sensor := range config.Sensors {
		if sensor.ID == id {
			return true
		}
	}
	return false
}

func validateInputs(config *Configuration) error {
	var sensors []string
	for i, input := range config.Inputs {
		if len(input.Sensor) <= 0 {
			return fmt.Errorf("input %d: missing sensor", i)
		}
		if !sensorIdExists(input.Sensor, config) {
			return fmt.Errorf("input %d: no sensor definition with id '%s' found", i, input.Sensor)
		}
		if slices.Contains(sensors, input.Sensor) {
			return fmt.Errorf("input %d: sensor %s is already used by another input", i, input.Sensor)
		}
		sensors = append(sensors, input.Sensor)

		if _, err := input.ThermalProperties(); err != nil {
			return fmt.Errorf("input %s: %w", input.Sensor, err)
		}

		for _, mode := range input.PowerModes {
			if !slices.ContainsFunc(config.PowerModes, func(it PowerModeConfig) bool { return it.Name == mode }) {
				return fmt.Errorf("input %s: no power mode with name '%s' found", input.Sensor, mode)
			}
		}
	}

	if len(config.Inputs) <= 0 {
		ui.Warning("No inputs configured, fans will be controlled by the zero bias only")
	}

	return nil
}

func validateMiscSensors(config *Configuration) error {
	for _, id := range config.MiscSensors {
		if !sensorIdExists(id, config) {
			return fmt.Errorf("miscSensors: no sensor definition with id '%s' found", id)
		}
	}
	return nil
}

func validateFans(config *Configuration) error {
	if len(config.Fans) <= 0 {
		return errors.New("at least one fan is required")
	}

	var ids []string
	for _, fanConfig := range config.Fans {
		if len(fanConfig.ID) <= 0 {
			return errors.New("fan: missing id")
		}
		if slices.Contains(ids, fanConfig.ID) {
			return fmt.Errorf("duplicate fan id detected: %s", fanConfig.ID)
		}
		ids = append(ids, fanConfig.ID)

		subConfigs := 0
		if fanConfig.HwMon != nil {
			subConfigs++
		}
		if fanConfig.File != nil {
			subConfigs++
		}
		if fanConfig.Cmd != nil {
			subConfigs++
		}
		if subConfigs > 1 {
			return fmt.Errorf("fan %s: only one fan type can be used per fan definition block", fanConfig.ID)
		}
		if subConfigs <= 0 {
			return fmt.Errorf("fan %s: sub-configuration for fan is missing, use one of: hwmon | file | cmd", fanConfig.ID)
		}

		if fanConfig.HwMon != nil && fanConfig.HwMon.Index <= 0 {
			return fmt.Errorf("fan %s: invalid index, must be >= 1", fanConfig.ID)
		}
		if fanConfig.File != nil && len(fanConfig.File.Path) <= 0 {
			return fmt.Errorf("fan %s: missing file path", fanConfig.ID)
		}
		if fanConfig.Cmd != nil {
			if fanConfig.Cmd.SetPwm == nil || len(fanConfig.Cmd.SetPwm.Exec) <= 0 {
				return fmt.Errorf("fan %s: missing setPwm exec", fanConfig.ID)
			}
		}
	}

	return nil
}

// ThermalProperties converts the limits of this input
func (c InputConfig) ThermalProperties() (thermal.ThermalProperties, error) {
	return thermal.NewThermalProperties(
		thermal.Celsius(c.Target),
		thermal.Celsius(c.Critical),
		thermal.Celsius(c.PowerDown),
		c.Slew,
	)
}

// PowerModeMask returns the bitmask of the given power mode names,
// or every configured power mode if names is empty.
func (c *Configuration) PowerModeMask(names []string) (thermal.PowerBitmask, error) {
	var mask thermal.PowerBitmask
	for _, mode := range c.PowerModes {
		if len(names) <= 0 || slices.Contains(names, mode.Name) {
			mask |= 1 << mode.Bit
		}
	}
	for _, name := range names {
		if !slices.ContainsFunc(c.PowerModes, func(it PowerModeConfig) bool { return it.Name == name }) {
			return 0, fmt.Errorf("no power mode with name '%s' found", name)
		}
	}
	return mask, nil
}
