package configuration

import (
	"os"
	"time"

	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Configuration struct {
	DbPath string `json:"dbPath"`

	// ControlTickRate is the interval in which the control loop runs
	ControlTickRate time.Duration `json:"controlTickRate"`

	OverheatTimeout    time.Duration `json:"overheatTimeout"`
	OverheatHysteresis float64       `json:"overheatHysteresis"`

	Pid      PidConfig              `json:"pid"`
	Watchdog thermal.WatchdogConfig `json:"watchdog"`

	PowerModes []PowerModeConfig     `json:"powerModes"`
	PowerMode  PowerModeSourceConfig `json:"powerMode"`
	PowerDown  PowerDownConfig       `json:"powerDown"`

	Sensors     []SensorConfig `json:"sensors"`
	Inputs      []InputConfig  `json:"inputs"`
	MiscSensors []string       `json:"miscSensors"`
	Fans        []FanConfig    `json:"fans"`

	Api        ApiConfig        `json:"api"`
	Statistics StatisticsConfig `json:"statistics"`
	Profiling  ProfilingConfig  `json:"profiling"`
	Telemetry  TelemetryConfig  `json:"telemetry"`

	// Notifications sends a desktop notification on every state change
	Notifications bool `json:"notifications"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("thermal2go")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/thermal2go/")
	}

	viper.SetEnvPrefix("THERMAL2GO")
	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("dbPath", "/etc/thermal2go/thermal2go.db")
	viper.SetDefault("controlTickRate", time.Second)
	viper.SetDefault("overheatTimeout", 60*time.Second)
	viper.SetDefault("overheatHysteresis", 1.0)

	viper.SetDefault("pid.zero", 0.0)
	viper.SetDefault("pid.p", 1.0)
	viper.SetDefault("pid.i", 0.0)
	viper.SetDefault("pid.d", 0.0)
	viper.SetDefault("watchdog", "disabled")

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.host", "localhost")
	viper.SetDefault("api.port", 9001)

	viper.SetDefault("statistics.enabled", false)
	viper.SetDefault("statistics.port", 9000)

	viper.SetDefault("profiling.enabled", false)
	viper.SetDefault("profiling.host", "localhost")
	viper.SetDefault("profiling.port", 6060)

	viper.SetDefault("telemetry.traceSize", 256)
	viper.SetDefault("telemetry.historySize", 300)
	viper.SetDefault("telemetry.maxTransitions", 1000)

	viper.SetDefault("notifications", false)

	viper.SetDefault("sensors", []SensorConfig{})
	viper.SetDefault("inputs", []InputConfig{})
	viper.SetDefault("fans", []FanConfig{})
}

// DetectAndReadConfigFile reads the configuration file found by viper and
// returns its path.
func DetectAndReadConfigFile() (string, error) {
	if err := viper.ReadInConfig(); err != nil {
		return "", err
	}
	// this is only populated _after_ ReadInConfig()
	return viper.ConfigFileUsed(), nil
}

// ReadConfigFile reads, decodes and validates the configuration file.
// Any problem is fatal.
func ReadConfigFile() {
	configPath, err := DetectAndReadConfigFile()
	if err != nil {
		// config file is required, so we fail here
		ui.Fatal("Error reading config file, %s", err)
	}
	ui.Info("Using configuration file at: %s", configPath)

	LoadConfig()
	if err := Validate(configPath); err != nil {
		ui.Fatal("Validation failed: %v", err)
	}
}

func LoadConfig() {
	if err := Unmarshal(viper.GetViper(), &CurrentConfig); err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
	CurrentConfig.applyDefaults()
}

// Unmarshal decodes the viper state into config, using the decode hooks
// for durations, watchdog values and string lists.
func Unmarshal(v *viper.Viper, config *Configuration) error {
	return v.Unmarshal(config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			WatchdogHookFunc(),
		),
	))
}

// applyDefaults fills in the power modes of a configuration that does not
// use them: a single mode which is always active and covers every input.
func (c *Configuration) applyDefaults() {
	if len(c.PowerModes) == 0 {
		c.PowerModes = []PowerModeConfig{{Name: DefaultPowerMode, Bit: 0}}
	}
	if !c.PowerMode.IsConfigured() {
		c.PowerMode.Static = make([]string, 0, len(c.PowerModes))
		for _, mode := range c.PowerModes {
			c.PowerMode.Static = append(c.PowerMode.Static, mode.Name)
		}
	}
}
