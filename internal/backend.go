package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/markusressel/thermal2go/internal/api"
	"github.com/markusressel/thermal2go/internal/board"
	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/fans"
	"github.com/markusressel/thermal2go/internal/hwmon"
	"github.com/markusressel/thermal2go/internal/persistence"
	"github.com/markusressel/thermal2go/internal/sensors"
	"github.com/markusressel/thermal2go/internal/statistics"
	"github.com/markusressel/thermal2go/internal/telemetry"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Devices are the sensors, fans and board created from the configuration
type Devices struct {
	Sensors map[string]sensors.Sensor
	Fans    []fans.Fan
	Board   *board.Board
}

func RunDaemon() {
	if getProcessOwner() != "root" {
		ui.Fatal("Thermal control requires root permissions to be able to modify fan speeds, please run thermal2go as root")
	}

	config := &configuration.CurrentConfig

	devices, err := InitializeDevices(config)
	if err != nil {
		ui.Fatal("Unable to initialize devices: %v", err)
	}

	pers := persistence.NewPersistence(config.DbPath, config.Telemetry.MaxTransitions)
	if err := pers.Init(); err != nil {
		ui.Fatal("Unable to open database %s: %v", config.DbPath, err)
	}

	session := uuid.New()
	ui.Info("Starting session %s", session)

	store := telemetry.NewStore(config.Telemetry.TraceSize, config.Telemetry.HistorySize)
	recorder := persistence.NewRecorder(pers, session)
	store.AddTraceListener(recorder.OnTrace)

	tc, err := NewThermalControl(config, SourcesOf(devices.Sensors), ActuatorsOf(devices.Fans), devices.Board, store)
	if err != nil {
		ui.Fatal("Unable to create thermal control: %v", err)
	}
	if err := tc.SetWatchdog(config.Watchdog); err != nil {
		ui.Warning("Unable to enable watchdog %s: %v", config.Watchdog, err)
	}

	loop := NewControlLoop(tc, config.ControlTickRate)
	if config.Notifications {
		loop.OnStateChange(notifyStateChange)
	}

	statistics.Register(statistics.NewControllerCollector(loop.Status))
	statistics.Register(statistics.NewSensorCollector(store))
	statistics.Register(statistics.NewFanCollector(devices.Fans))

	ctx, cancel := context.WithCancel(context.Background())

	var g run.Group
	{
		// === control loop
		g.Add(func() error {
			err := loop.Run(ctx)
			ui.Info("Control loop stopped.")
			return err
		}, func(err error) {
			cancel()
		})
	}
	{
		// === transition history
		g.Add(func() error {
			return recorder.Run(ctx)
		}, func(err error) {
			cancel()
		})
	}
	if config.Statistics.Enabled {
		// === Prometheus Exporter
		port := config.Statistics.Port
		if port <= 0 || port >= 65535 {
			port = 9000
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

		g.Add(func() error {
			ui.Info("Serving metrics on %s/metrics", server.Addr)
			return ignoreServerClosed(server.ListenAndServe())
		}, func(err error) {
			ui.Info("Stopping statistics server...")
			shutdownServer(server.Shutdown, "statistics")
		})
	}
	if config.Api.Enabled {
		// === REST api
		rest := api.CreateRestService(loop, store, pers, prometheus.DefaultRegisterer)
		addr := fmt.Sprintf("%s:%d", config.Api.Host, config.Api.Port)

		g.Add(func() error {
			ui.Info("Serving REST api on %s", addr)
			return ignoreServerClosed(rest.Start(addr))
		}, func(err error) {
			ui.Info("Stopping REST api...")
			shutdownServer(rest.Shutdown, "api")
		})
	}
	if config.Profiling.Enabled {
		// === pprof endpoints
		server := &http.Server{
			Addr:    fmt.Sprintf("%s:%d", config.Profiling.Host, config.Profiling.Port),
			Handler: profilingHandler(),
		}

		g.Add(func() error {
			ui.Info("Serving pprof on %s/debug/pprof/", server.Addr)
			return ignoreServerClosed(server.ListenAndServe())
		}, func(err error) {
			shutdownServer(server.Shutdown, "profiling")
		})
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			select {
			case <-sig:
				ui.Info("Received SIGTERM signal, exiting...")
			case <-ctx.Done():
			}
			return nil
		}, func(err error) {
			signal.Stop(sig)
			cancel()
		})
	}

	err = g.Run()
	restoreFans(devices.Fans)

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	} else {
		ui.Info("Done.")
		os.Exit(0)
	}
}

// InitializeDevices resolves the hwmon paths of the configuration and creates
// all sensors, fans and the board.
func InitializeDevices(config *configuration.Configuration) (Devices, error) {
	if usesHwMon(config) {
		controllers := hwmon.GetChips()
		for i := range config.Sensors {
			if config.Sensors[i].HwMon == nil {
				continue
			}
			if err := hwmon.UpdateSensorConfigFromHwMonControllers(controllers, &config.Sensors[i]); err != nil {
				return Devices{}, fmt.Errorf("%w. Run 'thermal2go detect' again and correct any mistake", err)
			}
		}
		for i := range config.Fans {
			if config.Fans[i].HwMon == nil {
				continue
			}
			if err := hwmon.UpdateFanConfigFromHwMonControllers(controllers, &config.Fans[i]); err != nil {
				return Devices{}, fmt.Errorf("%w. Run 'thermal2go detect' again and correct any mistake", err)
			}
		}
	}

	sensorMap, err := sensors.NewSensors(config.Sensors)
	if err != nil {
		return Devices{}, err
	}
	fanList, err := fans.NewFans(config.Fans)
	if err != nil {
		return Devices{}, err
	}
	b, err := board.FromConfig(config)
	if err != nil {
		return Devices{}, err
	}

	return Devices{
		Sensors: sensorMap,
		Fans:    fanList,
		Board:   b,
	}, nil
}

func usesHwMon(config *configuration.Configuration) bool {
	for _, sensor := range config.Sensors {
		if sensor.HwMon != nil {
			return true
		}
	}
	for _, fan := range config.Fans {
		if fan.HwMon != nil {
			return true
		}
	}
	return false
}

// SourcesOf returns the temperature sources of the given sensors, by id
func SourcesOf(sensorMap map[string]sensors.Sensor) map[string]thermal.TemperatureSource {
	result := make(map[string]thermal.TemperatureSource, len(sensorMap))
	for id, sensor := range sensorMap {
		result[id] = sensor
	}
	return result
}

// ActuatorsOf binds the given fans to their ids, keeping their order
func ActuatorsOf(fanList []fans.Fan) []thermal.Fan {
	result := make([]thermal.Fan, 0, len(fanList))
	for _, fan := range fanList {
		result = append(result, thermal.Fan{ID: fan.GetId(), Actuator: fan})
	}
	return result
}

// NewThermalControl binds the configured inputs, misc sensors and fans
// to a new ThermalControl.
func NewThermalControl(
	config *configuration.Configuration,
	sources map[string]thermal.TemperatureSource,
	fanList []thermal.Fan,
	b thermal.Board,
	tel thermal.Telemetry,
) (*thermal.ThermalControl, error) {
	sensorOf := func(id string) (thermal.TemperatureSensor, error) {
		source, ok := sources[id]
		if !ok {
			return thermal.TemperatureSensor{}, fmt.Errorf("no sensor with id '%s' found", id)
		}
		return thermal.TemperatureSensor{ID: id, Source: source}, nil
	}

	var inputs []thermal.InputChannel
	for _, input := range config.Inputs {
		sensor, err := sensorOf(input.Sensor)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", input.Sensor, err)
		}
		properties, err := input.ThermalProperties()
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", input.Sensor, err)
		}
		mask, err := config.PowerModeMask(input.PowerModes)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", input.Sensor, err)
		}
		inputs = append(inputs, thermal.InputChannel{
			Sensor:        sensor,
			Properties:    properties,
			PowerModeMask: mask,
			Removable:     input.Removable,
		})
	}

	var misc []thermal.TemperatureSensor
	for _, id := range config.MiscSensors {
		sensor, err := sensorOf(id)
		if err != nil {
			return nil, fmt.Errorf("misc sensor: %w", err)
		}
		misc = append(misc, sensor)
	}

	return thermal.New(thermal.Config{
		Inputs:             inputs,
		MiscSensors:        misc,
		Fans:               fanList,
		DefaultPid:         config.Pid.ToPidConfig(),
		OverheatHysteresis: thermal.Celsius(config.OverheatHysteresis),
		OverheatTimeout:    config.OverheatTimeout,
	}, b, tel)
}

func notifyStateChange(from thermal.State, to thermal.State, status thermal.Status) {
	text := fmt.Sprintf("%s -> %s, fans at %d%%", from, to, status.Pwm)
	switch to {
	case thermal.Uncontrollable:
		ui.ErrorAndNotify("Thermal control", "%s, powering down", text)
	case thermal.Overheated:
		ui.WarningAndNotify("Thermal control", "%s", text)
	default:
		ui.NotifyInfo("Thermal control", text)
	}
}

// restoreFans hands every fan back to its original control mode
func restoreFans(fanList []fans.Fan) {
	for _, fan := range fanList {
		if err := fan.Restore(); err != nil {
			ui.Warning("Unable to restore fan %s: %v", fan.GetId(), err)
		}
	}
}

func profilingHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

func ignoreServerClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func shutdownServer(shutdown func(ctx context.Context) error, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		ui.Warning("Error stopping %s server: %v", name, err)
	}
}

func getProcessOwner() string {
	stdout, err := exec.Command("ps", "-o", "user=", "-p", strconv.Itoa(os.Getpid())).Output()
	if err != nil {
		ui.Fatal("Error checking process owner: %v", err)
		os.Exit(1)
	}
	return strings.TrimSpace(string(stdout))
}
