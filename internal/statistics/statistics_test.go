package statistics

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/fans"
	"github.com/markusressel/thermal2go/internal/telemetry"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestControllerCollector(t *testing.T) {
	// GIVEN
	status := thermal.Status{
		Time:  time.Unix(1_000_000, 0),
		State: thermal.Overheated,
		Pwm:   100,
		Inputs: []thermal.InputStatus{
			{ID: "cpu", Reading: thermal.TemperatureReading{Kind: thermal.ReadingValid}, Projected: 82, Margin: -32},
			{ID: "nvme", Reading: thermal.TemperatureReading{Kind: thermal.ReadingInactive}},
		},
	}
	collector := NewControllerCollector(func() thermal.Status { return status })

	// WHEN
	count := testutil.CollectAndCount(collector)

	// THEN
	// 4 states + pwm + margin + integral + power down + 2 metrics for the valid input
	assert.Equal(t, 10, count)
	expected := `
# HELP thermal2go_controller_state 1 for the current state of the control loop, 0 otherwise
# TYPE thermal2go_controller_state gauge
thermal2go_controller_state{state="Boot"} 0
thermal2go_controller_state{state="Overheated"} 1
thermal2go_controller_state{state="Running"} 0
thermal2go_controller_state{state="Uncontrollable"} 0
`
	assert.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected), "thermal2go_controller_state"))
}

func TestSensorCollector(t *testing.T) {
	// GIVEN
	store := telemetry.NewStore(8, 8)
	_ = store.Post("cpu", 55)
	_ = store.NoData("nvme", thermal.NoDataDeviceNotPresent)
	collector := NewSensorCollector(store)

	// WHEN
	count := testutil.CollectAndCount(collector)

	// THEN
	assert.Equal(t, 3, count)
	expected := `
# HELP thermal2go_sensor_value Current value of the sensor
# TYPE thermal2go_sensor_value gauge
thermal2go_sensor_value{id="cpu"} 55
`
	assert.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected), "thermal2go_sensor_value"))
}

func TestFanCollector(t *testing.T) {
	// GIVEN
	dir := t.TempDir()
	written, _ := fans.NewFan(configuration.FanConfig{ID: "front", File: &configuration.FileFanConfig{Path: filepath.Join(dir, "front")}})
	untouched, _ := fans.NewFan(configuration.FanConfig{ID: "rear", File: &configuration.FileFanConfig{Path: filepath.Join(dir, "rear")}})
	assert.NoError(t, written.SetPwm(40))
	collector := NewFanCollector([]fans.Fan{written, untouched})

	// WHEN
	count := testutil.CollectAndCount(collector)

	// THEN
	assert.Equal(t, 1, count)
}
