package config

import (
	"testing"
	"time"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/stretchr/testify/assert"
)

func TestToYaml(t *testing.T) {
	// GIVEN
	config := configuration.Configuration{
		DbPath:          "/tmp/thermal2go.db",
		ControlTickRate: time.Second,
		Inputs: []configuration.InputConfig{
			{Sensor: "cpu", Target: 50, Critical: 80, PowerDown: 95},
		},
	}

	// WHEN
	out, err := toYaml(config)

	// THEN
	assert.NoError(t, err)
	assert.Contains(t, out, "dbPath: /tmp/thermal2go.db")
	assert.Contains(t, out, "watchdog: disabled")
	assert.Contains(t, out, "sensor: cpu")
}

func TestInputTable(t *testing.T) {
	// GIVEN
	config := configuration.Configuration{
		Inputs: []configuration.InputConfig{
			{Sensor: "cpu", Target: 50, Critical: 80, PowerDown: 95, Slew: 1},
			{Sensor: "nvme", Target: 60, Critical: 75, PowerDown: 85, PowerModes: []string{"a0", "a2"}, Removable: true},
		},
	}

	// WHEN
	result := inputTable(config)

	// THEN
	assert.Len(t, result.Rows, 2)
	assert.Equal(t, "all", result.Rows[0][5])
	assert.Equal(t, "a0, a2", result.Rows[1][5])
	assert.Equal(t, "true", result.Rows[1][6])
}
