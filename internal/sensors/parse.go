package sensors

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/util"
)

const (
	// reservedRawValue is reported by some chips instead of a reading
	reservedRawValue = 0x7FFF

	minPlausibleTemperature thermal.Celsius = -273.15
	maxPlausibleTemperature thermal.Celsius = 1000
)

// parseMillidegrees decodes the textual output of a sensor in millidegrees Celsius
func parseMillidegrees(text string) (thermal.Celsius, error) {
	text = strings.TrimSpace(text)
	if len(text) <= 0 {
		return 0, thermal.NewSensorReadError(thermal.NoData, nil)
	}
	raw, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, thermal.NewSensorReadError(thermal.CorruptReply, err)
	}
	return fromMillidegrees(raw)
}

func fromMillidegrees(raw float64) (thermal.Celsius, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw == reservedRawValue {
		return 0, thermal.NewSensorReadError(thermal.ReservedValue, fmt.Errorf("raw value %v", raw))
	}
	value := thermal.Celsius(raw / 1000)
	if value < minPlausibleTemperature || value > maxPlausibleTemperature {
		return 0, thermal.NewSensorReadError(thermal.ReservedValue, fmt.Errorf("implausible temperature %.3f°C", value))
	}
	return value, nil
}

// readFailure converts the error of a file or command read into a sensor read error
func readFailure(err error) error {
	if errors.Is(err, util.ErrEmptyFile) {
		return thermal.NewSensorReadError(thermal.NoData, err)
	}
	return thermal.ClassifySystemError(err)
}
