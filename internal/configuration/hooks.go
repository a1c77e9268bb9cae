package configuration

import (
	"reflect"

	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/mitchellh/mapstructure"
)

// WatchdogHookFunc returns a mapstructure decode hook that parses
// watchdog values like "disabled" or "10s".
func WatchdogHookFunc() mapstructure.DecodeHookFuncType {
	watchdogType := reflect.TypeOf(thermal.WatchdogDisabled)

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != watchdogType || f.Kind() != reflect.String {
			return data, nil
		}
		return thermal.ParseWatchdogConfig(data.(string))
	}
}
