//go:build !linux

package board

import (
	"errors"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/thermal"
)

var errGpioUnsupported = errors.New("gpio is only supported on linux")

type GpioPowerMode struct{}

func NewGpioPowerMode(config configuration.GpioPowerModeConfig, names map[string]thermal.PowerBitmask) (*GpioPowerMode, error) {
	return nil, errGpioUnsupported
}

func (s *GpioPowerMode) PowerMode() (thermal.PowerBitmask, error) {
	return 0, errGpioUnsupported
}

func (s *GpioPowerMode) Close() error {
	return nil
}

type GpioPowerDown struct {
	Config configuration.GpioPowerDownConfig
}

func (p *GpioPowerDown) PowerDown() error {
	return errGpioUnsupported
}
