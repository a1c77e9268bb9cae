//go:build linux

package board

import (
	"fmt"
	"time"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/warthog618/go-gpiocdev"
)

const gpioConsumer = "thermal2go"

// GpioPowerMode activates a power mode for every asserted input line
type GpioPowerMode struct {
	lines *gpiocdev.Lines
	modes []thermal.PowerBitmask
}

func NewGpioPowerMode(config configuration.GpioPowerModeConfig, names map[string]thermal.PowerBitmask) (*GpioPowerMode, error) {
	if len(config.Lines) <= 0 {
		return nil, fmt.Errorf("gpio %s: no lines configured", config.Chip)
	}
	var offsets []int
	var modes []thermal.PowerBitmask
	for _, line := range config.Lines {
		if line.ActiveLow != config.Lines[0].ActiveLow {
			return nil, fmt.Errorf("gpio %s: all lines must have the same polarity", config.Chip)
		}
		offsets = append(offsets, line.Offset)
		modes = append(modes, names[line.Mode])
	}

	options := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithConsumer(gpioConsumer)}
	if config.Lines[0].ActiveLow {
		options = append(options, gpiocdev.AsActiveLow)
	}
	lines, err := gpiocdev.RequestLines(config.Chip, offsets, options...)
	if err != nil {
		return nil, fmt.Errorf("gpio %s: %w", config.Chip, err)
	}
	return &GpioPowerMode{lines: lines, modes: modes}, nil
}

func (s *GpioPowerMode) PowerMode() (thermal.PowerBitmask, error) {
	values := make([]int, len(s.modes))
	if err := s.lines.Values(values); err != nil {
		return 0, err
	}
	var mask thermal.PowerBitmask
	for i, value := range values {
		if value != 0 {
			mask |= s.modes[i]
		}
	}
	return mask, nil
}

func (s *GpioPowerMode) Close() error {
	return s.lines.Close()
}

// GpioPowerDown asserts an output line, e.g. the power button of a BMC
type GpioPowerDown struct {
	Config configuration.GpioPowerDownConfig
}

func (p *GpioPowerDown) PowerDown() error {
	options := []gpiocdev.LineReqOption{gpiocdev.AsOutput(1), gpiocdev.WithConsumer(gpioConsumer)}
	if p.Config.ActiveLow {
		options = append(options, gpiocdev.AsActiveLow)
	}
	line, err := gpiocdev.RequestLine(p.Config.Chip, p.Config.Offset, options...)
	if err != nil {
		return fmt.Errorf("gpio %s: %w", p.Config.Chip, err)
	}
	if p.Config.Pulse <= 0 {
		// keep the line asserted until the system is gone
		return nil
	}
	defer line.Close()
	time.Sleep(p.Config.Pulse)
	return line.SetValue(0)
}
