package board

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/markusressel/thermal2go/internal/util"
)

// PowerModeSource determines the currently active power modes
type PowerModeSource interface {
	PowerMode() (thermal.PowerBitmask, error)
}

// PowerDownMethod powers down the system
type PowerDownMethod interface {
	PowerDown() error
}

// Board implements thermal.Board on top of a configurable power mode source
// and power down method.
type Board struct {
	modes     PowerModeSource
	powerDown PowerDownMethod

	mu   sync.Mutex
	last thermal.PowerBitmask
}

func NewBoard(modes PowerModeSource, powerDown PowerDownMethod) *Board {
	return &Board{modes: modes, powerDown: powerDown}
}

// FromConfig creates the board described by the given configuration
func FromConfig(config *configuration.Configuration) (*Board, error) {
	names := map[string]thermal.PowerBitmask{}
	for _, mode := range config.PowerModes {
		names[mode.Name] = thermal.PowerBitmask(1) << mode.Bit
	}

	var modes PowerModeSource
	source := config.PowerMode
	switch {
	case source.File != nil:
		modes = &FilePowerMode{Path: source.File.Path, Modes: names}
	case source.Cmd != nil:
		modes = &CmdPowerMode{Exec: *source.Cmd, Modes: names}
	case source.Gpio != nil:
		gpio, err := NewGpioPowerMode(*source.Gpio, names)
		if err != nil {
			return nil, err
		}
		modes = gpio
	default:
		mask, err := parsePowerModes(strings.Join(source.Static, ","), names)
		if err != nil {
			return nil, err
		}
		modes = StaticPowerMode(mask)
	}

	var powerDown PowerDownMethod = NoPowerDown{}
	switch {
	case config.PowerDown.Cmd != nil:
		powerDown = &CmdPowerDown{Exec: *config.PowerDown.Cmd}
	case config.PowerDown.File != nil:
		powerDown = &FilePowerDown{Path: config.PowerDown.File.Path, Value: config.PowerDown.File.Value}
	case config.PowerDown.Gpio != nil:
		powerDown = &GpioPowerDown{Config: *config.PowerDown.Gpio}
	}

	return NewBoard(modes, powerDown), nil
}

// PowerMode returns the active power modes. If the source fails, the last
// successfully read mask is returned.
func (b *Board) PowerMode() thermal.PowerBitmask {
	mask, err := b.modes.PowerMode()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		ui.Warning("Unable to read power mode, keeping %s: %v", b.last, err)
		return b.last
	}
	b.last = mask
	return mask
}

func (b *Board) PowerDown() error {
	ui.Warning("Powering down the system")
	return b.powerDown.PowerDown()
}

// parsePowerModes converts a list of power mode names, separated by
// whitespace or commas, to a bitmask
func parsePowerModes(text string, names map[string]thermal.PowerBitmask) (thermal.PowerBitmask, error) {
	var mask thermal.PowerBitmask
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	for _, field := range fields {
		bit, ok := names[field]
		if !ok {
			return 0, fmt.Errorf("unknown power mode '%s'", field)
		}
		mask |= bit
	}
	return mask, nil
}

// StaticPowerMode always reports the same power modes
type StaticPowerMode thermal.PowerBitmask

func (s StaticPowerMode) PowerMode() (thermal.PowerBitmask, error) {
	return thermal.PowerBitmask(s), nil
}

// FilePowerMode reads the names of the active power modes from a file
type FilePowerMode struct {
	Path  string
	Modes map[string]thermal.PowerBitmask
}

func (s *FilePowerMode) PowerMode() (thermal.PowerBitmask, error) {
	path, err := util.ExpandPath(s.Path)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return parsePowerModes(string(data), s.Modes)
}

// CmdPowerMode executes a command which prints the names of the active power modes
type CmdPowerMode struct {
	Exec  configuration.ExecConfig
	Modes map[string]thermal.PowerBitmask
}

func (s *CmdPowerMode) PowerMode() (thermal.PowerBitmask, error) {
	output, err := util.SafeCmdExecution(s.Exec.Exec, s.Exec.Args, s.Exec.Timeout)
	if err != nil {
		return 0, err
	}
	return parsePowerModes(output, s.Modes)
}

// NoPowerDown does nothing, the fans are still stopped by the control loop
type NoPowerDown struct{}

func (NoPowerDown) PowerDown() error {
	return nil
}

type CmdPowerDown struct {
	Exec configuration.ExecConfig
}

func (p *CmdPowerDown) PowerDown() error {
	_, err := util.SafeCmdExecution(p.Exec.Exec, p.Exec.Args, p.Exec.Timeout)
	return err
}

// FilePowerDown writes a value to a file, e.g. "poweroff" to a BMC attribute
type FilePowerDown struct {
	Path  string
	Value string
}

func (p *FilePowerDown) PowerDown() error {
	return os.WriteFile(p.Path, []byte(p.Value), 0644)
}
