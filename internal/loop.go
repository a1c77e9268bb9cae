package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/markusressel/thermal2go/internal/api"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/markusressel/thermal2go/internal/util"
)

// ErrLoopStopped is returned for commands submitted after the control loop stopped
var ErrLoopStopped = errors.New("control loop is not running")

type command func(tc *thermal.ThermalControl, now time.Time) error

type commandRequest struct {
	cmd    command
	result chan error
}

// StateChangeListener is called by the control loop goroutine after every state change
type StateChangeListener func(from thermal.State, to thermal.State, status thermal.Status)

// ControlLoop runs a ThermalControl at a fixed tick rate. It is the only
// goroutine that touches the ThermalControl, commands of other goroutines
// are executed between ticks.
type ControlLoop struct {
	tc       *thermal.ThermalControl
	tickRate time.Duration
	now      func() time.Time

	commands chan commandRequest
	done     chan struct{}
	stopOnce sync.Once

	mu     sync.RWMutex
	status thermal.Status

	listeners []StateChangeListener
}

func NewControlLoop(tc *thermal.ThermalControl, tickRate time.Duration) *ControlLoop {
	if tickRate <= 0 {
		tickRate = time.Second
	}
	l := &ControlLoop{
		tc:       tc,
		tickRate: tickRate,
		now:      time.Now,
		commands: make(chan commandRequest),
		done:     make(chan struct{}),
	}
	l.status = tc.Status(l.now())
	return l
}

// OnStateChange registers a listener, must be called before Run
func (l *ControlLoop) OnStateChange(listener StateChangeListener) {
	l.listeners = append(l.listeners, listener)
}

// Run ticks the control loop until ctx is done
func (l *ControlLoop) Run(ctx context.Context) error {
	defer l.stopOnce.Do(func() { close(l.done) })

	ticker := time.NewTicker(l.tickRate)
	defer ticker.Stop()

	ui.Info("Starting control loop with a tick rate of %s", l.tickRate)
	l.tick()
	for {
		select {
		case <-ctx.Done():
			ui.Info("Stopping control loop...")
			return nil
		case <-ticker.C:
			l.tick()
		case req := <-l.commands:
			now := l.now()
			err := req.cmd(l.tc, now)
			l.publish(now)
			req.result <- err
		}
	}
}

func (l *ControlLoop) tick() {
	now := l.now()
	if err := l.tc.RunControl(now); err != nil {
		ui.Warning("Error in control tick: %v", err)
	}
	l.publish(now)
}

func (l *ControlLoop) publish(now time.Time) {
	status := l.tc.Status(now)

	l.mu.Lock()
	previous := l.status.State
	l.status = status
	l.mu.Unlock()

	if previous != status.State {
		for _, listener := range l.listeners {
			listener(previous, status.State, status)
		}
	}
}

// submit executes cmd on the control loop goroutine and waits for its result
func (l *ControlLoop) submit(cmd command) error {
	req := commandRequest{cmd: cmd, result: make(chan error, 1)}
	select {
	case l.commands <- req:
		return <-req.result
	case <-l.done:
		return ErrLoopStopped
	}
}

// Status returns the snapshot taken after the last tick or command
func (l *ControlLoop) Status() thermal.Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

func (l *ControlLoop) SetPid(cfg util.PidConfig) error {
	return l.submit(func(tc *thermal.ThermalControl, now time.Time) error {
		return tc.SetPid(cfg)
	})
}

func (l *ControlLoop) SetMargin(margin thermal.Celsius) error {
	return l.submit(func(tc *thermal.ThermalControl, now time.Time) error {
		return tc.SetMargin(margin)
	})
}

func (l *ControlLoop) Reset() error {
	return l.submit(func(tc *thermal.ThermalControl, now time.Time) error {
		tc.Reset(now)
		return nil
	})
}

// SetPwm overrides the duty of every fan until the next tick
func (l *ControlLoop) SetPwm(duty thermal.PWMDuty) error {
	return l.submit(func(tc *thermal.ThermalControl, now time.Time) error {
		return tc.SetPwm(duty)
	})
}

// SetFanPwm overrides the duty of a single fan until the next tick
func (l *ControlLoop) SetFanPwm(id string, duty thermal.PWMDuty) error {
	return l.submit(func(tc *thermal.ThermalControl, now time.Time) error {
		index, ok := tc.FanIndex(id)
		if !ok {
			return fmt.Errorf("fan '%s': %w", id, api.ErrNotFound)
		}
		return tc.SetFanPwm(index, duty)
	})
}

func (l *ControlLoop) SetWatchdog(wd thermal.WatchdogConfig) error {
	return l.submit(func(tc *thermal.ThermalControl, now time.Time) error {
		return tc.SetWatchdog(wd)
	})
}

var _ api.Controller = (*ControlLoop)(nil)
