package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/ui"
)

// Recorder persists the state transitions found in the trace records of the
// control loop. Records are queued and written by Run, so the control loop
// never blocks on the database.
type Recorder struct {
	persistence Persistence
	session     uuid.UUID
	queue       chan Transition

	state     thermal.State
	powerMode thermal.PowerBitmask
}

func NewRecorder(persistence Persistence, session uuid.UUID) *Recorder {
	return &Recorder{
		persistence: persistence,
		session:     session,
		queue:       make(chan Transition, 64),
		state:       thermal.Boot,
	}
}

// OnTrace must be called from a single goroutine
func (r *Recorder) OnTrace(rec thermal.TraceRecord) {
	switch rec.Kind {
	case thermal.TracePowerModeChanged:
		r.powerMode = rec.PowerMode
	case thermal.TraceAutoState:
		if rec.State == r.state {
			return
		}
		transition := Transition{
			Session:   r.session,
			Time:      rec.Time,
			From:      r.state,
			To:        rec.State,
			PowerMode: r.powerMode,
		}
		r.state = rec.State
		select {
		case r.queue <- transition:
		default:
			ui.Warning("Transition queue is full, dropping %s -> %s", transition.From, transition.To)
		}
	}
}

// Run writes queued transitions until ctx is done
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return nil
		case transition := <-r.queue:
			r.save(transition)
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case transition := <-r.queue:
			r.save(transition)
		default:
			return
		}
	}
}

func (r *Recorder) save(transition Transition) {
	if err := r.persistence.SaveTransition(transition); err != nil {
		ui.Error("Unable to persist transition %s -> %s: %v", transition.From, transition.To, err)
	}
}
