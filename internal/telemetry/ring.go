package telemetry

import "github.com/markusressel/thermal2go/internal/thermal"

// Ring is a fixed capacity buffer of trace records which overwrites the oldest record when full
type Ring struct {
	records []thermal.TraceRecord
	next    int
	full    bool
}

func NewRing(capacity int) *Ring {
	return &Ring{records: make([]thermal.TraceRecord, capacity)}
}

func (r *Ring) Push(rec thermal.TraceRecord) {
	r.records[r.next] = rec
	r.next = (r.next + 1) % len(r.records)
	if r.next == 0 {
		r.full = true
	}
}

func (r *Ring) Len() int {
	if r.full {
		return len(r.records)
	}
	return r.next
}

// Records returns a copy of all records, oldest first
func (r *Ring) Records() []thermal.TraceRecord {
	result := make([]thermal.TraceRecord, 0, r.Len())
	if r.full {
		result = append(result, r.records[r.next:]...)
	}
	return append(result, r.records[:r.next]...)
}
