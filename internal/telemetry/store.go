package telemetry

import (
	"sort"
	"sync"
	"time"

	"github.com/asecurityteam/rolling"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/util"
	cmap "github.com/orcaman/concurrent-map/v2"
)

const (
	DefaultTraceSize   = 256
	DefaultHistorySize = 300
)

// SensorValue is the latest telemetry of one sensor or fan
type SensorValue struct {
	ID    string    `json:"id"`
	Time  time.Time `json:"time"`
	Valid bool      `json:"valid"`
	Value float64   `json:"value,omitempty"`
	// Reason is set if Valid is false
	Reason string `json:"reason,omitempty"`
}

// HistoryStats summarizes the recent values of a sensor
type HistoryStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
}

// TraceListener is notified of every trace record
type TraceListener func(rec thermal.TraceRecord)

// Store is the telemetry sink of the control loop. It keeps the latest value
// of every sensor, a bounded history of values per sensor and a bounded ring
// of trace records. It is safe for concurrent use.
type Store struct {
	now         func() time.Time
	historySize int

	latest  cmap.ConcurrentMap[string, SensorValue]
	history cmap.ConcurrentMap[string, *rolling.PointPolicy]

	mu        sync.Mutex
	traces    *Ring
	listeners []TraceListener
}

func NewStore(traceSize int, historySize int) *Store {
	if traceSize <= 0 {
		traceSize = DefaultTraceSize
	}
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Store{
		now:         time.Now,
		historySize: historySize,
		latest:      cmap.New[SensorValue](),
		history:     cmap.New[*rolling.PointPolicy](),
		traces:      NewRing(traceSize),
	}
}

// AddTraceListener registers a listener that is called for every trace record
func (s *Store) AddTraceListener(listener TraceListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *Store) Post(id string, value float64) error {
	s.latest.Set(id, SensorValue{ID: id, Time: s.now(), Valid: true, Value: value})

	window := s.history.Upsert(id, nil, func(exist bool, valueInMap *rolling.PointPolicy, newValue *rolling.PointPolicy) *rolling.PointPolicy {
		if exist {
			return valueInMap
		}
		return util.CreateRollingWindow(s.historySize)
	})
	window.Append(value)
	return nil
}

func (s *Store) NoData(id string, reason thermal.NoDataReason) error {
	s.latest.Set(id, SensorValue{ID: id, Time: s.now(), Reason: reason.String()})
	return nil
}

func (s *Store) Trace(rec thermal.TraceRecord) {
	s.mu.Lock()
	s.traces.Push(rec)
	listeners := s.listeners
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(rec)
	}
}

// Latest returns the latest telemetry of the given id
func (s *Store) Latest(id string) (SensorValue, bool) {
	return s.latest.Get(id)
}

// All returns the latest telemetry of every known id, sorted by id
func (s *Store) All() []SensorValue {
	var result []SensorValue
	for _, value := range s.latest.Items() {
		result = append(result, value)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// History returns statistics over the recent values of the given id
func (s *Store) History(id string) (HistoryStats, bool) {
	window, ok := s.history.Get(id)
	if !ok {
		return HistoryStats{}, false
	}
	return HistoryStats{
		Count: util.GetWindowCount(window),
		Min:   util.GetWindowMin(window),
		Max:   util.GetWindowMax(window),
		Avg:   util.GetWindowAvg(window),
	}, true
}

// Traces returns the buffered trace records, oldest first
func (s *Store) Traces() []thermal.TraceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.traces.Records()
}
