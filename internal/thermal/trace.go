package thermal

import "time"

// NoDataReason explains to the telemetry sink why there is no value for a sensor
type NoDataReason uint8

const (
	// NoDataDeviceOff means the sensor is not sampled in the current power mode
	NoDataDeviceOff NoDataReason = iota
	NoDataDeviceError
	NoDataDeviceNotPresent
	NoDataDeviceTimeout
	NoDataDeviceUnavailable
)

func (r NoDataReason) String() string {
	switch r {
	case NoDataDeviceOff:
		return "device off"
	case NoDataDeviceError:
		return "device error"
	case NoDataDeviceNotPresent:
		return "device not present"
	case NoDataDeviceTimeout:
		return "device timeout"
	case NoDataDeviceUnavailable:
		return "device unavailable"
	default:
		return "unknown"
	}
}

// NoDataReasonOf maps a failed read to the reason reported to telemetry
func NoDataReasonOf(err error) NoDataReason {
	sre := AsSensorReadError(err)
	if sre == nil || sre.Kind != BusError {
		return NoDataDeviceError
	}
	switch sre.Code {
	case CodeNoDevice:
		return NoDataDeviceNotPresent
	case CodeTimeout:
		return NoDataDeviceTimeout
	case CodeBusy:
		return NoDataDeviceUnavailable
	default:
		return NoDataDeviceError
	}
}

// TraceKind identifies the event a TraceRecord describes
type TraceKind uint8

const (
	TraceAutoState TraceKind = iota
	TracePowerModeChanged
	TraceSensorReadFailed
	TraceMiscReadFailed
	TraceFanReadFailed
	TracePostFailed
	TraceControlPwm
	TracePowerDownFailed
	TraceFanPwmFailed
)

func (k TraceKind) String() string {
	switch k {
	case TraceAutoState:
		return "AutoState"
	case TracePowerModeChanged:
		return "PowerModeChanged"
	case TraceSensorReadFailed:
		return "SensorReadFailed"
	case TraceMiscReadFailed:
		return "MiscReadFailed"
	case TraceFanReadFailed:
		return "FanReadFailed"
	case TracePostFailed:
		return "PostFailed"
	case TraceControlPwm:
		return "ControlPwm"
	case TracePowerDownFailed:
		return "PowerDownFailed"
	case TraceFanPwmFailed:
		return "FanPwmFailed"
	default:
		return "Unknown"
	}
}

// TraceGroup tells which list of devices TraceRecord.Index refers to
type TraceGroup uint8

const (
	GroupNone TraceGroup = iota
	GroupInput
	GroupMisc
	GroupFan
)

// TraceRecord is a fixed-size diagnostic record emitted by the control loop.
// Only the fields relevant to Kind are set.
type TraceRecord struct {
	Time      time.Time           `json:"time" cbor:"1,keyasint"`
	Kind      TraceKind           `json:"kind" cbor:"2,keyasint"`
	Group     TraceGroup          `json:"group,omitempty" cbor:"3,keyasint,omitempty"`
	Index     int                 `json:"index,omitempty" cbor:"4,keyasint,omitempty"`
	State     State               `json:"state,omitempty" cbor:"5,keyasint,omitempty"`
	ErrorKind SensorReadErrorKind `json:"errorKind,omitempty" cbor:"6,keyasint,omitempty"`
	Code      ResponseCode        `json:"code,omitempty" cbor:"7,keyasint,omitempty"`
	Value     float64             `json:"value,omitempty" cbor:"8,keyasint,omitempty"`
	PowerMode PowerBitmask        `json:"powerMode,omitempty" cbor:"9,keyasint,omitempty"`
}

func failureRecord(now time.Time, kind TraceKind, group TraceGroup, index int, err error) TraceRecord {
	rec := TraceRecord{Time: now, Kind: kind, Group: group, Index: index}
	if sre := AsSensorReadError(err); sre != nil {
		rec.ErrorKind = sre.Kind
		rec.Code = sre.Code
	}
	return rec
}
