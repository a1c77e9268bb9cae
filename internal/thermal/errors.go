package thermal

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned for non-finite or out-of-range gains and margins
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidPWM is returned for duty cycles above 100%
	ErrInvalidPWM = errors.New("invalid pwm duty")
	// ErrDevice is returned when an actuator call failed
	ErrDevice = errors.New("device error")
)

// deviceError wraps the failure of an actuator so that it matches ErrDevice
type deviceError struct {
	err error
}

func (e *deviceError) Error() string {
	return fmt.Sprintf("%s: %v", ErrDevice, e.err)
}

func (e *deviceError) Is(target error) bool {
	return target == ErrDevice
}

func (e *deviceError) Unwrap() error {
	return e.err
}

func newDeviceError(err error) error {
	if err == nil {
		return nil
	}
	return &deviceError{err: err}
}

// ResponseCode is the transport level failure code carried by a bus error
type ResponseCode uint8

const (
	CodeUnknown ResponseCode = iota
	// CodeNoDevice means that the device did not respond at all
	CodeNoDevice
	CodeTimeout
	CodeIOError
	CodeBusy
)

func (c ResponseCode) String() string {
	switch c {
	case CodeNoDevice:
		return "no device"
	case CodeTimeout:
		return "timeout"
	case CodeIOError:
		return "i/o error"
	case CodeBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// SensorReadErrorKind classifies a failed temperature read
type SensorReadErrorKind uint8

const (
	// BusError is a transport level failure, see SensorReadError.Code
	BusError SensorReadErrorKind = iota
	// NoData means the sensor reported that data is either not present or too old
	NoData
	// SensorFailure means the sensor reported a failure
	SensorFailure
	// ReservedValue means the decoded value is reserved and does not represent a temperature
	ReservedValue
	// CorruptReply means the reply is structurally incorrect (wrong length, unparsable, etc)
	CorruptReply
)

func (k SensorReadErrorKind) String() string {
	switch k {
	case BusError:
		return "bus error"
	case NoData:
		return "no data"
	case SensorFailure:
		return "sensor failure"
	case ReservedValue:
		return "reserved value"
	case CorruptReply:
		return "corrupt reply"
	default:
		return "unknown"
	}
}

// SensorReadError is the error returned by every TemperatureSource
type SensorReadError struct {
	Kind SensorReadErrorKind
	// Code is only meaningful for BusError
	Code ResponseCode
	// Err is the underlying cause, if any
	Err error
}

func (e *SensorReadError) Error() string {
	msg := e.Kind.String()
	if e.Kind == BusError {
		msg = fmt.Sprintf("%s (%s)", msg, e.Code)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SensorReadError) Unwrap() error {
	return e.Err
}

// Is matches another SensorReadError of the same kind (and code, for bus errors)
func (e *SensorReadError) Is(target error) bool {
	t, ok := target.(*SensorReadError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return e.Kind != BusError || t.Code == e.Code
}

// NewBusError creates a BusError with the given code and cause
func NewBusError(code ResponseCode, err error) *SensorReadError {
	return &SensorReadError{Kind: BusError, Code: code, Err: err}
}

// NewSensorReadError creates a non-bus SensorReadError of the given kind
func NewSensorReadError(kind SensorReadErrorKind, err error) *SensorReadError {
	return &SensorReadError{Kind: kind, Err: err}
}

var errNotPresent = &SensorReadError{Kind: BusError, Code: CodeNoDevice}

// IsNotPresent reports whether err indicates that the device is not present
func IsNotPresent(err error) bool {
	return errors.Is(err, errNotPresent)
}

// AsSensorReadError converts any error into a SensorReadError,
// unknown errors are treated as a bus error with an unknown code.
func AsSensorReadError(err error) *SensorReadError {
	if err == nil {
		return nil
	}
	var sre *SensorReadError
	if errors.As(err, &sre) {
		return sre
	}
	return NewBusError(CodeUnknown, err)
}
