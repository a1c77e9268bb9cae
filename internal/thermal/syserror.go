package thermal

import (
	"context"
	"errors"
	"io/fs"

	"golang.org/x/sys/unix"
)

// ClassifySystemError maps an error returned by a file or command backed
// device to a bus error with the matching ResponseCode.
func ClassifySystemError(err error) *SensorReadError {
	if err == nil {
		return nil
	}
	var sre *SensorReadError
	if errors.As(err, &sre) {
		return sre
	}

	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENXIO):
		return NewBusError(CodeNoDevice, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, unix.ETIMEDOUT):
		return NewBusError(CodeTimeout, err)
	case errors.Is(err, unix.EIO):
		return NewBusError(CodeIOError, err)
	case errors.Is(err, unix.EBUSY), errors.Is(err, unix.EAGAIN):
		return NewBusError(CodeBusy, err)
	default:
		return NewBusError(CodeUnknown, err)
	}
}
