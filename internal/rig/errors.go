package rig

import (
	"errors"
	"fmt"
)

// DeviceErrorCode categorizes device-level failures.
type DeviceErrorCode string

const (
	// ErrCodeDeviceNotFound indicates a command names a node with no bound
	// device of the required family.
	ErrCodeDeviceNotFound DeviceErrorCode = "DEVICE_NOT_FOUND"

	// ErrCodeCommunication indicates a driver fault that survived the
	// bounded retries.
	ErrCodeCommunication DeviceErrorCode = "COMMUNICATION"

	// ErrCodeSafetyViolation indicates a commanded value outside the
	// device's hard safety envelope that cannot be clamped away.
	ErrCodeSafetyViolation DeviceErrorCode = "SAFETY_VIOLATION"
)

// DeviceError is a failure at the executioner boundary, carrying the
// device and operation for the operator-facing log.
type DeviceError struct {
	Code    DeviceErrorCode
	Device  string
	Op      string
	Message string
	Err     error
}

func (e *DeviceError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s: %s", e.Code, e.Device, e.Op, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// IsDeviceNotFound reports whether err is a device-resolution failure.
func IsDeviceNotFound(err error) bool {
	var de *DeviceError
	return errors.As(err, &de) && de.Code == ErrCodeDeviceNotFound
}

func notFound(node string, family string) *DeviceError {
	return &DeviceError{
		Code:    ErrCodeDeviceNotFound,
		Device:  node,
		Op:      "resolve",
		Message: fmt.Sprintf("no %s bound to node", family),
	}
}
