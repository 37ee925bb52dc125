// ABOUTME: Capture error types
// ABOUTME: Device access failures and exclusive-microphone violations
package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceDenied means the microphone is missing or access was refused
	ErrDeviceDenied = errors.New("microphone access denied")

	// ErrAlreadyRecording is returned when a session is started twice
	ErrAlreadyRecording = errors.New("capture already recording")
)

// DeviceAccessError reports a microphone acquisition failure
type DeviceAccessError struct {
	Err error
}

func (e *DeviceAccessError) Error() string {
	return fmt.Sprintf("%v: %v", ErrDeviceDenied, e.Err)
}

// Unwrap exposes both ErrDeviceDenied and the device error
func (e *DeviceAccessError) Unwrap() []error {
	return []error{ErrDeviceDenied, e.Err}
}
