package daemon

import (
	"errors"
	"fmt"
)

// Bus error names the user-facing failures map to.
const (
	errNameInvalidArgs     = "org.freedesktop.DBus.Error.InvalidArgs"
	errNameAccessDenied    = "org.freedesktop.DBus.Error.AccessDenied"
	errNameFailed          = "org.freedesktop.DBus.Error.Failed"
	errNameUnknownProperty = "org.freedesktop.DBus.Error.UnknownProperty"
	errNameUnknownMethod   = "org.freedesktop.DBus.Error.UnknownMethod"
)

// ErrInsufficientDrivers is the only fatal condition in the core: after a
// full probe cycle no active driver covers Balanced and PowerSaver.
var ErrInsufficientDrivers = errors.New("no probed driver supports both the balanced and power-saver profiles")

// BusError is a user-facing failure carrying the D-Bus error name it is
// reported under.
type BusError struct {
	Name    string
	Message string
	wrapped error
}

func (e *BusError) Error() string { return e.Message }
func (e *BusError) Unwrap() error { return e.wrapped }

func errInvalidProfile(name string) *BusError {
	return &BusError{
		Name:    errNameFailed,
		Message: fmt.Sprintf("invalid profile name %q", name),
	}
}

func errHoldInvalidProfile(name string) *BusError {
	return &BusError{
		Name:    errNameInvalidArgs,
		Message: fmt.Sprintf("only the performance and power-saver profiles can be held, not %q", name),
	}
}

func errProfileUnavailable(name string) *BusError {
	return &BusError{
		Name:    errNameFailed,
		Message: fmt.Sprintf("no active driver supports profile %q", name),
	}
}

func errHoldProfileUnavailable(name string) *BusError {
	return &BusError{
		Name:    errNameInvalidArgs,
		Message: fmt.Sprintf("cannot hold profile %q as it is not available", name),
	}
}

func errNotAuthorized(action string) *BusError {
	return &BusError{
		Name:    errNameAccessDenied,
		Message: fmt.Sprintf("not authorized for %q", action),
	}
}

func errUnknownCookie(cookie uint32) *BusError {
	return &BusError{
		Name:    errNameInvalidArgs,
		Message: fmt.Sprintf("no hold with cookie %d", cookie),
	}
}

func errUnknownProperty(prop string) *BusError {
	return &BusError{
		Name:    errNameUnknownProperty,
		Message: fmt.Sprintf("no such property %q", prop),
	}
}

func errDriverActivation(driverName string, err error) *BusError {
	return &BusError{
		Name:    errNameFailed,
		Message: fmt.Sprintf("driver %q failed to activate: %v", driverName, err),
		wrapped: err,
	}
}
