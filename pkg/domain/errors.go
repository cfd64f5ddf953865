package domain

import "errors"

// ErrRouteNotFound is returned when a path does not match any entry of the route table.
var ErrRouteNotFound = errors.New("route not found")

// ErrMissingValue is returned when a "set" route is called without its values parameter.
var ErrMissingValue = errors.New("missing query parameter \"values\"")

// ErrInvalidValue is returned when a state string has the wrong length or alphabet.
var ErrInvalidValue = errors.New("invalid state string")

// ErrTimeout is returned when the serial interface does not exit within the invocation deadline.
var ErrTimeout = errors.New("serial interface timed out")

// ErrLockAcquire is returned when the device lock cannot be acquired.
var ErrLockAcquire = errors.New("failed to acquire device lock")
