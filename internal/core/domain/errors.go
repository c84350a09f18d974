package domain

import "errors"

var ErrInvalidCoordinate = errors.New("coordinate out of range")
var ErrInvalidTransition = errors.New("invalid trip status transition")
var ErrTripNotFound = errors.New("trip not found")
var ErrDuplicateTrip = errors.New("trip already tracked")
var ErrStopNotFound = errors.New("stop not found on route")
var ErrEmptyRoute = errors.New("route has no stops")
var ErrNegativeCapacity = errors.New("vehicle capacity must not be negative")
