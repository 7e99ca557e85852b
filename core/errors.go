package core

import "errors"

var (
	ErrCapacityExceeded     = errors.New("load capacity exceeded")
	ErrInvalidHandle        = errors.New("invalid or removed load handle")
	ErrDelayOutOfRange      = errors.New("delay exceeds off value")
	ErrPinInUse             = errors.New("pin already drives a load")
	ErrAlreadyStarted       = errors.New("dimmer already started")
	ErrSyncPinUnset         = errors.New("sync pin not set")
	ErrInvalidConfig        = errors.New("invalid dimmer timing config")
	ErrRegistryInconsistent = errors.New("load registry inconsistent")
)
