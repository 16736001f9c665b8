package alphapool

import "errors"

// errors
var (
	ErrMissingManager      = errors.New("no manager provided")
	ErrPoolClosed          = errors.New("closed pool")
	ErrAcquireTimeout      = errors.New("acquire timed out waiting for a resource")
	ErrCheckTimeout        = errors.New("check timed out validating a resource")
	ErrInvalidCheckTimeout = errors.New("check timeout must not be negative")
	ErrInvalidMaxLifetime  = errors.New("max lifetime must not be negative")
)
