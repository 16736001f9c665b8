package alphapool

import (
	"time"

	"go.uber.org/zap"
)

// Config is the configuration required for creating a pool. The zero value is
// usable; every field falls back to a default.
type Config struct {
	// MaxOpen is the ceiling on the sum of live resources, idle plus in use
	// plus currently connecting. The default is 32.
	MaxOpen int64

	// MaxIdle is the ceiling on the idle population. The default is MaxOpen.
	// Use SetMaxIdle(0) on the pool for no idle retention; a zero here means
	// unset.
	MaxIdle int64

	// CheckTimeout is the upper bound on a single Manager.Check call. The
	// default is 10 seconds; use SetCheckTimeout(0) on the pool for an
	// unbounded check.
	CheckTimeout time.Duration

	// MaxLifetime seeds the lifetime bound shared with age-based decorators.
	// Zero means no bound.
	MaxLifetime time.Duration

	// MaxLifetimeCell, when set, becomes the pool's lifetime storage instead
	// of a fresh cell. A decorator built over the same cell before the pool
	// exists then follows SetMaxLifetime at runtime.
	MaxLifetimeCell *AtomicDuration

	// Logger receives debug-level lifecycle events. The default is a no-op
	// logger.
	Logger *zap.Logger
}

// defaults for pool configs.
const (
	defaultMaxOpen      = 32
	defaultCheckTimeout = 10 * time.Second
)

// ValidateAndDefault is used to validate and set the defaults for the
// parameters not passed.
func (c *Config) ValidateAndDefault() error {
	if c.CheckTimeout < 0 {
		return ErrInvalidCheckTimeout
	}
	if c.MaxLifetime < 0 {
		return ErrInvalidMaxLifetime
	}
	if c.MaxOpen <= 0 {
		c.MaxOpen = defaultMaxOpen
	}
	if c.MaxIdle <= 0 || c.MaxIdle > c.MaxOpen {
		c.MaxIdle = c.MaxOpen
	}
	if c.CheckTimeout == 0 {
		c.CheckTimeout = defaultCheckTimeout
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return nil
}
