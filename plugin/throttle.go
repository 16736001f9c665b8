// Package plugin provides Manager decorators for the pool. Time-based
// policies, validation throttling and lifetime bounding compose here so the
// pool core stays free of per-resource time.
package plugin

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	alphapool "github.com/sinhashubham95/alpha-pool"
)

// ErrMaxLifetimeExceeded is returned from Check when a resource outlives the
// configured maximum lifetime. The pool discards the resource and retries.
var ErrMaxLifetimeExceeded = errors.New("connection exceeded max lifetime")

// CheckKind selects the validation policy of a ThrottleManager.
type CheckKind int32

const (
	// AlwaysCheck delegates every Check to the inner manager unmodified.
	AlwaysCheck CheckKind = iota
	// SkipInterval passes Check immediately while the resource is younger
	// than the configured duration, delegating otherwise.
	SkipInterval
	// MaxLifetime fails Check once the resource is older than the configured
	// duration, delegating otherwise.
	MaxLifetime
)

func (k CheckKind) String() string {
	switch k {
	case AlwaysCheck:
		return "always_check"
	case SkipInterval:
		return "skip_interval"
	case MaxLifetime:
		return "max_lifetime"
	default:
		return "unknown"
	}
}

// ThrottleManager wraps a Manager, producing timestamped resources and
// applying an atomically mutable validation policy to them. The kind and
// duration are separate atomics, so a concurrent SetMode may be observed
// half-applied for one check; the policy is advisory and that is acceptable.
//
// Policies wanting both a skip window and a lifetime bound stack two
// ThrottleManagers, the pool being constructed over the outermost one.
type ThrottleManager[C any] struct {
	manager  alphapool.Manager[C]
	kind     atomic.Int32
	duration *alphapool.AtomicDuration
}

// NewThrottleManager is used to wrap m with the given policy.
func NewThrottleManager[C any](m alphapool.Manager[C], kind CheckKind, d time.Duration) *ThrottleManager[C] {
	return NewThrottleManagerCell(m, kind, alphapool.NewAtomicDuration(d))
}

// NewThrottleManagerCell is like NewThrottleManager with a caller-owned
// duration cell. Handing the same cell to Config.MaxLifetimeCell makes
// SetMaxLifetime on the pool drive the decorator at runtime.
func NewThrottleManagerCell[C any](m alphapool.Manager[C], kind CheckKind, d *alphapool.AtomicDuration) *ThrottleManager[C] {
	tm := &ThrottleManager[C]{manager: m, duration: d}
	tm.kind.Store(int32(kind))
	return tm
}

// SetMode replaces the validation policy.
func (tm *ThrottleManager[C]) SetMode(kind CheckKind, d time.Duration) {
	tm.kind.Store(int32(kind))
	tm.duration.Store(d)
}

// Mode returns the current validation policy.
func (tm *ThrottleManager[C]) Mode() (CheckKind, time.Duration) {
	return CheckKind(tm.kind.Load()), tm.duration.Load()
}

// Connect produces a fresh resource stamped with its creation instant.
func (tm *ThrottleManager[C]) Connect(ctx context.Context) (Timed[C], error) {
	conn, err := tm.manager.Connect(ctx)
	if err != nil {
		var zero Timed[C]
		return zero, err
	}
	return Timed[C]{Conn: conn, CreatedAt: time.Now()}, nil
}

// Check applies the policy to the envelope's age before consulting the inner
// manager.
func (tm *ThrottleManager[C]) Check(ctx context.Context, conn *Timed[C]) error {
	kind, d := tm.Mode()
	switch kind {
	case SkipInterval:
		if d > 0 && conn.Age() < d {
			return nil
		}
	case MaxLifetime:
		if d > 0 && conn.Age() > d {
			return ErrMaxLifetimeExceeded
		}
	}
	return tm.manager.Check(ctx, &conn.Conn)
}
