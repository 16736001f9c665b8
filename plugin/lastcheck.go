package plugin

import (
	"context"
	"time"

	alphapool "github.com/sinhashubham95/alpha-pool"
)

// LastCheckManager wraps a Manager and delegates Check only when more than
// interval has elapsed since the last delegated check, across all resources.
// Validation of resources that are churned through the pool in quick
// succession collapses to a single inner check per interval.
//
// Unlike ThrottleManager this keeps the resource type unchanged, at the cost
// of the throttle being global rather than per resource.
type LastCheckManager[C any] struct {
	manager  alphapool.Manager[C]
	interval time.Duration
	// wall-clock instant of the last delegated check, as a duration since the
	// Unix epoch; zero means never checked.
	last alphapool.AtomicDuration
}

// NewLastCheckManager is used to wrap m with the given check interval.
func NewLastCheckManager[C any](m alphapool.Manager[C], interval time.Duration) *LastCheckManager[C] {
	return &LastCheckManager[C]{manager: m, interval: interval}
}

// Connect delegates to the inner manager.
func (lm *LastCheckManager[C]) Connect(ctx context.Context) (C, error) {
	return lm.manager.Connect(ctx)
}

// Check consults the inner manager at most once per interval.
func (lm *LastCheckManager[C]) Check(ctx context.Context, conn *C) error {
	now := time.Duration(time.Now().UnixMilli()) * time.Millisecond
	if now-lm.last.Load() < lm.interval {
		return nil
	}
	lm.last.Store(now)
	return lm.manager.Check(ctx, conn)
}
