// Package alphapool provides a generic asynchronous pool of expensive-to-create
// resources. Establishing and validating a resource is the property of a
// user-supplied Manager; the pool caps the number of live resources, reuses
// them across acquisitions, validates them before handing them out, and serves
// contending acquirers in arrival order.
package alphapool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Pool is used to manage the set of resources produced by a Manager, also
// being able to reuse them. A *Pool is cheap to share; all state lives behind
// the pointer.
//
// The pool itself is time-free: age-based policies compose through the
// decorators in the plugin package. MaxLifetime is stored here so callers and
// decorators share a single runtime-mutable setting.
type Pool[C any] struct {
	manager Manager[C]
	idle    *idleQueue[C]
	log     *zap.Logger

	maxOpen atomic.Int64
	maxIdle atomic.Int64
	// live is the admission gate: resources that exist plus slots reserved
	// for in-flight connects. The remaining counters are observability.
	live        atomic.Int64
	connections atomic.Int64
	connecting  atomic.Int64
	checking    atomic.Int64
	inUse       atomic.Int64
	waits       atomic.Int64

	checkTimeout AtomicDuration
	maxLifetime  *AtomicDuration

	closeOnce sync.Once
	closed    atomic.Bool
}

// New is used to create a pool over m with the default configuration.
func New[C any](m Manager[C]) *Pool[C] {
	p, _ := NewWithConfig(m, nil)
	return p
}

// NewWithConfig is used to create a pool over m with cfg. A nil cfg means
// defaults throughout.
func NewWithConfig[C any](m Manager[C], cfg *Config) (*Pool[C], error) {
	if m == nil {
		return nil, ErrMissingManager
	}
	if cfg == nil {
		cfg = &Config{}
	}
	err := cfg.ValidateAndDefault()
	if err != nil {
		return nil, err
	}
	p := &Pool[C]{
		manager:     m,
		idle:        newIdleQueue[C](),
		log:         cfg.Logger,
		maxLifetime: cfg.MaxLifetimeCell,
	}
	if p.maxLifetime == nil {
		p.maxLifetime = NewAtomicDuration(cfg.MaxLifetime)
	} else if cfg.MaxLifetime > 0 {
		p.maxLifetime.Store(cfg.MaxLifetime)
	}
	p.maxOpen.Store(cfg.MaxOpen)
	p.maxIdle.Store(cfg.MaxIdle)
	p.checkTimeout.Store(cfg.CheckTimeout)
	return p, nil
}

// Acquire is used to obtain a validated resource from the pool, creating one
// through the Manager when the pool is below MaxOpen. It blocks until a
// resource is available or ctx is done. The returned guard must be released;
// deferring Release right here is the usual shape:
//
//	g, err := pool.Acquire(ctx)
//	if err != nil { ... }
//	defer g.Release()
func (p *Pool[C]) Acquire(ctx context.Context) (*Guard[C], error) {
	return p.acquire(ctx)
}

// AcquireTimeout is like Acquire bounded by d. The deadline governs the
// blocking wait for an idle resource; an elapsed deadline surfaces as
// ErrAcquireTimeout. A zero d degrades to a non-blocking attempt: it still
// succeeds when the pool can produce a resource without waiting.
func (p *Pool[C]) AcquireTimeout(ctx context.Context, d time.Duration) (*Guard[C], error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	g, err := p.acquire(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, ErrAcquireTimeout
	}
	return g, err
}

// WithResource acquires a resource, passes it to fn and releases it on the
// way out, on every exit path including panics.
func (p *Pool[C]) WithResource(ctx context.Context, fn func(conn *C) error) error {
	g, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer g.Release()
	return fn(g.Conn())
}

func (p *Pool[C]) acquire(ctx context.Context) (*Guard[C], error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}
	p.waits.Add(1)
	defer p.waits.Add(-1)
	for {
		if p.admit() {
			if err := p.spawn(ctx); err != nil {
				return nil, err
			}
		}
		conn, err := p.idle.recv(ctx)
		if err != nil {
			return nil, err
		}
		g := newGuard(conn, p)
		err = p.check(ctx, g.Conn())
		if err == nil {
			g.validated = true
			p.inUse.Add(1)
			return g, nil
		}
		g.Release()
		p.log.Debug("resource failed validation, discarded", zap.Error(err))
		if errors.Is(err, ErrCheckTimeout) {
			return nil, err
		}
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
	}
}

// admit reserves one live slot when the pool is below MaxOpen. A reserved
// slot must be settled by spawn: committed into connections or given back.
func (p *Pool[C]) admit() bool {
	for {
		v := p.live.Load()
		if v >= p.maxOpen.Load() {
			return false
		}
		if p.live.CompareAndSwap(v, v+1) {
			return true
		}
	}
}

// spawn establishes one resource through the Manager against a slot reserved
// by admit, and parks it on the idle queue. The slot is given back on every
// failure path, including panics inside Connect, so admission never leaks.
func (p *Pool[C]) spawn(ctx context.Context) error {
	p.connecting.Add(1)
	committed := false
	defer func() {
		p.connecting.Add(-1)
		if !committed {
			decrementToZero(&p.live)
		}
	}()
	conn, err := p.manager.Connect(ctx)
	if err != nil {
		p.log.Debug("connect failed", zap.Error(err))
		return err
	}
	if !p.idle.send(conn) {
		p.closeResource(conn)
		return ErrPoolClosed
	}
	p.connections.Add(1)
	committed = true
	return nil
}

// check runs Manager.Check bounded by the pool's check timeout. The timeout
// is per attempt and independent of the caller's deadline; a validation that
// outlives it surfaces as ErrCheckTimeout and the resource is discarded.
func (p *Pool[C]) check(ctx context.Context, conn *C) error {
	p.checking.Add(1)
	defer p.checking.Add(-1)
	d := p.checkTimeout.Load()
	if d <= 0 {
		return p.manager.Check(ctx, conn)
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- fmt.Errorf("check panicked: %v", r)
			}
		}()
		errCh <- p.manager.Check(cctx, conn)
	}()
	select {
	case err := <-errCh:
		return err
	case <-cctx.Done():
		return ErrCheckTimeout
	}
}

// recycle takes back a validated resource from its guard, re-queueing it when
// the idle population is below MaxIdle and dropping it otherwise.
func (p *Pool[C]) recycle(conn C) {
	decrementToZero(&p.inUse)
	if !p.closed.Load() && int64(p.idle.len()) < p.maxIdle.Load() {
		if p.idle.send(conn) {
			return
		}
	}
	p.dropConnection()
	p.closeResource(conn)
}

// discard drops a resource that never passed validation.
func (p *Pool[C]) discard(conn C) {
	p.dropConnection()
	p.closeResource(conn)
}

// forget removes a hijacked resource from the bookkeeping without touching it.
func (p *Pool[C]) forget(validated bool) {
	if validated {
		decrementToZero(&p.inUse)
	}
	p.dropConnection()
}

// dropConnection settles the bookkeeping for a resource leaving the pool.
func (p *Pool[C]) dropConnection() {
	decrementToZero(&p.connections)
	decrementToZero(&p.live)
}

// closeResource lets go of a resource. Resources that implement io.Closer are
// closed; everything else is left to the garbage collector.
func (p *Pool[C]) closeResource(conn C) {
	if c, ok := any(conn).(io.Closer); ok {
		if err := c.Close(); err != nil {
			p.log.Debug("resource close failed", zap.Error(err))
		}
	}
}

// State returns a snapshot of the pool counters.
func (p *Pool[C]) State() State {
	return State{
		MaxOpen:     p.maxOpen.Load(),
		Connections: p.connections.Load(),
		InUse:       p.inUse.Load(),
		Idle:        int64(p.idle.len()),
		Waits:       p.waits.Load(),
		Connecting:  p.connecting.Load(),
		Checking:    p.checking.Load(),
	}
}

// SetMaxOpen is used to resize the ceiling on live resources. Zero is ignored,
// as it would deadlock existing waiters. Shrinking trims the idle backlog on a
// best-effort basis and clamps MaxIdle, but never evicts in-use resources.
func (p *Pool[C]) SetMaxOpen(n int64) {
	if n <= 0 {
		return
	}
	p.maxOpen.Store(n)
	for {
		v := p.maxIdle.Load()
		if v <= n || p.maxIdle.CompareAndSwap(v, n) {
			break
		}
	}
	p.trimIdle(n)
}

// GetMaxOpen returns the current ceiling on live resources.
func (p *Pool[C]) GetMaxOpen() int64 {
	return p.maxOpen.Load()
}

// SetMaxIdle is used to resize the ceiling on the idle population. Zero is
// accepted and means no idle retention, so every release reconnects.
func (p *Pool[C]) SetMaxIdle(n int64) {
	if n < 0 {
		n = 0
	}
	p.maxIdle.Store(n)
	p.trimIdle(n)
}

// GetMaxIdle returns the current ceiling on the idle population.
func (p *Pool[C]) GetMaxIdle() int64 {
	return p.maxIdle.Load()
}

// SetCheckTimeout bounds a single Manager.Check call. Zero means unbounded.
func (p *Pool[C]) SetCheckTimeout(d time.Duration) {
	p.checkTimeout.Store(d)
}

// GetCheckTimeout returns the bound on a single Manager.Check call.
func (p *Pool[C]) GetCheckTimeout() time.Duration {
	return p.checkTimeout.Load()
}

// SetMaxLifetime stores the lifetime bound shared with age-based decorators.
// The pool core does not age resources itself.
func (p *Pool[C]) SetMaxLifetime(d time.Duration) {
	p.maxLifetime.Store(d)
}

// GetMaxLifetime returns the stored lifetime bound, zero when unset.
func (p *Pool[C]) GetMaxLifetime() time.Duration {
	return p.maxLifetime.Load()
}

// MaxLifetimeCell exposes the underlying lifetime cell so a decorator can be
// driven by the pool's SetMaxLifetime at runtime. See Config.MaxLifetimeCell
// for sharing the cell with a decorator built before the pool.
func (p *Pool[C]) MaxLifetimeCell() *AtomicDuration {
	return p.maxLifetime
}

// Close rejects future acquires, wakes blocked ones with ErrPoolClosed and
// drops the idle backlog. Resources currently in use are dropped as their
// guards release.
func (p *Pool[C]) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		for _, conn := range p.idle.close() {
			p.dropConnection()
			p.closeResource(conn)
		}
		p.log.Debug("pool closed")
	})
}

func (p *Pool[C]) trimIdle(n int64) {
	for int64(p.idle.len()) > n {
		conn, ok := p.idle.tryRecv()
		if !ok {
			return
		}
		p.dropConnection()
		p.closeResource(conn)
		p.log.Debug("trimmed idle resource")
	}
}

// decrementToZero decrements c, clamping at zero.
func decrementToZero(c *atomic.Int64) {
	for {
		v := c.Load()
		if v <= 0 {
			return
		}
		if c.CompareAndSwap(v, v-1) {
			return
		}
	}
}
