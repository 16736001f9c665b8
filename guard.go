package alphapool

import "sync/atomic"

// Guard is the scoped holder of one acquired resource. It is the single point
// at which a resource leaves or re-enters the pool: callers use the resource
// through Conn and give it back through Release, typically deferred right
// after a successful Acquire.
//
// A Guard must not be shared between goroutines and must not be used after
// Release or Hijack.
type Guard[C any] struct {
	conn      C
	pool      *Pool[C]
	validated bool
	released  atomic.Bool
}

func newGuard[C any](conn C, pool *Pool[C]) *Guard[C] {
	return &Guard[C]{conn: conn, pool: pool}
}

// Conn returns mutable access to the underlying resource.
func (g *Guard[C]) Conn() *C {
	return &g.conn
}

// Release returns the resource to the pool. A resource that never passed
// validation is discarded and forgotten; a validated one is re-queued when
// the idle population allows it, discarded otherwise. Release is idempotent,
// so deferring it is always safe.
func (g *Guard[C]) Release() {
	if !g.released.CompareAndSwap(false, true) {
		return
	}
	if !g.validated {
		g.pool.discard(g.conn)
		return
	}
	g.pool.recycle(g.conn)
}

// Hijack takes ownership of the resource away from the pool. The pool stops
// counting it and will never see it again; closing it becomes the caller's
// problem. Returns the zero value if the guard was already released.
func (g *Guard[C]) Hijack() C {
	var zero C
	if !g.released.CompareAndSwap(false, true) {
		return zero
	}
	g.pool.forget(g.validated)
	conn := g.conn
	g.conn = zero
	return conn
}
