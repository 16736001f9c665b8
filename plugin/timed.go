package plugin

import (
	"io"
	"time"
)

// Timed is a transparent envelope attaching a creation instant to a resource,
// so age-based policies work without touching the inner resource type.
type Timed[C any] struct {
	Conn      C
	CreatedAt time.Time
}

// Age returns the time elapsed since the resource was created.
func (t *Timed[C]) Age() time.Duration {
	return time.Since(t.CreatedAt)
}

// Close forwards to the inner resource when it is an io.Closer, so the pool's
// discard path reaches through the envelope.
func (t Timed[C]) Close() error {
	if c, ok := any(t.Conn).(io.Closer); ok {
		return c.Close()
	}
	return nil
}
