package alphapool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAtomicDurationUnset(t *testing.T) {
	a := NewAtomicDuration(0)
	assert.Equal(t, time.Duration(0), a.Load())

	a = NewAtomicDuration(-time.Second)
	assert.Equal(t, time.Duration(0), a.Load())
}

func TestAtomicDurationStoreLoad(t *testing.T) {
	a := NewAtomicDuration(time.Second)
	assert.Equal(t, time.Second, a.Load())

	a.Store(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, a.Load())

	a.Store(0)
	assert.Equal(t, time.Duration(0), a.Load())
}

func TestAtomicDurationRoundsUp(t *testing.T) {
	a := NewAtomicDuration(1500 * time.Microsecond)
	assert.Equal(t, 2*time.Millisecond, a.Load())

	a.Store(time.Nanosecond)
	assert.Equal(t, time.Millisecond, a.Load())
}

func TestAtomicDurationTake(t *testing.T) {
	a := NewAtomicDuration(3 * time.Second)
	assert.Equal(t, 3*time.Second, a.Take())
	assert.Equal(t, time.Duration(0), a.Load())
	assert.Equal(t, time.Duration(0), a.Take())
}
