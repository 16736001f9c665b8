package alphapool

import "fmt"

// State is an immutable snapshot of the pool counters. Individual counters
// are read independently, so a snapshot taken under load may be mildly
// inconsistent across fields.
type State struct {
	// MaxOpen is the ceiling on the sum of live resources.
	MaxOpen int64
	// Connections is the count of resources that currently exist, idle or in use.
	Connections int64
	// InUse is the count of resources held by live guards.
	InUse int64
	// Idle is the count of resources waiting in the idle queue.
	Idle int64
	// Waits is the count of acquirers currently blocked in Acquire.
	Waits int64
	// Connecting is the count of resources currently being established.
	Connecting int64
	// Checking is the count of validations currently in progress.
	Checking int64
}

func (s State) String() string {
	return fmt.Sprintf(
		"{ max_open: %d, connections: %d, in_use: %d, idle: %d, connecting: %d, checking: %d, waits: %d }",
		s.MaxOpen, s.Connections, s.InUse, s.Idle, s.Connecting, s.Checking, s.Waits,
	)
}
