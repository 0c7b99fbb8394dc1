package queue

import "errors"

// Sentinel errors for queue operations.
var (
	ErrQueueClosed = errors.New("queue closed")
	ErrQueueFull   = errors.New("queue full")
)
