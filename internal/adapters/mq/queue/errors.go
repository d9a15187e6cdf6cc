package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrFull   = errors.New("sync queue is full")
	ErrClosed = errors.New("sync queue is closed")
)
