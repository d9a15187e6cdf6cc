package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrSyncDisabled = errors.New("results sync is not configured")
	ErrSyncInFlight = errors.New("a sync for this season is already in flight")
	ErrBackpressure = errors.New("sync queue is full")
	ErrInvalidYear  = errors.New("invalid season year")
)
