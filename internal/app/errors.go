package service

import "errors"

// Sentinel kinds for pipeline errors.
var (
	ErrNotStarted  = errors.New("service not started")
	ErrStageFailed = errors.New("pipeline stage failed")
)
