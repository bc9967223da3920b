package repository

import "errors"

// Sentinel kinds for output store errors.
var (
	ErrWrite  = errors.New("write output failed")
	ErrClosed = errors.New("output store closed")
)
