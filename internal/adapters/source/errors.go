package source

import "errors"

// Sentinel kinds for source errors.
var (
	ErrReadTable = errors.New("read table failed")
)
