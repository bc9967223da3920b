package standardize

import "errors"

// Sentinel kinds for standardizer errors.
var (
	ErrNoData = errors.New("no records to standardize")
)
