package reduce

import "errors"

// Sentinel kinds for reduction errors.
var (
	ErrInsufficientData = errors.New("insufficient data for reduction")
	ErrDecomposition    = errors.New("decomposition failed")
)
