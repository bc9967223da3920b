// Package assembly joins the derived feature tables into one feature matrix
// per (player, season), reduces it and ranks feature importance.
package assembly

import (
	"github.com/okian/kabaddi/internal/domain/reduce"
	"github.com/okian/kabaddi/pkg/logger"
)

// Option applies a configuration option to the Assembler.
type Option func(*Assembler)

// WithLinear sets the linear reducer whose first component ranks features.
func WithLinear(r reduce.Reducer) Option {
	return func(a *Assembler) {
		if r != nil {
			a.linear = r
		}
	}
}

// WithEmbedding sets the reducer producing the dim columns.
func WithEmbedding(r reduce.Reducer) Option {
	return func(a *Assembler) {
		if r != nil {
			a.embedding = r
		}
	}
}

// WithNameNormalizer sets the player name form applied to the statistics
// table before it is joined.
func WithNameNormalizer(fn func(string) string) Option {
	return func(a *Assembler) {
		if fn != nil {
			a.normalize = fn
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(a *Assembler) {
		if log != nil {
			a.logger = log
		}
	}
}
