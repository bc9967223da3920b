// Package standardize collapses per-season statistic records into one wide
// row per entity with canonical team names and numeric statistic columns.
package standardize

import "github.com/okian/kabaddi/pkg/logger"

// Policy selects how an entity's sorted season records collapse into one row.
type Policy string

// Supported aggregation policies.
const (
	// LastRow keeps only the entity's last record; statistics carried by
	// earlier records are lost.
	LastRow Policy = "last_row"
	// LastNonNull takes, per column, the last non-null value across the
	// entity's records.
	LastNonNull Policy = "last_non_null"
)

// Option applies a configuration option to the Standardizer.
type Option func(*Standardizer)

// WithAliases sets the team alias table. The map is copied.
func WithAliases(aliases map[string]string) Option {
	return func(s *Standardizer) {
		s.canon = NewCanonicalizer(aliases)
	}
}

// WithPolicy sets the aggregation policy; unknown values are ignored.
func WithPolicy(p Policy) Option {
	return func(s *Standardizer) {
		if p == LastRow || p == LastNonNull {
			s.policy = p
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(s *Standardizer) {
		if log != nil {
			s.logger = log
		}
	}
}
