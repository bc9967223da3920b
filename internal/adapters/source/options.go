// Package source reads the batch inputs: season-partitioned statistic
// exports and the event, match and player-statistic CSV files.
package source

import "github.com/okian/kabaddi/pkg/logger"

// Option applies a configuration option to the SeasonLoader.
type Option func(*SeasonLoader)

// WithSeasonRange sets the inclusive range of season numbers probed per directory.
func WithSeasonRange(first, last int) Option {
	return func(l *SeasonLoader) {
		if first > 0 && last >= first {
			l.firstSeason = first
			l.lastSeason = last
		}
	}
}

// WithFilePattern sets the season file name pattern, formatted with the season number.
func WithFilePattern(pattern string) Option {
	return func(l *SeasonLoader) {
		if pattern != "" {
			l.pattern = pattern
		}
	}
}

// WithLogger sets the logger used for per-file diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(l *SeasonLoader) {
		if log != nil {
			l.logger = log
		}
	}
}
