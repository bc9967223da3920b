// Package features derives per-player features from the event log and the
// standardized statistic tables: role success rates, contribution ratios and
// match co-occurrence pairs.
package features

import "github.com/okian/kabaddi/pkg/logger"

// TeamNamer maps a team name to its canonical form.
type TeamNamer interface {
	Canonical(name string) string
}

type identity struct{}

func (identity) Canonical(name string) string { return name }

// Option applies a configuration option to the Deriver.
type Option func(*Deriver)

// WithTeamNamer sets the canonicalizer applied to team names before joins.
func WithTeamNamer(n TeamNamer) Option {
	return func(d *Deriver) {
		if n != nil {
			d.teams = n
		}
	}
}

// WithPlayerStatColumns sets the header renames applied to the raw
// per-season player statistics before the contribution join.
func WithPlayerStatColumns(renames map[string]string) Option {
	return func(d *Deriver) {
		d.renames = make(map[string]string, len(renames))
		for k, v := range renames {
			d.renames[k] = v
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(d *Deriver) {
		if log != nil {
			d.logger = log
		}
	}
}
