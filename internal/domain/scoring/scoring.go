// Package scoring computes per-player skill scores from the event log,
// weighting each event by the player's main position and match outcome.
package scoring

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/kabaddi/internal/domain/model"
	"github.com/okian/kabaddi/internal/domain/table"
	"github.com/okian/kabaddi/pkg/logger"
)

// Default scoring configuration constants.
const (
	defaultWinBonus = 1.25
	unknown         = "Unknown"
	noResult        = "no result"
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithRules sets the points per event type for each position.
func WithRules(rules map[string]map[string]float64) Option {
	return func(s *Scorer) {
		// Copy the rules to avoid external modifications
		s.rules = make(map[string]map[string]float64, len(rules))
		for position, events := range rules {
			m := make(map[string]float64, len(events))
			for event, points := range events {
				m[event] = points
			}
			s.rules[position] = m
		}
	}
}

// WithWinBonus sets the multiplier applied to events of the winning team.
func WithWinBonus(bonus float64) Option {
	return func(s *Scorer) {
		if bonus > 0 {
			s.winBonus = bonus
		}
	}
}

// WithNameNormalizer sets the player name form used to match events to stats.
func WithNameNormalizer(fn func(string) string) Option {
	return func(s *Scorer) {
		if fn != nil {
			s.normalize = fn
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(s *Scorer) {
		if log != nil {
			s.logger = log
		}
	}
}

// Result is the best-position score of one player in one season.
type Result struct {
	Player   string
	Season   string
	Score    float64
	Position string
}

// Scorer computes skill scores.
type Scorer struct {
	rules     map[string]map[string]float64
	winBonus  float64
	normalize func(string) string
	logger    logger.Logger
}

// NewScorer creates a Scorer with configuration options.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		rules:     make(map[string]map[string]float64), // Will be set by options
		winBonus:  defaultWinBonus,
		normalize: func(n string) string { return strings.ToLower(strings.TrimSpace(n)) },
		logger:    logger.Get().Named("scoring"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MainPosition is the first item of a comma-separated position list.
func MainPosition(position string) string {
	main, _, _ := strings.Cut(position, ",")
	return strings.TrimSpace(main)
}

// WinningTeam returns the lower-cased winner of "<winner> beat <loser> ...".
func WinningTeam(result string) (string, bool) {
	result = strings.ToLower(strings.TrimSpace(result))
	if result == "" || strings.Contains(result, noResult) {
		return "", false
	}
	winner, _, found := strings.Cut(result, " beat ")
	if !found {
		return "", false
	}
	return strings.TrimSpace(winner), true
}

// EventScore returns the points of one event for a position, multiplied by
// the win bonus when won is true.
func (s *Scorer) EventScore(position, eventType string, won bool) float64 {
	base := s.rules[MainPosition(position)][eventType]
	if won {
		return base * s.winBonus
	}
	return base
}

type placement struct {
	position string
	team     string
}

type seasonKey struct {
	player string
	season string
}

type scoreKey struct {
	seasonKey
	position string
}

// Score sums event scores per (player, season, position) and keeps the best
// position per (player, season), the alphabetically first on ties. Players
// are placed through the standardized player table; events of unplaced
// players score under position Unknown, and Unknown rows scoring zero are
// dropped.
func (s *Scorer) Score(ctx context.Context, events []model.Event, matches []model.Match, players *table.Table) ([]Result, error) {
	if err := players.Require("player_name", "season", "position_name", "team_name"); err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}

	placements := make(map[seasonKey][]placement)
	for r := range players.Rows {
		k := seasonKey{player: s.normalize(players.Value(r, "player_name")), season: table.JoinKey(players.Value(r, "season"))}
		p := placement{position: players.Value(r, "position_name"), team: strings.ToLower(strings.TrimSpace(players.Value(r, "team_name")))}
		if p.position == "" {
			p.position = unknown
		}
		if p.team == "" {
			p.team = unknown
		}
		if !contains(placements[k], p) {
			placements[k] = append(placements[k], p)
		}
	}

	winners := make(map[string]string, len(matches))
	for _, m := range matches {
		if w, ok := WinningTeam(m.Result); ok {
			winners[m.MatchID] = w
		}
	}

	totals := make(map[scoreKey]float64)
	unplaced := 0
	for _, e := range events {
		sk := seasonKey{player: s.normalize(e.PlayerName), season: fmt.Sprint(e.Season)}
		ps := placements[sk]
		if len(ps) == 0 {
			unplaced++
			ps = []placement{{position: unknown, team: unknown}}
		}
		winner, decided := winners[e.MatchID]
		for _, p := range ps {
			won := decided && p.team == winner
			totals[scoreKey{seasonKey: sk, position: p.position}] += s.EventScore(p.position, e.EventType, won)
		}
	}
	if unplaced > 0 {
		s.logger.Info(ctx, "events scored under unknown position", logger.Int("count", unplaced))
	}

	keys := make([]scoreKey, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.player != b.player {
			return a.player < b.player
		}
		if a.season != b.season {
			return lessSeason(a.season, b.season)
		}
		return a.position < b.position
	})

	var out []Result
	for i := 0; i < len(keys); {
		best := keys[i]
		j := i + 1
		for ; j < len(keys) && keys[j].seasonKey == keys[i].seasonKey; j++ {
			if totals[keys[j]] > totals[best] {
				best = keys[j]
			}
		}
		i = j
		score := totals[best]
		if score == 0 && best.position == unknown {
			continue
		}
		out = append(out, Result{Player: best.player, Season: best.season, Score: score, Position: best.position})
	}
	return out, nil
}

// ResultsTable renders results as player_skill_scores.
func ResultsTable(results []Result) *table.Table {
	out := table.New("player_skill_scores", "player_name", "season", "total_skill_score", "position_name")
	for _, r := range results {
		out.Append(r.Player, r.Season, model.FormatFloat(r.Score), r.Position)
	}
	return out
}

func contains(ps []placement, p placement) bool {
	for _, q := range ps {
		if q == p {
			return true
		}
	}
	return false
}

func lessSeason(a, b string) bool {
	fa, oka := model.ToFloat(a)
	fb, okb := model.ToFloat(b)
	if oka && okb {
		return fa < fb
	}
	return a < b
}
