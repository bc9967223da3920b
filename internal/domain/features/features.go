package features

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/kabaddi/internal/domain/dedupe"
	"github.com/okian/kabaddi/internal/domain/model"
	"github.com/okian/kabaddi/internal/domain/table"
	"github.com/okian/kabaddi/pkg/logger"
)

// Output column names shared with the assembly stage.
const (
	ColPlayer            = "player_name"
	ColRole              = "role"
	ColSeason            = "season"
	ColTeam              = "team_name"
	ColRaidSuccessRate   = "raid_success_rate"
	ColTackleSuccessRate = "tackle_success_rate"
	ColContribution      = "contribution_ratio"
	ColTotalPoints       = "total_points"
	ColPointsScored      = "points_scored"
)

// Deriver computes derived feature tables.
type Deriver struct {
	teams   TeamNamer
	renames map[string]string
	logger  logger.Logger
}

// New creates a Deriver.
func New(opts ...Option) *Deriver {
	d := &Deriver{
		teams: identity{},
		renames: map[string]string{
			"Player Name": ColPlayer,
			"Season":      ColSeason,
			"Team":        ColTeam,
		},
		logger: logger.Get().Named("features"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NormalizeName is the player name form every join agrees on.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type roleKey struct {
	player string
	role   string
	season int
}

// RoleSuccess counts event types per (player, role, season) and derives the
// smoothed raid and tackle success rates. Event type count columns are sorted
// by name; rows are sorted by player, role and season.
func (d *Deriver) RoleSuccess(ctx context.Context, events []model.Event) *table.Table {
	counts := make(map[roleKey]map[string]int)
	types := dedupe.NewOrderedSet()
	skipped := 0
	for _, e := range events {
		player := NormalizeName(e.PlayerName)
		if player == "" || e.Role == "" || e.EventType == "" {
			skipped++
			continue
		}
		k := roleKey{player: player, role: e.Role, season: e.Season}
		if counts[k] == nil {
			counts[k] = make(map[string]int)
		}
		counts[k][e.EventType]++
		types.SeenAndRecord(e.EventType)
	}
	if skipped > 0 {
		d.logger.Warn(ctx, "events without player, role or type ignored", logger.Int("count", skipped))
	}

	keys := make([]roleKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.player != b.player {
			return a.player < b.player
		}
		if a.role != b.role {
			return a.role < b.role
		}
		return a.season < b.season
	})
	eventTypes := types.Items()
	sort.Strings(eventTypes)

	columns := append([]string{ColPlayer, ColRole, ColSeason}, eventTypes...)
	columns = append(columns, ColRaidSuccessRate, ColTackleSuccessRate)
	out := table.New("player_role_success", columns...)
	for _, k := range keys {
		c := counts[k]
		cells := []string{k.player, k.role, fmt.Sprint(k.season)}
		for _, et := range eventTypes {
			cells = append(cells, fmt.Sprint(c[et]))
		}
		cells = append(cells,
			model.FormatFloat(SuccessRate(c[model.RaidSuccessful], c[model.RaidUnsuccessful])),
			model.FormatFloat(SuccessRate(c[model.TackleSuccessful], c[model.TackleUnsuccessful])),
		)
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// SuccessRate is successes/(successes+failures+1).
func SuccessRate(successes, failures int) float64 {
	return float64(successes) / float64(successes+failures+1)
}

// Contribution joins raw per-season player statistics to the standardized
// team table on (team_name, season) and emits
// contribution_ratio = total_points/(points_scored+1).
// Both sides are schema-checked before the join; a missing column is a
// *table.SchemaError.
func (d *Deriver) Contribution(ctx context.Context, playerStats, teamStats *table.Table) (*table.Table, error) {
	players := playerStats.Clone(playerStats.Name)
	players.Rename(d.renames)

	left, err := players.Select(players.Name, ColPlayer, ColSeason, ColTeam, ColTotalPoints)
	if err != nil {
		return nil, fmt.Errorf("contribution: %w", err)
	}
	right, err := teamStats.Select(teamStats.Name, ColTeam, ColSeason, ColPointsScored)
	if err != nil {
		return nil, fmt.Errorf("contribution: %w", err)
	}
	if err := left.Map(ColPlayer, NormalizeName); err != nil {
		return nil, fmt.Errorf("contribution: %w", err)
	}
	if err := left.Map(ColTeam, d.teams.Canonical); err != nil {
		return nil, fmt.Errorf("contribution: %w", err)
	}
	if err := right.Map(ColTeam, d.teams.Canonical); err != nil {
		return nil, fmt.Errorf("contribution: %w", err)
	}

	joined, err := table.InnerJoin("player_team_contribution", left, right, []string{ColTeam, ColSeason}, "_team")
	if err != nil {
		return nil, fmt.Errorf("contribution: %w", err)
	}

	out := table.New("player_team_contribution", ColPlayer, ColSeason, ColTeam, ColContribution)
	for r := range joined.Rows {
		ratio := joined.FloatOrZero(r, ColTotalPoints) / (joined.FloatOrZero(r, ColPointsScored) + 1)
		out.Append(joined.Value(r, ColPlayer), joined.Value(r, ColSeason), joined.Value(r, ColTeam), model.FormatFloat(ratio))
	}
	if out.Len() == 0 {
		d.logger.Warn(ctx, "contribution join matched no rows; check team names and seasons")
	}
	return out, nil
}

// ContributionMetrics are the player/team statistic pairs compared by MetricContribution.
var ContributionMetrics = []struct{ Player, Team, Out string }{
	{"raid_points", "raid_points", "raid_points_contribution"},
	{"tackle_points", "tackle_points", "tackle_points_contribution"},
	{ColTotalPoints, ColPointsScored, "total_points_contribution"},
	{"do_or_die_points", "do_or_die_points", "do_or_die_points_contribution"},
	{"successful_raids", "successful_raids", "successful_raids_contribution"},
	{"successful_tackles", "successful_tackles", "successful_tackles_contribution"},
	{"super_raids", "super_raids", "super_raids_contribution"},
	{"super_tackles", "super_tackles", "super_tackles_contribution"},
}

const metricEpsilon = 1e-6

// MetricContribution joins the standardized player and team tables on
// (team_name, season) and emits per-metric shares player/(team+1e-6).
func (d *Deriver) MetricContribution(ctx context.Context, playerTable, teamTable *table.Table) (*table.Table, error) {
	playerCols := []string{ColPlayer, ColTeam, ColSeason, "position_name"}
	teamCols := []string{ColTeam, ColSeason}
	for _, m := range ContributionMetrics {
		playerCols = append(playerCols, m.Player)
		teamCols = append(teamCols, m.Team)
	}
	left, err := playerTable.Select("player_metrics", playerCols...)
	if err != nil {
		return nil, fmt.Errorf("metric contribution: %w", err)
	}
	right, err := teamTable.Select("team_metrics", teamCols...)
	if err != nil {
		return nil, fmt.Errorf("metric contribution: %w", err)
	}
	if err := left.Map(ColTeam, d.teams.Canonical); err != nil {
		return nil, fmt.Errorf("metric contribution: %w", err)
	}
	if err := right.Map(ColTeam, d.teams.Canonical); err != nil {
		return nil, fmt.Errorf("metric contribution: %w", err)
	}

	playerSide := make(map[string]string)
	teamSide := make(map[string]string)
	for _, m := range ContributionMetrics {
		if m.Player != ColTotalPoints {
			playerSide[m.Player] = m.Player + "_player"
		}
		if m.Team != ColPointsScored {
			teamSide[m.Team] = m.Team + "_team"
		}
	}
	left.Rename(playerSide)
	right.Rename(teamSide)

	joined, err := table.InnerJoin("player_contribution_stats", left, right, []string{ColTeam, ColSeason}, "_team")
	if err != nil {
		return nil, fmt.Errorf("metric contribution: %w", err)
	}

	columns := []string{ColPlayer, ColTeam, ColSeason, "position_name", "raid_points_player", "tackle_points_player", ColTotalPoints}
	for _, m := range ContributionMetrics {
		columns = append(columns, m.Out)
	}
	out := table.New("player_contribution_stats", columns...)
	for r := range joined.Rows {
		cells := []string{
			joined.Value(r, ColPlayer), joined.Value(r, ColTeam), joined.Value(r, ColSeason), joined.Value(r, "position_name"),
			joined.Value(r, "raid_points_player"), joined.Value(r, "tackle_points_player"), joined.Value(r, ColTotalPoints),
		}
		for _, m := range ContributionMetrics {
			p, t := m.Player, m.Team
			if p != ColTotalPoints {
				p += "_player"
			}
			if t != ColPointsScored {
				t += "_team"
			}
			cells = append(cells, model.FormatFloat(joined.FloatOrZero(r, p)/(joined.FloatOrZero(r, t)+metricEpsilon)))
		}
		out.Rows = append(out.Rows, cells)
	}
	if out.Len() == 0 {
		d.logger.Warn(ctx, "metric contribution join matched no rows")
	}
	return out, nil
}
