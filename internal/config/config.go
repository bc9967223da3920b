// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New(); files and env only override.
// - Statistic sources are ordered lists so column order is stable.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"github.com/okian/kabaddi/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`

	// InputDir holds the statistic directories and the event/match CSVs.
	InputDir string `koanf:"input_dir" yaml:"input_dir" validate:"required"`

	// OutputDir receives every artifact of a run.
	OutputDir string `koanf:"output_dir" yaml:"output_dir" validate:"required"`

	// FirstSeason and LastSeason bound the season files probed per directory.
	FirstSeason int `koanf:"first_season" yaml:"first_season" validate:"min=1"`
	LastSeason  int `koanf:"last_season" yaml:"last_season" validate:"gtefield=FirstSeason"`

	// SeasonFilePattern is formatted with the season number.
	SeasonFilePattern string `koanf:"season_file_pattern" yaml:"season_file_pattern" validate:"required,contains=%d"`

	// PlayerStats and TeamStats map statistic directories to output columns.
	PlayerStats []model.StatSource `koanf:"player_stats" yaml:"player_stats" validate:"required,min=1,dive"`
	TeamStats   []model.StatSource `koanf:"team_stats" yaml:"team_stats" validate:"required,min=1,dive"`

	// TeamAliases canonicalizes abbreviated team names.
	TeamAliases map[string]string `koanf:"team_aliases" yaml:"team_aliases"`

	// Aggregation selects how an entity's season records collapse:
	// last_row or last_non_null.
	Aggregation string `koanf:"aggregation" yaml:"aggregation" validate:"oneof=last_row last_non_null"`

	// Input CSV files, relative to InputDir.
	EventsFile            string `koanf:"events_file" yaml:"events_file" validate:"required"`
	MatchesFile           string `koanf:"matches_file" yaml:"matches_file" validate:"required"`
	PlayerSeasonStatsFile string `koanf:"player_season_stats_file" yaml:"player_season_stats_file" validate:"required"`

	// PlayerStatColumns renames raw per-season player stat headers before joins.
	PlayerStatColumns map[string]string `koanf:"player_stat_columns" yaml:"player_stat_columns"`

	// Output file names, relative to OutputDir.
	PlayerStatsOutput string `koanf:"player_stats_output" yaml:"player_stats_output" validate:"required"`
	TeamStatsOutput   string `koanf:"team_stats_output" yaml:"team_stats_output" validate:"required"`

	// Reduction parameters.
	LinearComponents    int   `koanf:"linear_components" yaml:"linear_components" validate:"min=1"`
	EmbeddingComponents int   `koanf:"embedding_components" yaml:"embedding_components" validate:"min=1"`
	Neighbors           int   `koanf:"neighbors" yaml:"neighbors" validate:"min=2"`
	Epochs              int   `koanf:"epochs" yaml:"epochs" validate:"min=1"`
	Seed                int64 `koanf:"seed" yaml:"seed"`

	// ScoringRules maps position -> event type -> points.
	ScoringRules map[string]map[string]float64 `koanf:"scoring_rules" yaml:"scoring_rules"`
	// WinBonus multiplies event scores of players whose team won the match.
	WinBonus float64 `koanf:"win_bonus" yaml:"win_bonus" validate:"gt=0"`

	// RepairMatchIDs moves events to a match the player's team actually played.
	RepairMatchIDs bool `koanf:"repair_match_ids" yaml:"repair_match_ids"`
	// RepairSeasons moves events to the earliest season in which the player
	// played for one of the match's teams. Runs before RepairMatchIDs.
	RepairSeasons bool `koanf:"repair_seasons" yaml:"repair_seasons"`

	// Workbook, when set, also writes every output table as a sheet of one .xlsx.
	Workbook string `koanf:"workbook" yaml:"workbook"`

	// MetricsFile, when set, receives the Prometheus text exposition of the run.
	MetricsFile string `koanf:"metrics_file" yaml:"metrics_file"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		InputDir:          ".",
		OutputDir:         "output",
		FirstSeason:       1,
		LastSeason:        7,
		SeasonFilePattern: "Season_%d.json",
		PlayerStats: []model.StatSource{
			{Dir: "Player_do_or_die", Column: "do_or_die_points"},
			{Dir: "Player_high_5s", Column: "high_5s"},
			{Dir: "Player_avg_raid_points", Column: "avg_raid_points"},
			{Dir: "Player_raidpoints", Column: "raid_points"},
			{Dir: "Player_successful_raids", Column: "successful_raids"},
			{Dir: "Player_successful_tackles", Column: "successful_tackles"},
			{Dir: "Player_super_10s", Column: "super_10s"},
			{Dir: "Player_super_raids", Column: "super_raids"},
			{Dir: "Player_super_takels", Column: "super_tackles"},
			{Dir: "Player_tackle_points", Column: "tackle_points"},
			{Dir: "Player_Total_points", Column: "total_points"},
		},
		TeamStats: []model.StatSource{
			{Dir: "Team_Allouts_conceded", Column: "allouts_conceded"},
			{Dir: "Team_Allouts_inflicted", Column: "allouts_inflicted"},
			{Dir: "Team_avg_points_scored", Column: "avg_points_scored"},
			{Dir: "Team_avg_raid_points", Column: "avg_raid_points"},
			{Dir: "Team_avg_tackle_points", Column: "avg_tackle_points"},
			{Dir: "Team_conceded_points", Column: "conceded_points"},
			{Dir: "Team_do_die_points", Column: "do_or_die_points"},
			{Dir: "Team_points_scored", Column: "points_scored"},
			{Dir: "Team_raid_points", Column: "raid_points"},
			{Dir: "Team_successful_raids", Column: "successful_raids"},
			{Dir: "Team_successful_tackles", Column: "successful_tackles"},
			{Dir: "Team_super_raids", Column: "super_raids"},
			{Dir: "Team_super_tackles", Column: "super_tackles"},
			{Dir: "Team_tackle_points", Column: "tackle_points"},
		},
		TeamAliases:           DefaultTeamAliases(),
		Aggregation:           "last_row",
		EventsFile:            "DS_event_with_timestamps_clean2.csv",
		MatchesFile:           "DS_match_modified.csv",
		PlayerSeasonStatsFile: "player_statistics_all_seasons.csv",
		PlayerStatColumns: map[string]string{
			"Player Name": "player_name",
			"Season":      "season",
			"Team":        "team_name",
		},
		PlayerStatsOutput:   "processed_kabaddi_stats.csv",
		TeamStatsOutput:     "processed_kabaddi_teams_stats.csv",
		LinearComponents:    5,
		EmbeddingComponents: 2,
		Neighbors:           15,
		Epochs:              200,
		Seed:                42,
		ScoringRules:        DefaultScoringRules(),
		WinBonus:            1.25,
	}
}

// DefaultTeamAliases returns a fresh copy of the abbreviation table.
func DefaultTeamAliases() map[string]string {
	return map[string]string{
		"Ben":    "Bengaluru Bulls",
		"Kol":    "Bengal Warriors",
		"Dab":    "Dabang Delhi K.C.",
		"GFG":    "Gujarat Fortunegiants",
		"Hyd":    "Telugu Titans",
		"Del":    "Dabang Delhi K.C.",
		"HS":     "Haryana Steelers",
		"Jai":    "Jaipur Pink Panthers",
		"Jaipur": "Jaipur Pink Panthers",
		"Pat":    "Patna Pirates",
		"Pun":    "Puneri Paltan",
		"TT":     "Tamil Thalaivas",
		"Mum":    "U Mumba",
		"UPY":    "U.P. Yoddha",
	}
}

// DefaultScoringRules returns a fresh copy of the position scoring tables.
func DefaultScoringRules() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"Raider": {
			"Super Raid":          5,
			"Raid Successful":     3,
			"Bonus Point":         1,
			"Raid Unsuccessful":   -2,
			"Tackle Successful":   2,
			"Super Tackle":        3,
			"Tackle Unsuccessful": -1,
		},
		"Defender": {
			"Super Tackle":        5,
			"Tackle Successful":   3,
			"Assist":              1,
			"Tackle Unsuccessful": -2,
			"Raid Successful":     2,
			"Super Raid":          3,
			"Raid Unsuccessful":   -1,
		},
		"All-Rounder": {
			"Super Raid":          4,
			"Raid Successful":     2,
			"Bonus Point":         1,
			"Raid Unsuccessful":   -1,
			"Super Tackle":        4,
			"Tackle Successful":   2,
			"Assist":              1,
			"Tackle Unsuccessful": -1,
		},
	}
}

// Columns lists the output column of every source, in order.
func Columns(sources []model.StatSource) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.Column
	}
	return out
}
