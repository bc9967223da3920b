package standardize

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/kabaddi/internal/domain/model"
	"github.com/okian/kabaddi/internal/domain/table"
	"github.com/okian/kabaddi/pkg/logger"
	"github.com/okian/kabaddi/pkg/metrics"
)

const matchPlayedColumn = "match_played"

// EntityRow is the collapsed row of one entity.
type EntityRow struct {
	Name         string
	Season       int
	Team         string
	PlayerID     string
	PositionName string
	// Numeric holds match_played, the id column and every statistic column.
	Numeric map[string]float64
}

// EntityTable holds one row per entity name, ordered by name.
type EntityTable struct {
	Kind        model.EntityKind
	StatColumns []string
	Rows        []EntityRow
}

// Standardizer turns record lists into entity tables.
type Standardizer struct {
	canon  Canonicalizer
	policy Policy
	logger logger.Logger
}

// New creates a Standardizer. Without WithAliases no names are rewritten.
func New(opts ...Option) *Standardizer {
	s := &Standardizer{
		canon:  NewCanonicalizer(nil),
		policy: LastRow,
		logger: logger.Get().Named("standardizer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Canonicalizer returns the team alias mapping in use.
func (s *Standardizer) Canonicalizer() Canonicalizer { return s.canon }

// Standardize collapses records of one entity kind into an EntityTable.
// statColumns lists every statistic column to emit, in order; columns that
// never occur in records are emitted as zeros. Returns ErrNoData when there
// is nothing to collapse.
func (s *Standardizer) Standardize(ctx context.Context, records []model.StatRecord, kind model.EntityKind, statColumns []string) (*EntityTable, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("standardize: unknown entity kind %q", kind)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, kind)
	}
	if c := s.canon.Conflicts(); len(c) > 0 {
		s.logger.Warn(ctx, "alias table is not idempotent", logger.Any("names", c))
	}

	cols := make([]string, len(statColumns))
	for i, c := range statColumns {
		cols[i] = normalize(c)
	}

	named := make([]model.StatRecord, 0, len(records))
	for _, r := range records {
		if _, ok := r.EntityName(); ok {
			named = append(named, r)
		}
	}
	if dropped := len(records) - len(named); dropped > 0 {
		s.logger.Warn(ctx, "records without entity name dropped",
			logger.String("kind", string(kind)), logger.Int("count", dropped))
		for i := 0; i < dropped; i++ {
			metrics.RecordItemSkipped("standardizer", "no_entity_name")
		}
	}
	if len(named) == 0 {
		return nil, fmt.Errorf("%w: no named %s records", ErrNoData, kind)
	}

	sort.SliceStable(named, func(i, j int) bool {
		a, b := *named[i].Name, *named[j].Name
		if a != b {
			return a < b
		}
		return named[i].Season < named[j].Season
	})

	out := &EntityTable{Kind: kind, StatColumns: cols}
	for start := 0; start < len(named); {
		end := start + 1
		for end < len(named) && *named[end].Name == *named[start].Name {
			end++
		}
		out.Rows = append(out.Rows, s.collapse(named[start:end], kind, cols))
		start = end
	}

	s.logger.Info(ctx, "standardized",
		logger.String("kind", string(kind)),
		logger.Int("records", len(records)),
		logger.Int("entities", len(out.Rows)),
		logger.String("policy", string(s.policy)))
	return out, nil
}

// collapse builds one row from an entity's records sorted by season.
func (s *Standardizer) collapse(group []model.StatRecord, kind model.EntityKind, cols []string) EntityRow {
	if s.policy == LastRow {
		group = group[len(group)-1:]
	}

	var (
		team, position        *string
		playerID, matchPlayed any
		idValue               any
	)
	stats := make(map[string]any, len(cols))
	for _, r := range group {
		if r.Team != nil {
			team = r.Team
		}
		if r.PositionName != nil {
			position = r.PositionName
		}
		if r.PlayerID != nil {
			playerID = r.PlayerID
		}
		if r.MatchPlayed != nil {
			matchPlayed = r.MatchPlayed
		}
		id := r.PositionID
		if kind == model.Team {
			id = r.TeamID
		}
		if id != nil {
			idValue = id
		}
		if r.Value != nil {
			stats[normalize(r.Stat)] = r.Value
		}
	}

	last := group[len(group)-1]
	row := EntityRow{
		Name:     *last.Name,
		Season:   last.Season,
		PlayerID: model.Text(playerID),
		Numeric:  make(map[string]float64, len(cols)+2),
	}
	if team != nil {
		row.Team = s.canon.Canonical(*team)
	}
	if position != nil {
		row.PositionName = *position
	}
	if kind == model.Team {
		row.Name = row.Team
	}

	row.Numeric[matchPlayedColumn] = coerce(matchPlayed)
	row.Numeric[kind.IDColumn()] = coerce(idValue)
	for _, c := range cols {
		row.Numeric[c] = coerce(stats[c])
	}
	return row
}

// Columns returns the output column order.
func (t *EntityTable) Columns() []string {
	var cols []string
	if t.Kind == model.Team {
		cols = []string{"team_name", "season", "team_id", matchPlayedColumn}
	} else {
		cols = []string{"player_name", "season", "team_name", "player_id", matchPlayedColumn, "position_id", "position_name"}
	}
	return append(cols, t.StatColumns...)
}

// ToTable renders the entity table as a string table.
func (t *EntityTable) ToTable(name string) *table.Table {
	out := table.New(name, t.Columns()...)
	for _, r := range t.Rows {
		cells := make([]string, 0, len(out.Columns))
		for _, c := range out.Columns {
			switch c {
			case "player_name":
				cells = append(cells, r.Name)
			case "team_name":
				cells = append(cells, r.Team)
			case "season":
				cells = append(cells, fmt.Sprint(r.Season))
			case "player_id":
				cells = append(cells, r.PlayerID)
			case "position_name":
				cells = append(cells, r.PositionName)
			default:
				cells = append(cells, model.FormatFloat(r.Numeric[c]))
			}
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

func coerce(v any) float64 {
	f, _ := model.ToFloat(v)
	return f
}

func normalize(c string) string { return strings.ToLower(strings.TrimSpace(c)) }
