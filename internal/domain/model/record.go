// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// EntityKind distinguishes player tables from team tables.
type EntityKind string

// Supported entity kinds.
const (
	Player EntityKind = "player"
	Team   EntityKind = "team"
)

// NameColumn is the column that identifies an entity of this kind.
func (k EntityKind) NameColumn() string {
	if k == Team {
		return "team_name"
	}
	return "player_name"
}

// IDColumn is the numeric id column coerced alongside the statistics:
// position_id for players, team_id for teams.
func (k EntityKind) IDColumn() string {
	if k == Team {
		return "team_id"
	}
	return "position_id"
}

// Valid reports whether k is a known kind.
func (k EntityKind) Valid() bool { return k == Player || k == Team }

// StatSource binds a statistic directory to the column its values land in.
type StatSource struct {
	Dir    string `koanf:"dir" yaml:"dir" validate:"required"`
	Column string `koanf:"column" yaml:"column" validate:"required"`
}

// StatRecord is one entity's value for one statistic in one season.
// Optional fields are nil when the export did not carry them.
type StatRecord struct {
	Season int
	Stat   string
	Value  any

	Name         *string
	Team         *string
	PlayerID     any
	TeamID       any
	MatchPlayed  any
	PositionID   any
	PositionName *string
}

// EntityName returns the grouping key and whether it is present.
func (r StatRecord) EntityName() (string, bool) {
	if r.Name == nil {
		return "", false
	}
	return *r.Name, true
}

// ToFloat coerces a raw JSON or CSV value to a number. Numbers pass through,
// numeric strings are parsed, everything else is reported as not numeric.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return finite(f)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return finite(f)
	default:
		return 0, false
	}
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Text renders a raw value for a text column; nil becomes "".
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return FormatFloat(x)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// FormatFloat renders numbers the way output tables carry them: integral
// values without a fraction, others in shortest form.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
