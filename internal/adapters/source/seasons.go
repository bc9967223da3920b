package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/kabaddi/internal/domain/model"
	"github.com/okian/kabaddi/pkg/logger"
	"github.com/okian/kabaddi/pkg/metrics"
)

// Default loader configuration constants.
const (
	defaultFirstSeason = 1
	defaultLastSeason  = 7
	defaultPattern     = "Season_%d.json"
)

// Skip reasons reported to metrics.
const (
	reasonMissing   = "missing"
	reasonMalformed = "malformed"
	reasonNoData    = "no_data"
	reasonNotObject = "not_object"
)

// SeasonLoader turns one statistic directory of season files into records.
// It never fails: unreadable files and entries are logged and skipped.
type SeasonLoader struct {
	root        string
	firstSeason int
	lastSeason  int
	pattern     string
	logger      logger.Logger
}

// NewSeasonLoader creates a loader for statistic directories under root.
func NewSeasonLoader(root string, opts ...Option) *SeasonLoader {
	l := &SeasonLoader{
		root:        root,
		firstSeason: defaultFirstSeason,
		lastSeason:  defaultLastSeason,
		pattern:     defaultPattern,
		logger:      logger.Get().Named("loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadSeasons reads every season file of src and returns the records it could parse.
func (l *SeasonLoader) LoadSeasons(ctx context.Context, src model.StatSource, kind model.EntityKind) []model.StatRecord {
	var records []model.StatRecord
	for season := l.firstSeason; season <= l.lastSeason; season++ {
		if ctx.Err() != nil {
			l.logger.Warn(ctx, "loading interrupted", logger.String("dir", src.Dir), logger.Error(ctx.Err()))
			break
		}
		path := filepath.Join(l.root, src.Dir, fmt.Sprintf(l.pattern, season))
		got, ok := l.loadFile(ctx, path, season, src.Column, kind)
		if !ok {
			continue
		}
		metrics.RecordFileLoaded(string(kind))
		records = append(records, got...)
	}
	metrics.RecordRecordsLoaded(string(kind), len(records))
	l.logger.Debug(ctx, "statistic loaded",
		logger.String("dir", src.Dir),
		logger.String("column", src.Column),
		logger.Int("records", len(records)))
	return records
}

func (l *SeasonLoader) loadFile(ctx context.Context, path string, season int, stat string, kind model.EntityKind) ([]model.StatRecord, bool) {
	body, err := os.ReadFile(path)
	if err != nil {
		reason := reasonMalformed
		if errors.Is(err, fs.ErrNotExist) {
			reason = reasonMissing
			l.logger.Warn(ctx, "season file not found, skipping", logger.String("path", path))
		} else {
			l.logger.Error(ctx, "season file unreadable, skipping", logger.String("path", path), logger.Error(err))
		}
		metrics.RecordFileSkipped(string(kind), reason)
		return nil, false
	}

	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		l.logger.Error(ctx, "season file is not valid JSON, skipping", logger.String("path", path), logger.Error(err))
		metrics.RecordFileSkipped(string(kind), reasonMalformed)
		return nil, false
	}

	items, ok := doc["data"].([]any)
	if !ok {
		l.logger.Error(ctx, "season file has no data list, skipping", logger.String("path", path))
		metrics.RecordFileSkipped(string(kind), reasonNoData)
		return nil, false
	}

	records := make([]model.StatRecord, 0, len(items))
	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			l.logger.Warn(ctx, "non-object entry in data list, skipping",
				logger.String("path", path), logger.Int("index", i))
			metrics.RecordItemSkipped("loader", reasonNotObject)
			continue
		}
		records = append(records, toRecord(item, season, stat, kind))
	}
	return records, true
}

func toRecord(item map[string]any, season int, stat string, kind model.EntityKind) model.StatRecord {
	r := model.StatRecord{
		Season:      season,
		Stat:        stat,
		Value:       item["value"],
		MatchPlayed: item["match_played"],
	}
	switch kind {
	case model.Team:
		r.Name = textField(item, "team_name", "team")
		r.Team = r.Name
		r.TeamID = item["team_id"]
	default:
		r.Name = textField(item, "player_name", "player")
		r.Team = textField(item, "team_name", "team")
		r.PlayerID = item["player_id"]
		r.PositionID = item["position_id"]
		r.PositionName = textField(item, "position_name")
	}
	return r
}

// textField returns the first present, non-empty key as text; nil when none is.
func textField(item map[string]any, keys ...string) *string {
	for _, k := range keys {
		v, ok := item[k]
		if !ok || empty(v) {
			continue
		}
		s := model.Text(v)
		return &s
	}
	return nil
}

func empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}
