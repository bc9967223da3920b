package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/kabaddi/internal/domain/model"
	"github.com/okian/kabaddi/internal/domain/table"
)

// ReadTable reads a CSV file into a table named after the file.
func ReadTable(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadTable, err)
	}
	defer func() { _ = f.Close() }()

	t, err := table.ReadCSV(filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadTable, err)
	}
	return t, nil
}

// Event log and match columns after header normalization.
var (
	eventColumns = []string{"player_name", "role", "season", "event_type", "match_id"}
	matchColumns = []string{"match_id", "season", "result"}
)

// ReadEvents reads the event log. Headers are normalized and the required
// columns checked; player names are normalized with normalize.
func ReadEvents(path string, normalize func(string) string) ([]model.Event, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	t.NormalizeHeaders()
	if err := t.Require(eventColumns...); err != nil {
		return nil, err
	}

	events := make([]model.Event, t.Len())
	for r := range t.Rows {
		events[r] = model.Event{
			EventID:    strings.TrimSpace(t.Value(r, "event_id")),
			PlayerName: normalize(t.Value(r, "player_name")),
			Role:       strings.TrimSpace(t.Value(r, "role")),
			Season:     int(t.FloatOrZero(r, "season")),
			EventType:  strings.TrimSpace(t.Value(r, "event_type")),
			MatchID:    table.JoinKey(t.Value(r, "match_id")),
		}
	}
	return events, nil
}

// ReadMatches reads the match metadata file.
func ReadMatches(path string) ([]model.Match, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	t.NormalizeHeaders()
	if err := t.Require(matchColumns...); err != nil {
		return nil, err
	}

	matches := make([]model.Match, t.Len())
	for r := range t.Rows {
		matches[r] = model.Match{
			MatchID: table.JoinKey(t.Value(r, "match_id")),
			Season:  int(t.FloatOrZero(r, "season")),
			Result:  strings.TrimSpace(t.Value(r, "result")),
		}
	}
	return matches, nil
}
