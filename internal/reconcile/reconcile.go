// Package reconcile cross-checks the event log against match results and
// player team assignments, and optionally moves events to a season or match
// the player's team actually played.
package reconcile

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/kabaddi/internal/domain/dedupe"
	"github.com/okian/kabaddi/internal/domain/model"
	"github.com/okian/kabaddi/internal/domain/table"
)

var (
	decidedResult = regexp.MustCompile(`(.+?)\s+(?:beat|tied with|drew with)\s+(.+?)\s+\([0-9]+\s*[-–]\s*[0-9]+\)`)
	fixtureResult = regexp.MustCompile(`(.+?)\s+vs\s+(.+)`)
)

// ParseResult extracts both team names from a result such as
// "A beat B (40-30)", "A tied with B (30-30)" or "A vs B".
func ParseResult(result string) (string, string, bool) {
	if m := decidedResult.FindStringSubmatch(result); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	if m := fixtureResult.FindStringSubmatch(result); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

// Key identifies a player in a season.
type Key struct {
	Player string
	Season string
}

// PlayerTeams lists the teams each player played for in a season, in
// first-seen order.
type PlayerTeams map[Key][]string

// NewPlayerTeams indexes a player statistics table with player_name, season
// and team_name columns. Names pass through normalize, teams through canonical.
func NewPlayerTeams(t *table.Table, normalize, canonical func(string) string) (PlayerTeams, error) {
	if err := t.Require("player_name", "season", "team_name"); err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	sets := make(map[Key]*dedupe.OrderedSet)
	var order []Key
	for r := range t.Rows {
		k := Key{Player: normalize(t.Value(r, "player_name")), Season: table.JoinKey(t.Value(r, "season"))}
		team := canonical(t.Value(r, "team_name"))
		if team == "" {
			continue
		}
		s, ok := sets[k]
		if !ok {
			s = dedupe.NewOrderedSet(dedupe.WithKeyFold(strings.ToLower))
			sets[k] = s
			order = append(order, k)
		}
		s.SeenAndRecord(team)
	}
	out := make(PlayerTeams, len(order))
	for _, k := range order {
		out[k] = sets[k].Items()
	}
	return out, nil
}

// Lookup returns the teams of player in season.
func (p PlayerTeams) Lookup(player string, season int) ([]string, bool) {
	teams, ok := p[Key{Player: player, Season: fmt.Sprint(season)}]
	return teams, ok
}

// Issue is one inconsistent event.
type Issue struct {
	EventID string
	Player  string
	Season  int
	MatchID string
	Issue   string
}

type fixture struct {
	home, away string
}

func (f fixture) has(team string) bool {
	return strings.EqualFold(f.home, team) || strings.EqualFold(f.away, team)
}

// playedBy reports whether any of teams took part in the fixture.
func (f fixture) playedBy(teams []string) bool {
	for _, t := range teams {
		if f.has(t) {
			return true
		}
	}
	return false
}

func fixtures(matches []model.Match, canonical func(string) string) map[string]fixture {
	out := make(map[string]fixture, len(matches))
	for _, m := range matches {
		if a, b, ok := ParseResult(m.Result); ok {
			out[m.MatchID] = fixture{home: canonical(a), away: canonical(b)}
		}
	}
	return out
}

// Check reports events whose player is unknown in the season, whose match
// is unknown, or whose match did not involve any of the player's teams.
func Check(events []model.Event, matches []model.Match, teams PlayerTeams, canonical func(string) string) []Issue {
	byID := fixtures(matches, canonical)
	var issues []Issue
	for _, e := range events {
		issue := Issue{EventID: e.EventID, Player: e.PlayerName, Season: e.Season, MatchID: e.MatchID}
		playerTeams, ok := teams.Lookup(e.PlayerName, e.Season)
		if !ok {
			issue.Issue = fmt.Sprintf("Player %s not found in season %d", e.PlayerName, e.Season)
			issues = append(issues, issue)
			continue
		}
		f, ok := byID[e.MatchID]
		if !ok {
			issue.Issue = fmt.Sprintf("Match ID %s not found in matches data", e.MatchID)
			issues = append(issues, issue)
			continue
		}
		if !f.playedBy(playerTeams) {
			issue.Issue = fmt.Sprintf("Player %s played for [%s] in season %d, but match %s was between %s and %s",
				e.PlayerName, strings.Join(playerTeams, ", "), e.Season, e.MatchID, f.home, f.away)
			issues = append(issues, issue)
		}
	}
	return issues
}

// RepairMatchIDs moves each event whose match did not involve the player's
// first team to the first match of the same season that team played. Events
// of unknown players, or with no alternative match, are left unchanged.
// Returns a new slice and the number of events moved.
func RepairMatchIDs(events []model.Event, matches []model.Match, teams PlayerTeams, canonical func(string) string) ([]model.Event, int) {
	byID := fixtures(matches, canonical)
	out := make([]model.Event, len(events))
	copy(out, events)

	moved := 0
	for i, e := range out {
		playerTeams, ok := teams.Lookup(e.PlayerName, e.Season)
		if !ok || len(playerTeams) == 0 {
			continue
		}
		team := playerTeams[0]
		if f, ok := byID[e.MatchID]; ok && f.has(team) {
			continue
		}
		for _, m := range matches {
			if m.Season != e.Season {
				continue
			}
			if f, ok := byID[m.MatchID]; ok && f.has(team) {
				if out[i].MatchID != m.MatchID {
					out[i].MatchID = m.MatchID
					moved++
				}
				break
			}
		}
	}
	return out, moved
}

// seasons lists the numeric seasons of every player in ascending order.
func (p PlayerTeams) seasons() map[string][]int {
	out := make(map[string][]int)
	for k := range p {
		n, err := strconv.Atoi(k.Season)
		if err != nil {
			continue
		}
		out[k.Player] = append(out[k.Player], n)
	}
	for _, s := range out {
		sort.Ints(s)
	}
	return out
}

// RepairSeasons moves each event whose player is unknown in its season, or
// whose match did not involve any of the player's teams, to the earliest
// season in which the player played for one of the match's teams. Events with
// an unknown match, or with no such season, are left unchanged.
// Returns a new slice and the number of events moved.
func RepairSeasons(events []model.Event, matches []model.Match, teams PlayerTeams, canonical func(string) string) ([]model.Event, int) {
	byID := fixtures(matches, canonical)
	seasons := teams.seasons()
	out := make([]model.Event, len(events))
	copy(out, events)

	moved := 0
	for i, e := range out {
		f, ok := byID[e.MatchID]
		if !ok {
			continue
		}
		if current, ok := teams.Lookup(e.PlayerName, e.Season); ok && f.playedBy(current) {
			continue
		}
		for _, season := range seasons[e.PlayerName] {
			candidate, _ := teams.Lookup(e.PlayerName, season)
			if !f.playedBy(candidate) {
				continue
			}
			if season != e.Season {
				out[i].Season = season
				moved++
			}
			break
		}
	}
	return out, moved
}

// EventsTable renders events with the columns of the event log.
func EventsTable(events []model.Event) *table.Table {
	out := table.New("fixed_events_dataset", "event_id", "player_name", "role", "season", "event_type", "match_id")
	for _, e := range events {
		out.Append(e.EventID, e.PlayerName, e.Role, fmt.Sprint(e.Season), e.EventType, e.MatchID)
	}
	return out
}

// IssuesTable renders issues as inconsistent_records.
func IssuesTable(issues []Issue) *table.Table {
	out := table.New("inconsistent_records", "event_id", "player_name", "season", "match_id", "issue")
	for _, i := range issues {
		out.Append(i.EventID, i.Player, fmt.Sprint(i.Season), i.MatchID, i.Issue)
	}
	return out
}
