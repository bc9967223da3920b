package features

import (
	"sort"

	"github.com/okian/kabaddi/internal/domain/dedupe"
	"github.com/okian/kabaddi/internal/domain/model"
	"github.com/okian/kabaddi/internal/domain/table"
)

// SynergyPair is two players seen in the same match. P1 appeared first.
type SynergyPair struct {
	P1, P2  string
	MatchID string
}

// Synergy emits, per match, every pair of distinct players in first-appearance
// order. Matches are visited in id order; repeated co-occurrence across
// matches yields repeated pairs.
func Synergy(events []model.Event) []SynergyPair {
	players := make(map[string][]string)
	for _, e := range events {
		name := NormalizeName(e.PlayerName)
		if e.MatchID == "" || name == "" {
			continue
		}
		players[e.MatchID] = append(players[e.MatchID], name)
	}

	ids := make([]string, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })

	var pairs []SynergyPair
	for _, id := range ids {
		ps := dedupe.Distinct(players[id])
		for i := range ps {
			for j := i + 1; j < len(ps); j++ {
				pairs = append(pairs, SynergyPair{P1: ps[i], P2: ps[j], MatchID: id})
			}
		}
	}
	return pairs
}

// SynergyTable renders pairs as p1, p2, match_id.
func SynergyTable(pairs []SynergyPair) *table.Table {
	out := table.New("player_synergy", "p1", "p2", "match_id")
	for _, p := range pairs {
		out.Append(p.P1, p.P2, p.MatchID)
	}
	return out
}

// lessID orders numeric ids numerically, before any non-numeric id.
func lessID(a, b string) bool {
	fa, oka := model.ToFloat(a)
	fb, okb := model.ToFloat(b)
	switch {
	case oka && okb:
		if fa != fb {
			return fa < fb
		}
		return a < b
	case oka != okb:
		return oka
	default:
		return a < b
	}
}
