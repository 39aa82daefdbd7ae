// Package players provides player metadata (name, position, team, tier)
// from Postgres or from a roster workbook.
package players

import (
	"context"
	"sort"
	"strings"
)

type Player struct {
	Name     string `json:"player_name"`
	Position string `json:"position"`
	Team     string `json:"team"`
	Tier     int    `json:"tier"`
}

// DisplayName turns the stored "Harrison Jr., Marvin" form into
// "Marvin Harrison Jr.". Names without a comma are returned unchanged.
func (p Player) DisplayName() string {
	i := strings.LastIndex(p.Name, ", ")
	if i < 0 {
		return p.Name
	}
	return strings.TrimSpace(p.Name[i+2:]) + " " + strings.TrimSpace(p.Name[:i])
}

// Source lists players, optionally for one season. seasonYear <= 0 means
// all seasons.
type Source interface {
	List(ctx context.Context, seasonYear int) ([]Player, error)
}

// Mentioned returns the roster players whose name appears in text, in
// either stored or display form, sorted by tier then name.
func Mentioned(text string, roster []Player) []Player {
	lower := strings.ToLower(text)
	seen := map[string]bool{}
	var out []Player
	for _, p := range roster {
		if p.Name == "" || seen[p.Name] {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p.DisplayName())) || strings.Contains(lower, strings.ToLower(p.Name)) {
			seen[p.Name] = true
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].Name < out[j].Name
	})
	return out
}
