package players

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const listQuery = `
	SELECT
		p.player_name,
		p.position,
		t.abbreviation AS team,
		ps.tier
	FROM public.players p
	LEFT JOIN public.teams t ON p.team_id = t.team_id
	LEFT JOIN public.player_seasons ps ON ps.player_id = p.player_id
	LEFT JOIN public.seasons s ON ps.season_id = s.season_id`

// playerRow mirrors the query columns; the joins make everything but the
// name nullable.
type playerRow struct {
	PlayerName *string `db:"player_name"`
	Position   *string `db:"position"`
	Team       *string `db:"team"`
	Tier       *int    `db:"tier"`
}

// PGRepository reads players from the fantasy database. Each List opens
// and closes its own connection.
type PGRepository struct {
	url string
}

func NewPGRepository(url string) *PGRepository {
	return &PGRepository{url: url}
}

func buildQuery(seasonYear int) (string, []any) {
	if seasonYear > 0 {
		return listQuery + "\n\tWHERE s.year = $1", []any{seasonYear}
	}
	return listQuery, nil
}

func (r *PGRepository) List(ctx context.Context, seasonYear int) ([]Player, error) {
	conn, err := pgx.Connect(ctx, r.url)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	query, args := buildQuery(seasonYear)
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByName[playerRow])
	if err != nil {
		return nil, fmt.Errorf("scan players: %w", err)
	}

	out := make([]Player, 0, len(scanned))
	for _, row := range scanned {
		out = append(out, row.player())
	}
	return out, nil
}

func (row playerRow) player() Player {
	var p Player
	if row.PlayerName != nil {
		p.Name = *row.PlayerName
	}
	if row.Position != nil {
		p.Position = *row.Position
	}
	if row.Team != nil {
		p.Team = *row.Team
	}
	if row.Tier != nil {
		p.Tier = *row.Tier
	}
	return p
}
