package players

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const rosterSheet = "Players"

var rosterHeader = []string{"player_name", "position", "team", "tier"}

// LoadWorkbook reads a roster from the first sheet of an xlsx file. Columns
// are found by header: anything with "name" or "player", "pos", "team" or
// "club", and "tier" or "rank". Rows without a name are skipped.
func LoadWorkbook(path string) ([]Player, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	nameIdx, posIdx, teamIdx, tierIdx := -1, -1, -1, -1
	for i, h := range rows[0] {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "name") || strings.Contains(l, "player"):
			if nameIdx == -1 {
				nameIdx = i
			}
		case strings.Contains(l, "pos"):
			posIdx = i
		case strings.Contains(l, "team") || strings.Contains(l, "club"):
			teamIdx = i
		case strings.Contains(l, "tier") || strings.Contains(l, "rank"):
			tierIdx = i
		}
	}
	if nameIdx == -1 {
		// roster exports without a header row name start with the name
		nameIdx = 0
	}

	cell := func(r []string, idx int) string {
		if idx >= 0 && idx < len(r) {
			return strings.TrimSpace(r[idx])
		}
		return ""
	}

	var out []Player
	for _, r := range rows[1:] {
		p := Player{
			Name:     cell(r, nameIdx),
			Position: cell(r, posIdx),
			Team:     cell(r, teamIdx),
		}
		if p.Name == "" {
			continue
		}
		p.Tier, _ = strconv.Atoi(cell(r, tierIdx))
		out = append(out, p)
	}
	return out, nil
}

// ExportWorkbook writes players to a single "Players" sheet with a header
// row that LoadWorkbook reads back.
func ExportWorkbook(path string, players []Player) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(rosterSheet, "A1", &rosterHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, p := range players {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{p.Name, p.Position, p.Team, p.Tier}
		if err := f.SetSheetRow(rosterSheet, cellRef, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
