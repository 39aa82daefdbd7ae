package players

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"Harrison Jr., Marvin": "Marvin Harrison Jr.",
		"Fehoko, Simi":         "Simi Fehoko",
		"Puka Nacua":           "Puka Nacua",
		"":                     "",
	}
	for in, want := range tests {
		if got := (Player{Name: in}).DisplayName(); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMentioned(t *testing.T) {
	roster := []Player{
		{Name: "Fehoko, Simi", Position: "WR", Team: "ARI", Tier: 2},
		{Name: "Harrison Jr., Marvin", Position: "WR", Team: "ARI", Tier: 1},
		{Name: "Nacua, Puka", Position: "WR", Team: "LAR", Tier: 1},
		{Name: "Harrison Jr., Marvin", Position: "WR", Team: "ARI", Tier: 1},
	}
	text := "This week marvin harrison jr. had a breakout, and Simi Fehoko saw snaps."

	got := Mentioned(text, roster)
	if len(got) != 2 {
		t.Fatalf("Mentioned() = %+v, want 2 players", got)
	}
	if got[0].Name != "Harrison Jr., Marvin" || got[1].Name != "Fehoko, Simi" {
		t.Errorf("order = %s, %s; want tier 1 first", got[0].Name, got[1].Name)
	}
	if Mentioned("", roster) != nil {
		t.Error("empty text should mention nobody")
	}
}

func TestBuildQuery(t *testing.T) {
	q, args := buildQuery(0)
	if strings.Contains(q, "WHERE") || args != nil {
		t.Errorf("all-season query should not filter: %q %v", q, args)
	}
	q, args = buildQuery(2024)
	if !strings.HasSuffix(q, "WHERE s.year = $1") || len(args) != 1 || args[0] != 2024 {
		t.Errorf("season query = %q %v", q, args)
	}
}

func TestPlayerRowNulls(t *testing.T) {
	name, tier := "Nacua, Puka", 3
	got := playerRow{PlayerName: &name, Tier: &tier}.player()
	if got != (Player{Name: "Nacua, Puka", Tier: 3}) {
		t.Errorf("player() = %+v", got)
	}
}

func TestWorkbookRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	in := []Player{
		{Name: "Harrison Jr., Marvin", Position: "WR", Team: "ARI", Tier: 1},
		{Name: "Fehoko, Simi", Position: "WR", Team: "ARI", Tier: 2},
	}
	if err := ExportWorkbook(path, in); err != nil {
		t.Fatalf("ExportWorkbook() error = %v", err)
	}
	out, err := LoadWorkbook(path)
	if err != nil {
		t.Fatalf("LoadWorkbook() error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("row %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestLoadWorkbookHeaderHeuristics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranks.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Rank", "Club", "Player Name", "Pos"},
		{"1", "LAR", "Nacua, Puka", "WR"},
		{"", "", "", ""},
		{"4", "ARI", "Fehoko, Simi", "WR"},
	}
	for i, r := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cellRef, &r); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	got, err := LoadWorkbook(path)
	if err != nil {
		t.Fatalf("LoadWorkbook() error = %v", err)
	}
	want := []Player{
		{Name: "Nacua, Puka", Position: "WR", Team: "LAR", Tier: 1},
		{Name: "Fehoko, Simi", Position: "WR", Team: "ARI", Tier: 4},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadWorkbookMissingFile(t *testing.T) {
	if _, err := LoadWorkbook(filepath.Join(t.TempDir(), "nope.xlsx")); err == nil {
		t.Error("expected error")
	}
}
