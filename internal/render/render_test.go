package render

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/veskur/warboard-bot/internal/domain"
	"github.com/veskur/warboard-bot/internal/ladder"
	"github.com/veskur/warboard-bot/internal/report"
)

func testLadder() *ladder.Ladder {
	l := ladder.New("20260815-everfall")
	l.Put(domain.LadderRank{Rank: 2, Player: "Stuggy", Score: 500, Member: true, Ladder: true})
	l.Put(domain.LadderRank{Rank: 1, Player: "Shen Yi", Score: 157248, Kills: 151, Assists: 136, Damage: 7416913, Member: true, Ladder: true})
	return l
}

func TestLadderCSV(t *testing.T) {
	out, err := LadderCSV(testLadder())
	if err != nil {
		t.Fatalf("LadderCSV: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse back: %v", err)
	}
	if strings.Join(records[0], ",") != "rank,player,score,kills,deaths,assists,heals,damage" {
		t.Fatalf("header = %v", records[0])
	}
	if records[1][0] != "01" || records[1][1] != "Shen Yi" || records[1][2] != "157248" {
		t.Fatalf("first row = %v", records[1])
	}
	if records[2][0] != "02" {
		t.Fatalf("rows not rank ordered: %v", records[2])
	}
}

func TestLadderTable(t *testing.T) {
	out := LadderTable(testLadder())
	if !strings.Contains(out, "20260815-everfall") {
		t.Fatalf("missing invasion header: %q", out)
	}
	if !strings.Contains(out, "entries=2 members=2 contiguous=2") {
		t.Fatalf("missing summary line: %q", out)
	}
	if strings.Index(out, "Shen Yi") > strings.Index(out, "Stuggy") {
		t.Fatal("rows not rank ordered")
	}
}

func TestMonthlyCSV(t *testing.T) {
	rep := &report.MonthReport{
		Month: "202608",
		Invasions: []domain.Invasion{
			{Name: "20260802-everfall", Win: true, Date: 20260802},
		},
		Rows: []domain.MonthlyMemberStat{
			{
				Player: "Shen Yi", Salary: true,
				Invasions: 1, Wins: 1, Ladders: 1,
				AvgScore: 700.0, AvgRank: 2.0, MaxRank: 1,
				Results: map[string]string{"20260802-everfall": "W"},
			},
		},
		Participation: 1,
		Active:        1,
	}
	out, err := MonthlyCSV(rep, 1000)
	if err != nil {
		t.Fatalf("MonthlyCSV: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse back: %v", err)
	}
	wantHeader := "player,invasions,wins,ladders,avg_score,avg_kills,avg_deaths,avg_assists,avg_heals,avg_damage,avg_rank,max_rank,payment,20260802-everfall"
	if strings.Join(records[0], ",") != wantHeader {
		t.Fatalf("header = %v", records[0])
	}
	row := records[1]
	if row[0] != "Shen Yi" || row[4] != "700.0" || row[12] != "1000" || row[13] != "W" {
		t.Fatalf("row = %v", row)
	}
}
