package report

import (
	"reflect"
	"testing"

	"github.com/veskur/warboard-bot/internal/domain"
	"github.com/veskur/warboard-bot/internal/ladder"
)

func member(name string, salary bool) domain.MemberRecord {
	return domain.MemberRecord{Player: name, Faction: domain.FactionSyndicate, Salary: salary}
}

func scanEntry(rank int, player string, score, kills int) domain.LadderRank {
	return domain.LadderRank{Rank: rank, Player: player, Score: score, Kills: kills, Member: true, Ladder: true}
}

func fixtures() ([]domain.MemberRecord, []domain.Invasion, map[string]*ladder.Ladder) {
	members := []domain.MemberRecord{
		member("Shen Yi", true),
		member("Stuggy", true),
		member("Freeloader", false),
	}
	invasions := []domain.Invasion{
		{Name: "20260802-everfall", Settlement: "everfall", Win: true, Date: 20260802},
		{Name: "20260810-windsward", Settlement: "windsward", Win: false, Date: 20260810},
		{Name: "20260820-brightwood", Settlement: "brightwood", Win: true, Date: 20260820},
	}

	l1 := ladder.New("20260802-everfall")
	l1.Put(scanEntry(1, "Shen Yi", 1000, 10))
	l1.Put(scanEntry(2, "Stuggy", 500, 4))

	l2 := ladder.New("20260810-windsward")
	l2.Put(scanEntry(3, "Shen Yi", 400, 5))

	// Roster-only capture: participation without stats.
	l3 := ladder.New("20260820-brightwood")
	l3.Put(domain.LadderRank{Rank: 1, Player: "Shen Yi", Member: true, Ladder: false})
	l3.Put(domain.LadderRank{Rank: 2, Player: "Freeloader", Member: true, Ladder: false})

	ladders := map[string]*ladder.Ladder{
		l1.InvasionName: l1,
		l2.InvasionName: l2,
		l3.InvasionName: l3,
	}
	return members, invasions, ladders
}

func rowFor(t *testing.T, r *MonthReport, player string) domain.MonthlyMemberStat {
	t.Helper()
	for _, row := range r.Rows {
		if row.Player == player {
			return row
		}
	}
	t.Fatalf("no row for %s", player)
	return domain.MonthlyMemberStat{}
}

func TestGenerate(t *testing.T) {
	members, invasions, ladders := fixtures()
	rep := NewAggregator(nil).Generate("202608", members, invasions, ladders)

	shen := rowFor(t, rep, "Shen Yi")
	if shen.Invasions != 3 || shen.Wins != 2 || shen.Ladders != 2 {
		t.Fatalf("shen counters = %+v", shen)
	}
	if shen.SumScore != 1400 || shen.AvgScore != 700.0 || shen.MaxScore != 1000 {
		t.Fatalf("shen score stats = %+v", shen)
	}
	if shen.AvgRank != 2.0 || shen.MaxRank != 1 {
		t.Fatalf("shen rank stats = %+v", shen)
	}
	want := map[string]string{
		"20260802-everfall":   "W",
		"20260810-windsward":  "L",
		"20260820-brightwood": "W",
	}
	if !reflect.DeepEqual(shen.Results, want) {
		t.Fatalf("shen results = %v", shen.Results)
	}

	stuggy := rowFor(t, rep, "Stuggy")
	if stuggy.Invasions != 1 || stuggy.Wins != 1 || stuggy.Ladders != 1 {
		t.Fatalf("stuggy counters = %+v", stuggy)
	}
	if stuggy.Results["20260810-windsward"] != "-" {
		t.Fatalf("stuggy placeholder = %v", stuggy.Results)
	}

	// Roster-only member: invasions/wins counted, stats untouched.
	free := rowFor(t, rep, "Freeloader")
	if free.Invasions != 1 || free.Wins != 1 || free.Ladders != 0 {
		t.Fatalf("freeloader counters = %+v", free)
	}
	if free.SumScore != 0 || free.AvgScore != 0 || free.MaxRank != 0 {
		t.Fatalf("freeloader stats leaked = %+v", free)
	}

	// Participation sums wins over salaried members only; Freeloader's win
	// is excluded.
	if rep.Participation != 3 {
		t.Fatalf("participation = %d", rep.Participation)
	}
	if rep.Active != 3 {
		t.Fatalf("active = %d", rep.Active)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	members, invasions, ladders := fixtures()
	agg := NewAggregator(nil)
	a := agg.Generate("202608", members, invasions, ladders)
	b := agg.Generate("202608", members, invasions, ladders)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two runs over identical inputs differ")
	}
}

func TestGenerateFiltersMonth(t *testing.T) {
	members, invasions, ladders := fixtures()
	invasions = append(invasions, domain.Invasion{
		Name: "20260901-reekwater", Settlement: "reekwater", Win: true, Date: 20260901,
	})
	rep := NewAggregator(nil).Generate("202608", members, invasions, ladders)
	if len(rep.Invasions) != 3 {
		t.Fatalf("september invasion leaked into august: %v", rep.Invasions)
	}
}

func TestGenerateMissingLadder(t *testing.T) {
	members := []domain.MemberRecord{member("Shen Yi", true)}
	invasions := []domain.Invasion{
		{Name: "20260802-everfall", Settlement: "everfall", Win: true, Date: 20260802},
	}
	rep := NewAggregator(nil).Generate("202608", members, invasions, nil)
	row := rowFor(t, rep, "Shen Yi")
	if row.Invasions != 0 || row.Results["20260802-everfall"] != "-" {
		t.Fatalf("missing ladder contributed: %+v", row)
	}
}

func TestRoundingHalfUp(t *testing.T) {
	if got := round1(0.25); got != 0.3 {
		t.Errorf("round1(0.25) = %v", got)
	}
	if got := round1(2.04); got != 2.0 {
		t.Errorf("round1(2.04) = %v", got)
	}
}

func TestPayment(t *testing.T) {
	salaried := domain.MonthlyMemberStat{Player: "a", Salary: true, Wins: 3}
	unsalaried := domain.MonthlyMemberStat{Player: "b", Salary: false, Wins: 3}

	if got := Payment(salaried, 1000, 10); got != 300 {
		t.Errorf("salaried payment = %d", got)
	}
	if got := Payment(unsalaried, 1000, 10); got != 0 {
		t.Errorf("non-salaried payment = %d", got)
	}
	if got := Payment(salaried, 1000, 0); got != 0 {
		t.Errorf("zero participation payment = %d", got)
	}
	if got := Payment(salaried, 0, 10); got != 0 {
		t.Errorf("zero pool payment = %d", got)
	}
}
