// Package report composes ladders, the member directory and the invasion
// list into per-member monthly statistics and gold apportionment.
package report

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/veskur/warboard-bot/internal/domain"
	"github.com/veskur/warboard-bot/internal/ladder"
)

// MonthReport is the full recompute result for one calendar month. Rows
// supersede any previously stored rows for the month; nothing is merged.
type MonthReport struct {
	Month string
	// Invasions in the stable order the W/L columns are displayed in.
	Invasions []domain.Invasion
	Rows      []domain.MonthlyMemberStat
	// Participation is the sum of wins over salaried members.
	Participation int
	// Active counts members that appeared in at least one invasion.
	Active int
}

// Aggregator rolls ladders up into monthly member statistics. It operates on
// immutable snapshots supplied per call and keeps no state between runs.
type Aggregator struct {
	logger *zap.Logger
}

func NewAggregator(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{logger: logger}
}

// Generate computes the month's rows from the current member snapshot, the
// month's invasions and the available ladder per invasion (absent ladders
// contribute nothing). Invasions are iterated in date order so the W/L column
// order is stable; the sums themselves are order-independent.
func (a *Aggregator) Generate(month string, members []domain.MemberRecord, invasions []domain.Invasion, ladders map[string]*ladder.Ladder) *MonthReport {
	inMonth := make([]domain.Invasion, 0, len(invasions))
	for _, inv := range invasions {
		if inv.Month() == month {
			inMonth = append(inMonth, inv)
		}
	}
	sort.Slice(inMonth, func(i, j int) bool {
		if inMonth[i].Date != inMonth[j].Date {
			return inMonth[i].Date < inMonth[j].Date
		}
		return inMonth[i].Name < inMonth[j].Name
	})

	rows := make([]domain.MonthlyMemberStat, 0, len(members))
	for _, m := range members {
		rows = append(rows, a.memberRow(month, m, inMonth, ladders))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Player < rows[j].Player })

	report := &MonthReport{Month: month, Invasions: inMonth, Rows: rows}
	for _, r := range rows {
		if r.Salary {
			report.Participation += r.Wins
		}
		if r.Invasions > 0 {
			report.Active++
		}
	}
	return report
}

func (a *Aggregator) memberRow(month string, m domain.MemberRecord, invasions []domain.Invasion, ladders map[string]*ladder.Ladder) domain.MonthlyMemberStat {
	stat := domain.MonthlyMemberStat{
		Month:   month,
		Player:  m.Player,
		Salary:  m.Salary,
		Results: make(map[string]string, len(invasions)),
	}
	for _, inv := range invasions {
		stat.Results[inv.Name] = "-"
	}

	rankTotal := 0
	for _, inv := range invasions {
		l := ladders[inv.Name]
		if l == nil {
			continue
		}
		entry, found, err := l.RankOf(m.Player)
		if err != nil {
			// Corrupted aggregate: surfaced in the log, member skipped for
			// this invasion, the rest of the rollup continues.
			a.logger.Error("monthly rollup integrity failure",
				zap.String("invasion", inv.Name),
				zap.String("player", m.Player),
				zap.Error(err),
			)
			continue
		}
		if !found {
			continue
		}

		stat.Invasions++
		if inv.Win {
			stat.Results[inv.Name] = "W"
			stat.Wins++
		} else {
			stat.Results[inv.Name] = "L"
		}

		if !entry.Ladder {
			// Roster-only participation counts toward invasions and wins but
			// never toward sums, averages or maxima.
			continue
		}

		stat.Ladders++
		stat.SumScore += entry.Score
		stat.SumKills += entry.Kills
		stat.SumDeaths += entry.Deaths
		stat.SumAssists += entry.Assists
		stat.SumHeals += entry.Heals
		stat.SumDamage += entry.Damage
		rankTotal += entry.Rank

		stat.MaxScore = maxOf(stat.MaxScore, entry.Score)
		stat.MaxKills = maxOf(stat.MaxKills, entry.Kills)
		stat.MaxDeaths = maxOf(stat.MaxDeaths, entry.Deaths)
		stat.MaxAssists = maxOf(stat.MaxAssists, entry.Assists)
		stat.MaxHeals = maxOf(stat.MaxHeals, entry.Heals)
		stat.MaxDamage = maxOf(stat.MaxDamage, entry.Damage)
		// Rank runs the other way: 1 is best, so the "max" keeps the minimum.
		stat.MaxRank = minRank(stat.MaxRank, entry.Rank)
	}

	if stat.Ladders > 0 {
		n := stat.Ladders
		stat.AvgScore = round1(float64(stat.SumScore) / float64(n))
		stat.AvgKills = round1(float64(stat.SumKills) / float64(n))
		stat.AvgDeaths = round1(float64(stat.SumDeaths) / float64(n))
		stat.AvgAssists = round1(float64(stat.SumAssists) / float64(n))
		stat.AvgHeals = round1(float64(stat.SumHeals) / float64(n))
		stat.AvgDamage = round1(float64(stat.SumDamage) / float64(n))
		stat.AvgRank = round1(float64(rankTotal) / float64(n))
	}
	return stat
}

// Payment apportions a gold pool by win participation. Only salaried members
// share the pool; a zero participation denominator pays everyone nothing.
func Payment(row domain.MonthlyMemberStat, pool int, participation int) int {
	if pool <= 0 || !row.Salary || participation <= 0 {
		return 0
	}
	return int(math.Round(float64(row.Wins) * float64(pool) / float64(participation)))
}

// round1 rounds half-up to one decimal place.
func round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// minRank treats 0 as unset; rank 1 is the best placement.
func minRank(current, candidate int) int {
	if current == 0 || candidate < current {
		return candidate
	}
	return current
}

func maxOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}
