// Package render projects ladders and monthly reports into the CSV and
// plain-text tables the messaging collaborator sends out. Column order and
// headers are part of the contract.
package render

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/veskur/warboard-bot/internal/domain"
	"github.com/veskur/warboard-bot/internal/ladder"
	"github.com/veskur/warboard-bot/internal/report"
)

// LadderCSVHeader is the fixed column order of ladder exports and imports.
var LadderCSVHeader = []string{"rank", "player", "score", "kills", "deaths", "assists", "heals", "damage"}

// MonthlyCSVHeader is the fixed leading column order of monthly exports; one
// W/L/- column per invasion follows it.
var MonthlyCSVHeader = []string{
	"player", "invasions", "wins", "ladders",
	"avg_score", "avg_kills", "avg_deaths", "avg_assists", "avg_heals", "avg_damage",
	"avg_rank", "max_rank", "payment",
}

// LadderCSV serializes a ladder in rank order.
func LadderCSV(l *ladder.Ladder) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(LadderCSVHeader); err != nil {
		return "", err
	}
	for _, r := range l.Ranks() {
		record := []string{
			domain.RankKey(r.Rank),
			r.Player,
			strconv.Itoa(r.Score),
			strconv.Itoa(r.Kills),
			strconv.Itoa(r.Deaths),
			strconv.Itoa(r.Assists),
			strconv.Itoa(r.Heals),
			strconv.Itoa(r.Damage),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

// LadderTable renders a ladder as a chat-friendly text block.
func LadderTable(l *ladder.Ladder) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Ladder %s\n", l.InvasionName))
	sb.WriteString(fmt.Sprintf("entries=%d members=%d contiguous=%d\n",
		l.Count(), l.MemberCount(), l.ContiguousFrom1Until()))
	for _, r := range l.Ranks() {
		marker := " "
		switch {
		case r.Error:
			marker = "!"
		case r.Adjusted:
			marker = "*"
		case r.Member:
			marker = "+"
		}
		sb.WriteString(fmt.Sprintf("%s %s %-20s %8d %4d/%-4d %5d %8d %10d\n",
			domain.RankKey(r.Rank), marker, r.Player,
			r.Score, r.Kills, r.Deaths, r.Assists, r.Heals, r.Damage))
	}
	return sb.String()
}

// RosterSummary reports a roster reconciliation result.
func RosterSummary(invasionName string, res ladder.RosterResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Roster %s\n", invasionName))
	sb.WriteString(fmt.Sprintf("matched %d: %s\n", len(res.Matched), strings.Join(res.Matched, ", ")))
	if len(res.Unmatched) > 0 {
		sb.WriteString(fmt.Sprintf("unmatched %d: %s\n", len(res.Unmatched), strings.Join(res.Unmatched, ", ")))
	}
	return sb.String()
}

// MonthlyCSV serializes a month report, payments computed against the pool.
func MonthlyCSV(rep *report.MonthReport, pool int) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append([]string(nil), MonthlyCSVHeader...)
	for _, inv := range rep.Invasions {
		header = append(header, inv.Name)
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, row := range rep.Rows {
		record := []string{
			row.Player,
			strconv.Itoa(row.Invasions),
			strconv.Itoa(row.Wins),
			strconv.Itoa(row.Ladders),
			formatAvg(row.AvgScore),
			formatAvg(row.AvgKills),
			formatAvg(row.AvgDeaths),
			formatAvg(row.AvgAssists),
			formatAvg(row.AvgHeals),
			formatAvg(row.AvgDamage),
			formatAvg(row.AvgRank),
			strconv.Itoa(row.MaxRank),
			strconv.Itoa(report.Payment(row, pool, rep.Participation)),
		}
		for _, inv := range rep.Invasions {
			record = append(record, row.Results[inv.Name])
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

// MonthlyTable renders a compact chat view of a month report.
func MonthlyTable(rep *report.MonthReport, pool int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Month %s: %d invasions, %d active, participation %d\n",
		rep.Month, len(rep.Invasions), rep.Active, rep.Participation))
	for _, row := range rep.Rows {
		if row.Invasions == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("%-20s inv=%d w=%d lad=%d avg=%s rank=%s best=%d",
			row.Player, row.Invasions, row.Wins, row.Ladders,
			formatAvg(row.AvgScore), formatAvg(row.AvgRank), row.MaxRank))
		if pay := report.Payment(row, pool, rep.Participation); pay > 0 {
			sb.WriteString(fmt.Sprintf(" gold=%d", pay))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatAvg(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
