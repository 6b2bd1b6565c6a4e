package domain

import "fmt"

// Faction is one of the three playable company alignments.
type Faction string

const (
	FactionSyndicate Faction = "syndicate"
	FactionMarauders Faction = "marauders"
	FactionCovenant  Faction = "covenant"
)

// Settlements lists the twelve territories where invasions occur.
var Settlements = []string{
	"brightwood",
	"cutlass",
	"ebonscale",
	"everfall",
	"firstlight",
	"monarchs",
	"mourningdale",
	"reekwater",
	"restless",
	"weavers",
	"windsward",
	"brimstone",
}

// LadderRank is one participant's row on an invasion scoreboard.
// Rank is unique within its ladder (1-99). Ladder marks rows sourced from a
// scan or CSV; roster-only imports carry Ladder=false and zero stats.
type LadderRank struct {
	InvasionName string
	Rank         int
	Player       string
	Score        int
	Kills        int
	Deaths       int
	Assists      int
	Heals        int
	Damage       int
	Member       bool
	Ladder       bool
	Adjusted     bool
	Error        bool
}

// RankKey renders a rank the way the scoreboard prints it: zero-padded to two
// digits.
func RankKey(rank int) string {
	return fmt.Sprintf("%02d", rank)
}

// MemberRecord is one tracked company member. Player is the unique key.
type MemberRecord struct {
	Player  string
	Faction Faction
	Start   int // YYYYMMDD
	Salary  bool
	Admin   bool
	Discord string
	Notes   string
}

// Invasion is one dated siege event, identified as YYYYMMDD-settlement.
type Invasion struct {
	Name       string
	Settlement string
	Win        bool
	Date       int // YYYYMMDD
}

// Month returns the YYYYMM key the invasion belongs to.
func (inv Invasion) Month() string {
	return fmt.Sprintf("%06d", inv.Date/100)
}

// InvasionName builds the canonical YYYYMMDD-settlement identifier.
func InvasionName(date int, settlement string) string {
	return fmt.Sprintf("%08d-%s", date, settlement)
}

// MonthlyMemberStat is one member's rollup for one calendar month. Rows are
// never patched incrementally; each generation run recomputes the full set.
type MonthlyMemberStat struct {
	Month  string
	Player string
	Salary bool

	Invasions int
	Wins      int
	Ladders   int

	SumScore   int
	SumKills   int
	SumDeaths  int
	SumAssists int
	SumHeals   int
	SumDamage  int

	AvgScore   float64
	AvgKills   float64
	AvgDeaths  float64
	AvgAssists float64
	AvgHeals   float64
	AvgDamage  float64

	MaxScore   int
	MaxKills   int
	MaxDeaths  int
	MaxAssists int
	MaxHeals   int
	MaxDamage  int

	AvgRank float64
	MaxRank int // minimum numeric rank, i.e. best placement

	// Results maps invasion name to "W", "L" or "-".
	Results map[string]string
}
