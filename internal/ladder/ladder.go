// Package ladder owns the per-invasion scoreboard aggregate and the builders
// that produce it from OCR scans, roster screens and CSV imports.
package ladder

import (
	"errors"
	"fmt"
	"sort"

	"github.com/veskur/warboard-bot/internal/domain"
)

var (
	// ErrRankNotFound is returned by edits and lookups against a rank that
	// is not present in the aggregate.
	ErrRankNotFound = errors.New("rank not found")
	// ErrDataIntegrity signals that more than one entry matches a single
	// player within one invasion. It is never silently resolved; upstream
	// state is corrupted.
	ErrDataIntegrity = errors.New("duplicate ladder entry for player")
)

// Ladder is the ordered set of ranks for one invasion. Entries are keyed by
// rank position; no two entries share a rank. The aggregate is a plain value
// type, unaware of any storage backend.
type Ladder struct {
	InvasionName string                    `json:"invasion_name"`
	Entries      map[int]domain.LadderRank `json:"entries"`
}

// New returns an empty ladder for the named invasion.
func New(invasionName string) *Ladder {
	return &Ladder{
		InvasionName: invasionName,
		Entries:      make(map[int]domain.LadderRank),
	}
}

// Count returns the number of ranks in the aggregate.
func (l *Ladder) Count() int {
	return len(l.Entries)
}

// MemberCount counts entries that represent company members: roster-only
// entries always count, scan-sourced entries only once they carry a score.
func (l *Ladder) MemberCount() int {
	n := 0
	for _, r := range l.Entries {
		if r.Member && (!r.Ladder || r.Score > 0) {
			n++
		}
	}
	return n
}

// ContiguousFrom1Until returns the length of the longest unbroken rank run
// starting at rank 1. Ranks [1,2,3,5] give 3, [2,3,4] give 0. A shortfall
// against Count signals a missing screenshot without aborting anything.
func (l *Ladder) ContiguousFrom1Until() int {
	n := 0
	for {
		if _, ok := l.Entries[n+1]; !ok {
			return n
		}
		n++
	}
}

// Ranks returns the entries sorted ascending by rank.
func (l *Ladder) Ranks() []domain.LadderRank {
	out := make([]domain.LadderRank, 0, len(l.Entries))
	for _, r := range l.Entries {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

// Put stores an entry at its rank position. Re-imports targeting an already
// populated position overwrite it; the aggregate performs no deduplication
// across import calls.
func (l *Ladder) Put(r domain.LadderRank) {
	r.InvasionName = l.InvasionName
	l.Entries[r.Rank] = r
}

// Get returns the entry at a rank position.
func (l *Ladder) Get(rank int) (domain.LadderRank, bool) {
	r, ok := l.Entries[rank]
	return r, ok
}

// RankOf finds a player's entry by exact name. More than one hit is a data
// integrity failure and is raised, never resolved by picking one.
func (l *Ladder) RankOf(player string) (domain.LadderRank, bool, error) {
	var found domain.LadderRank
	hits := 0
	for _, r := range l.Entries {
		if r.Player == player {
			found = r
			hits++
		}
	}
	if hits > 1 {
		return domain.LadderRank{}, false, fmt.Errorf("%w: %s appears %d times in %s",
			ErrDataIntegrity, player, hits, l.InvasionName)
	}
	return found, hits == 1, nil
}

// EditRequest describes one repair operation. Nil fields are left untouched.
type EditRequest struct {
	Rank    int
	NewRank *int
	Player  *string
	Member  *bool
	Score   *int
}

// Edit applies a repair to the aggregate and returns an old-to-new diff
// summary for audit display.
//
// A missing rank with no player supplied is an error; with a player supplied
// a new entry is created at that position. A present rank either moves (when
// NewRank is set, vacating the old position) or has its value fields mutated
// in place. Every touched entry is marked adjusted.
func (l *Ladder) Edit(req EditRequest) (string, error) {
	current, ok := l.Entries[req.Rank]
	if !ok {
		if req.Player == nil {
			return "", fmt.Errorf("%w: rank %s not found in %s, supply a player name to create it",
				ErrRankNotFound, domain.RankKey(req.Rank), l.InvasionName)
		}
		created := domain.LadderRank{
			InvasionName: l.InvasionName,
			Rank:         req.Rank,
			Player:       *req.Player,
			Ladder:       true,
			Adjusted:     true,
		}
		if req.Member != nil {
			created.Member = *req.Member
		}
		if req.Score != nil {
			created.Score = *req.Score
		}
		l.Entries[created.Rank] = created
		return fmt.Sprintf("(none) -> %s", summarize(created)), nil
	}

	before := summarize(current)
	if req.NewRank != nil {
		delete(l.Entries, req.Rank)
		current.Rank = *req.NewRank
	}
	if req.Player != nil {
		current.Player = *req.Player
	}
	if req.Member != nil {
		current.Member = *req.Member
	}
	if req.Score != nil {
		current.Score = *req.Score
	}
	current.Adjusted = true
	l.Entries[current.Rank] = current

	return fmt.Sprintf("%s -> %s", before, summarize(current)), nil
}

func summarize(r domain.LadderRank) string {
	return fmt.Sprintf("#%s %s score=%d member=%t", domain.RankKey(r.Rank), r.Player, r.Score, r.Member)
}
