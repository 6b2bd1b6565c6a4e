package ladder

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/veskur/warboard-bot/internal/blockgraph"
	"github.com/veskur/warboard-bot/internal/roster"
)

func newTestParser(t *testing.T, members ...string) *Parser {
	t.Helper()
	p, err := NewParser(roster.NewDirectoryFromNames(members, nil), nil)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	return p
}

// tableGraph builds a one-table block graph from rows of cell texts. Column
// indices start at firstCol so tests can simulate the extra icon column.
func tableGraph(t *testing.T, firstCol int, rows ...[]string) []blockgraph.Block {
	t.Helper()
	blocks := []blockgraph.Block{{ID: "page", Type: blockgraph.TypePage}}
	table := blockgraph.Block{ID: "table", Type: blockgraph.TypeTable}
	nextID := 0
	for ri, cells := range rows {
		for ci, text := range cells {
			nextID++
			wordID := "w" + strconv.Itoa(nextID)
			cellID := "c" + strconv.Itoa(nextID)
			blocks = append(blocks, blockgraph.Block{ID: wordID, Type: blockgraph.TypeWord, Text: text})
			blocks = append(blocks, blockgraph.Block{
				ID:       cellID,
				Type:     blockgraph.TypeCell,
				Row:      ri + 1,
				Column:   ci + firstCol,
				ChildIDs: []string{wordID},
			})
			table.ChildIDs = append(table.ChildIDs, cellID)
		}
	}
	return append(blocks, table)
}

func TestFromTableEightColumns(t *testing.T) {
	p := newTestParser(t, "Shen Yi")
	blocks := tableGraph(t, 1,
		[]string{"01", "Shen Yi", "157,248", "151", "0", "136", "0", "7,416,913"},
	)
	l, err := p.FromTable(blocks, "20260815-everfall")
	if err != nil {
		t.Fatalf("FromTable: %v", err)
	}
	if l.Count() != 1 {
		t.Fatalf("count = %d", l.Count())
	}
	r, ok := l.Get(1)
	if !ok {
		t.Fatal("rank 1 missing")
	}
	if r.Player != "Shen Yi" || !r.Member || !r.Ladder || r.Adjusted || r.Error {
		t.Fatalf("row = %+v", r)
	}
	if r.Score != 157248 || r.Kills != 151 || r.Assists != 136 || r.Damage != 7416913 {
		t.Fatalf("stats = %+v", r)
	}
}

func TestFromTableNineColumnsOffset(t *testing.T) {
	p := newTestParser(t, "Stuggy")
	// Extra icon column OCR'd at column 1 shifts every field right by one.
	blocks := tableGraph(t, 1,
		[]string{"X", "02", "Stuggy", "9,000", "10", "2", "3", "100", "50,000"},
	)
	l, err := p.FromTable(blocks, "20260815-everfall")
	if err != nil {
		t.Fatalf("FromTable: %v", err)
	}
	r, ok := l.Get(2)
	if !ok || r.Player != "Stuggy" || r.Score != 9000 {
		t.Fatalf("offset row = %+v ok=%v", r, ok)
	}
}

func TestFromTableSkipsBadRows(t *testing.T) {
	p := newTestParser(t)
	blocks := tableGraph(t, 1,
		[]string{"01", "Good", "100", "1", "1", "1", "1", "1"},
		[]string{"only", "three", "cols"},
		[]string{"not-a-rank", "Bad", "100", "1", "1", "1", "1", "1"},
	)
	l, err := p.FromTable(blocks, "20260815-everfall")
	if err != nil {
		t.Fatalf("FromTable: %v", err)
	}
	if l.Count() != 1 {
		t.Fatalf("count = %d, want only the good row", l.Count())
	}
}

func TestFromTableStructural(t *testing.T) {
	p := newTestParser(t)
	_, err := p.FromTable([]blockgraph.Block{{ID: "p", Type: blockgraph.TypePage}}, "x")
	if !errors.Is(err, blockgraph.ErrNoTable) {
		t.Fatalf("expected ErrNoTable, got %v", err)
	}
}

func TestFromRoster(t *testing.T) {
	p := newTestParser(t, "Chatz01", "Stuggy")
	blocks := []blockgraph.Block{
		{ID: "w1", Type: blockgraph.TypeWord, Text: "Chatz01"},
		{ID: "w2", Type: blockgraph.TypeWord, Text: "Stuggy"},
		{ID: "w3", Type: blockgraph.TypeWord, Text: "RandomNonMember"},
	}
	l, res, err := p.FromRoster(blocks, "20260816-windsward")
	if err != nil {
		t.Fatalf("FromRoster: %v", err)
	}
	if len(res.Matched) != 2 || len(res.Unmatched) != 1 || res.Unmatched[0] != "RandomNonMember" {
		t.Fatalf("result = %+v", res)
	}
	if l.Count() != 2 {
		t.Fatalf("count = %d", l.Count())
	}
	for _, r := range l.Ranks() {
		if r.Ladder || r.Score != 0 || !r.Member {
			t.Fatalf("roster entry = %+v", r)
		}
	}
}

func TestFromCSV(t *testing.T) {
	p := newTestParser(t, "Shen Yi")
	src := strings.Join([]string{
		`01,Shen Yi,157248,151,0,136,0,7416913`,
		`garbage row`,
		`02,Outsider,900,1,2,3,4,5`,
	}, "\n")
	l, err := p.FromCSV(strings.NewReader(src), "20260815-everfall")
	if err != nil {
		t.Fatalf("FromCSV: %v", err)
	}
	if l.Count() != 2 {
		t.Fatalf("count = %d", l.Count())
	}
	r, _ := l.Get(1)
	if !r.Member || !r.Ladder || r.Score != 157248 {
		t.Fatalf("csv row = %+v", r)
	}
	r, _ = l.Get(2)
	if r.Member {
		t.Fatalf("non-member flagged: %+v", r)
	}
}
