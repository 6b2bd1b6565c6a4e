package blockgraph

import (
	"errors"
	"testing"
)

func word(id, text string) Block {
	return Block{ID: id, Type: TypeWord, Text: text}
}

func TestExtractTables(t *testing.T) {
	table := Block{ID: "t1", Type: TypeTable}
	page := Block{ID: "p1", Type: TypePage}

	_, tables, err := ExtractTables([]Block{page, table})
	if err != nil {
		t.Fatalf("ExtractTables: %v", err)
	}
	if len(tables) != 1 || tables[0].ID != "t1" {
		t.Fatalf("unexpected tables: %+v", tables)
	}

	_, _, err = ExtractTables([]Block{page})
	if !errors.Is(err, ErrNoTable) {
		t.Fatalf("expected ErrNoTable, got %v", err)
	}

	_, _, err = ExtractTables([]Block{table, {ID: "t2", Type: TypeTable}})
	if !errors.Is(err, ErrMultipleTables) {
		t.Fatalf("expected ErrMultipleTables, got %v", err)
	}
}

func TestCellText(t *testing.T) {
	blocks := []Block{
		word("w1", "Shen"),
		word("w2", "Yi"),
		word("w3", "157,248"),
		word("w4", "a,b"),
		{ID: "s1", Type: TypeSelectionElement, SelectionStatus: StatusSelected},
		{ID: "s2", Type: TypeSelectionElement, SelectionStatus: "NOT_SELECTED"},
	}
	idx := NewIndex(blocks)

	cell := Block{ID: "c1", Type: TypeCell, ChildIDs: []string{"w1", "w2"}}
	if got := CellText(idx, cell); got != "Shen Yi " {
		t.Errorf("joined words = %q", got)
	}

	// Numeric comma words get quoted so the separator survives CSV output.
	cell = Block{ID: "c2", Type: TypeCell, ChildIDs: []string{"w3"}}
	if got := CellText(idx, cell); got != `"157,248" ` {
		t.Errorf("quoted numeric = %q", got)
	}

	// Non-numeric comma words stay as-is.
	cell = Block{ID: "c3", Type: TypeCell, ChildIDs: []string{"w4"}}
	if got := CellText(idx, cell); got != "a,b " {
		t.Errorf("non-numeric comma = %q", got)
	}

	cell = Block{ID: "c4", Type: TypeCell, ChildIDs: []string{"s1", "s2"}}
	if got := CellText(idx, cell); got != "X " {
		t.Errorf("selection = %q", got)
	}
}

func TestRowsFromTableLastWriteWins(t *testing.T) {
	blocks := []Block{
		word("w1", "first"),
		word("w2", "second"),
		{ID: "c1", Type: TypeCell, Row: 1, Column: 1, ChildIDs: []string{"w1"}},
		{ID: "c2", Type: TypeCell, Row: 1, Column: 1, ChildIDs: []string{"w2"}},
		{ID: "c3", Type: TypeCell, Row: 2, Column: 3, ChildIDs: []string{"w1"}},
	}
	idx := NewIndex(blocks)
	table := Block{ID: "t1", Type: TypeTable, ChildIDs: []string{"c1", "c2", "c3"}}

	rows := RowsFromTable(idx, table)
	if got := rows[1][1]; got != "second " {
		t.Errorf("duplicate cell = %q, want later write", got)
	}
	if got := rows[2][3]; got != "first " {
		t.Errorf("rows[2][3] = %q", got)
	}
}

func TestWords(t *testing.T) {
	blocks := []Block{
		word("w1", "Chatz01"),
		{ID: "l1", Type: TypeLine, Text: "ignored"},
		word("w2", " "),
		word("w3", "Stuggy"),
	}
	got := Words(blocks)
	if len(got) != 2 || got[0] != "Chatz01" || got[1] != "Stuggy" {
		t.Fatalf("Words = %v", got)
	}
}
