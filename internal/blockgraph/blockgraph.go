// Package blockgraph turns a raw OCR block list into a row/column text grid.
//
// The block graph is the already-retrieved response of an external
// document-analysis service: a flat list of typed blocks related by child
// edges. This package only resolves that graph; it never talks to the
// service.
package blockgraph

import (
	"errors"
	"strings"
)

// Block types as emitted by the analysis service.
const (
	TypePage             = "PAGE"
	TypeTable            = "TABLE"
	TypeCell             = "CELL"
	TypeWord             = "WORD"
	TypeSelectionElement = "SELECTION_ELEMENT"
	TypeLine             = "LINE"
)

// StatusSelected marks a checked selection element.
const StatusSelected = "SELECTED"

var (
	// ErrNoTable means the image holds no ladder; the caller skips it.
	ErrNoTable = errors.New("no table found in block graph")
	// ErrMultipleTables means the image is ambiguous and must be rejected.
	ErrMultipleTables = errors.New("multiple tables found in block graph")
)

// Block is one node of the OCR block graph. Row and Column are 1-based and
// only populated on CELL blocks.
type Block struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	Text            string   `json:"text,omitempty"`
	Row             int      `json:"row,omitempty"`
	Column          int      `json:"column,omitempty"`
	ChildIDs        []string `json:"child_ids,omitempty"`
	SelectionStatus string   `json:"selection_status,omitempty"`
}

// Index resolves block ids to blocks.
type Index map[string]Block

// NewIndex builds the id lookup for a block list.
func NewIndex(blocks []Block) Index {
	idx := make(Index, len(blocks))
	for _, b := range blocks {
		idx[b.ID] = b
	}
	return idx
}

// ExtractTables returns the id index and the TABLE-typed blocks. Zero tables
// or more than one table are structural failures for this image only.
func ExtractTables(blocks []Block) (Index, []Block, error) {
	idx := NewIndex(blocks)
	var tables []Block
	for _, b := range blocks {
		if b.Type == TypeTable {
			tables = append(tables, b)
		}
	}
	switch len(tables) {
	case 0:
		return idx, nil, ErrNoTable
	case 1:
		return idx, tables, nil
	default:
		return idx, tables, ErrMultipleTables
	}
}

// CellText resolves a CELL's children to its text. Word texts are joined with
// single spaces. A word containing a comma whose digits are fully numeric
// once the comma is stripped gets wrapped in literal double quotes so a
// thousands separator survives later comma-delimited serialization. A
// selected selection element contributes a literal "X " token.
func CellText(idx Index, cell Block) string {
	var sb strings.Builder
	for _, id := range cell.ChildIDs {
		child, ok := idx[id]
		if !ok {
			continue
		}
		switch child.Type {
		case TypeWord:
			text := child.Text
			if strings.Contains(text, ",") && allDigits(strings.ReplaceAll(text, ",", "")) {
				text = `"` + text + `"`
			}
			sb.WriteString(text)
			sb.WriteString(" ")
		case TypeSelectionElement:
			if child.SelectionStatus == StatusSelected {
				sb.WriteString("X ")
			}
		}
	}
	return sb.String()
}

// RowsFromTable walks the table's child cells into row -> {col -> text}.
// A duplicate (row, col) keeps the later write.
func RowsFromTable(idx Index, table Block) map[int]map[int]string {
	rows := make(map[int]map[int]string)
	for _, id := range table.ChildIDs {
		cell, ok := idx[id]
		if !ok || cell.Type != TypeCell {
			continue
		}
		cols, ok := rows[cell.Row]
		if !ok {
			cols = make(map[int]string)
			rows[cell.Row] = cols
		}
		cols[cell.Column] = CellText(idx, cell)
	}
	return rows
}

// Words returns every WORD text in the graph, in input order. Roster screens
// carry no table, so their names are reduced straight from the word list.
func Words(blocks []Block) []string {
	var out []string
	for _, b := range blocks {
		if b.Type == TypeWord && strings.TrimSpace(b.Text) != "" {
			out = append(out, b.Text)
		}
	}
	return out
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
