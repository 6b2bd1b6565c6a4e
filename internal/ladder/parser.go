package ladder

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/veskur/warboard-bot/internal/blockgraph"
	"github.com/veskur/warboard-bot/internal/domain"
	"github.com/veskur/warboard-bot/internal/roster"
	"github.com/veskur/warboard-bot/internal/sanitize"
)

// Grid columns after offset correction. Exactly 8 populated columns means the
// OCR saw no icon column; 9 or 10 means an extra leading column was detected.
const (
	colRank    = 1
	colPlayer  = 2
	colScore   = 3
	colKills   = 4
	colDeaths  = 5
	colAssists = 6
	colHeals   = 7
	colDamage  = 8

	minColumns = 8
	maxColumns = 10
)

// Parser builds ladder aggregates from the supported sources. The member
// directory and logger are injected; the parser holds no storage or transport
// handles.
type Parser struct {
	dir    *roster.Directory
	logger *zap.Logger
}

// NewParser wires a parser over a member directory snapshot.
func NewParser(dir *roster.Directory, logger *zap.Logger) (*Parser, error) {
	if dir == nil {
		return nil, fmt.Errorf("member directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{dir: dir, logger: logger}, nil
}

// FromTable resolves a ladder screenshot's block graph into an aggregate.
// Structural failures (zero or several tables) reject this image only. A
// malformed row is logged and dropped; the remaining rows always continue.
func (p *Parser) FromTable(blocks []blockgraph.Block, invasionName string) (*Ladder, error) {
	idx, tables, err := blockgraph.ExtractTables(blocks)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", invasionName, err)
	}

	rows := blockgraph.RowsFromTable(idx, tables[0])
	rowIdx := make([]int, 0, len(rows))
	for i := range rows {
		rowIdx = append(rowIdx, i)
	}
	sort.Ints(rowIdx)

	l := New(invasionName)
	for _, i := range rowIdx {
		rank, err := p.buildRank(rows[i], invasionName)
		if err != nil {
			p.logger.Warn("ladder row dropped",
				zap.String("invasion", invasionName),
				zap.Int("row", i),
				zap.Error(err),
			)
			continue
		}
		l.Put(rank)
	}
	return l, nil
}

func (p *Parser) buildRank(cols map[int]string, invasionName string) (domain.LadderRank, error) {
	offset := 1
	switch {
	case len(cols) == minColumns:
		offset = 0
	case len(cols) > maxColumns || len(cols) < minColumns:
		return domain.LadderRank{}, fmt.Errorf("unsupported column count %d", len(cols))
	}

	cell := func(col int) string { return cols[col+offset] }

	rank := sanitize.Numeric(cell(colRank))
	if rank < 1 || rank > 99 {
		return domain.LadderRank{}, fmt.Errorf("rank %q out of range", strings.TrimSpace(cell(colRank)))
	}

	player := strings.TrimRight(cell(colPlayer), " ")
	name, isMember := p.dir.IsMember(strings.TrimSpace(player), false)
	if isMember {
		player = name
	}

	return domain.LadderRank{
		InvasionName: invasionName,
		Rank:         rank,
		Player:       player,
		Score:        sanitize.Numeric(cell(colScore)),
		Kills:        sanitize.Numeric(cell(colKills)),
		Deaths:       sanitize.Numeric(cell(colDeaths)),
		Assists:      sanitize.Numeric(cell(colAssists)),
		Heals:        sanitize.Numeric(cell(colHeals)),
		Damage:       sanitize.Numeric(cell(colDamage)),
		Member:       isMember,
		Ladder:       true,
	}, nil
}

// RosterResult reports how a roster screen reconciled against the directory.
type RosterResult struct {
	Matched   []string
	Unmatched []string
}

// FromRoster reduces a table-less war-board screenshot to its word list,
// reconciles every candidate against the directory with partial matching, and
// builds a score-less aggregate: matched members at sequential ranks with
// ladder=false, so they count as participants without polluting stat sums.
func (p *Parser) FromRoster(blocks []blockgraph.Block, invasionName string) (*Ladder, RosterResult, error) {
	words := blockgraph.Words(blocks)
	matched, unmatched := p.dir.Reconcile(words)

	l := New(invasionName)
	for i, name := range matched {
		l.Put(domain.LadderRank{
			InvasionName: invasionName,
			Rank:         i + 1,
			Player:       name,
			Member:       true,
			Ladder:       false,
		})
	}
	if len(unmatched) > 0 {
		p.logger.Info("roster candidates unmatched",
			zap.String("invasion", invasionName),
			zap.Strings("unmatched", unmatched),
		)
	}
	return l, RosterResult{Matched: matched, Unmatched: unmatched}, nil
}

// FromCSV loads a manually corrected ladder from comma-separated
// rank,player,score,kills,deaths,assists,heals,damage rows. Bad rows are
// logged and dropped like scan rows.
func (p *Parser) FromCSV(r io.Reader, invasionName string) (*Ladder, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	l := New(invasionName)
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			p.logger.Warn("csv row dropped",
				zap.String("invasion", invasionName),
				zap.Int("line", line),
				zap.Error(err),
			)
			continue
		}
		rank, err := p.buildCSVRank(record, invasionName)
		if err != nil {
			p.logger.Warn("csv row dropped",
				zap.String("invasion", invasionName),
				zap.Int("line", line),
				zap.Error(err),
			)
			continue
		}
		l.Put(rank)
	}
	return l, nil
}

func (p *Parser) buildCSVRank(record []string, invasionName string) (domain.LadderRank, error) {
	if len(record) != 8 {
		return domain.LadderRank{}, fmt.Errorf("expected 8 fields, got %d", len(record))
	}
	rank := sanitize.Numeric(record[0])
	if rank < 1 || rank > 99 {
		return domain.LadderRank{}, fmt.Errorf("rank %q out of range", record[0])
	}
	player := strings.TrimSpace(record[1])
	name, isMember := p.dir.IsMember(player, false)
	if isMember {
		player = name
	}
	return domain.LadderRank{
		InvasionName: invasionName,
		Rank:         rank,
		Player:       player,
		Score:        sanitize.Numeric(record[2]),
		Kills:        sanitize.Numeric(record[3]),
		Deaths:       sanitize.Numeric(record[4]),
		Assists:      sanitize.Numeric(record[5]),
		Heals:        sanitize.Numeric(record[6]),
		Damage:       sanitize.Numeric(record[7]),
		Member:       isMember,
		Ladder:       true,
	}, nil
}
