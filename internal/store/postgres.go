package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/veskur/warboard-bot/internal/domain"
)

type pgRepository struct {
	db *sql.DB
}

// NewRepository wraps an open postgres handle.
func NewRepository(db *sql.DB) Repository {
	return &pgRepository{db: db}
}

// OpenRepository dials postgres from a connection URL.
func OpenRepository(url string) (Repository, *sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewRepository(db), db, nil
}

func (r *pgRepository) ListMembers(ctx context.Context) ([]domain.MemberRecord, error) {
	const query = `
		SELECT player, faction, start_date, salary, admin, discord, notes
		FROM members
		ORDER BY player`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select members: %w", err)
	}
	defer rows.Close()

	var out []domain.MemberRecord
	for rows.Next() {
		var (
			m       domain.MemberRecord
			discord sql.NullString
			notes   sql.NullString
		)
		if err := rows.Scan(&m.Player, &m.Faction, &m.Start, &m.Salary, &m.Admin, &discord, &notes); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Discord = discord.String
		m.Notes = notes.String
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *pgRepository) UpsertMember(ctx context.Context, m domain.MemberRecord) error {
	const query = `
		INSERT INTO members (player, faction, start_date, salary, admin, discord, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (player)
		DO UPDATE SET
			faction = EXCLUDED.faction,
			start_date = EXCLUDED.start_date,
			salary = EXCLUDED.salary,
			admin = EXCLUDED.admin,
			discord = EXCLUDED.discord,
			notes = EXCLUDED.notes`

	_, err := r.db.ExecContext(ctx, query, m.Player, m.Faction, m.Start, m.Salary, m.Admin, m.Discord, m.Notes)
	if err != nil {
		return fmt.Errorf("upsert member %s: %w", m.Player, err)
	}
	return nil
}

func (r *pgRepository) DeleteMember(ctx context.Context, player string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE player = $1`, player)
	if err != nil {
		return fmt.Errorf("delete member %s: %w", player, err)
	}
	return nil
}

func (r *pgRepository) ListInvasions(ctx context.Context, month string) ([]domain.Invasion, error) {
	const query = `
		SELECT name, settlement, win, invasion_date
		FROM invasions
		WHERE to_char(to_date(invasion_date::text, 'YYYYMMDD'), 'YYYYMM') = $1
		ORDER BY invasion_date, name`

	rows, err := r.db.QueryContext(ctx, query, month)
	if err != nil {
		return nil, fmt.Errorf("select invasions: %w", err)
	}
	defer rows.Close()

	var out []domain.Invasion
	for rows.Next() {
		var inv domain.Invasion
		if err := rows.Scan(&inv.Name, &inv.Settlement, &inv.Win, &inv.Date); err != nil {
			return nil, fmt.Errorf("scan invasion: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *pgRepository) UpsertInvasion(ctx context.Context, inv domain.Invasion) error {
	const query = `
		INSERT INTO invasions (name, settlement, win, invasion_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name)
		DO UPDATE SET settlement = EXCLUDED.settlement, win = EXCLUDED.win, invasion_date = EXCLUDED.invasion_date`

	_, err := r.db.ExecContext(ctx, query, inv.Name, inv.Settlement, inv.Win, inv.Date)
	if err != nil {
		return fmt.Errorf("upsert invasion %s: %w", inv.Name, err)
	}
	return nil
}

func (r *pgRepository) ReplaceMonthlyStats(ctx context.Context, month string, stats []domain.MonthlyMemberStat) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace stats: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM monthly_stats WHERE month = $1`, month); err != nil {
		return fmt.Errorf("clear stats %s: %w", month, err)
	}

	const query = `
		INSERT INTO monthly_stats (
			month, player, salary,
			invasions, wins, ladders,
			sum_score, sum_kills, sum_deaths, sum_assists, sum_heals, sum_damage,
			avg_score, avg_kills, avg_deaths, avg_assists, avg_heals, avg_damage,
			max_score, max_kills, max_deaths, max_assists, max_heals, max_damage,
			avg_rank, max_rank, results
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27::jsonb)`

	for _, s := range stats {
		results, err := json.Marshal(s.Results)
		if err != nil {
			return fmt.Errorf("marshal results for %s: %w", s.Player, err)
		}
		if _, err := tx.ExecContext(ctx, query,
			month, s.Player, s.Salary,
			s.Invasions, s.Wins, s.Ladders,
			s.SumScore, s.SumKills, s.SumDeaths, s.SumAssists, s.SumHeals, s.SumDamage,
			s.AvgScore, s.AvgKills, s.AvgDeaths, s.AvgAssists, s.AvgHeals, s.AvgDamage,
			s.MaxScore, s.MaxKills, s.MaxDeaths, s.MaxAssists, s.MaxHeals, s.MaxDamage,
			s.AvgRank, s.MaxRank, results,
		); err != nil {
			return fmt.Errorf("insert stat %s/%s: %w", month, s.Player, err)
		}
	}
	return tx.Commit()
}

func (r *pgRepository) MonthlyStats(ctx context.Context, month string) ([]domain.MonthlyMemberStat, error) {
	const query = `
		SELECT
			month, player, salary,
			invasions, wins, ladders,
			sum_score, sum_kills, sum_deaths, sum_assists, sum_heals, sum_damage,
			avg_score, avg_kills, avg_deaths, avg_assists, avg_heals, avg_damage,
			max_score, max_kills, max_deaths, max_assists, max_heals, max_damage,
			avg_rank, max_rank, results
		FROM monthly_stats
		WHERE month = $1
		ORDER BY player`

	rows, err := r.db.QueryContext(ctx, query, month)
	if err != nil {
		return nil, fmt.Errorf("select stats: %w", err)
	}
	defer rows.Close()

	var out []domain.MonthlyMemberStat
	for rows.Next() {
		var (
			s           domain.MonthlyMemberStat
			resultsJSON []byte
		)
		if err := rows.Scan(
			&s.Month, &s.Player, &s.Salary,
			&s.Invasions, &s.Wins, &s.Ladders,
			&s.SumScore, &s.SumKills, &s.SumDeaths, &s.SumAssists, &s.SumHeals, &s.SumDamage,
			&s.AvgScore, &s.AvgKills, &s.AvgDeaths, &s.AvgAssists, &s.AvgHeals, &s.AvgDamage,
			&s.MaxScore, &s.MaxKills, &s.MaxDeaths, &s.MaxAssists, &s.MaxHeals, &s.MaxDamage,
			&s.AvgRank, &s.MaxRank, &resultsJSON,
		); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		if err := json.Unmarshal(resultsJSON, &s.Results); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
