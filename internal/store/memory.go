package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/veskur/warboard-bot/internal/domain"
)

// memRepository is a development and test implementation used when no DB is
// configured.
type memRepository struct {
	mu sync.RWMutex

	members   map[string]domain.MemberRecord
	invasions map[string]domain.Invasion
	stats     map[string][]domain.MonthlyMemberStat // month -> rows
}

func NewMemoryRepository() Repository {
	return &memRepository{
		members:   make(map[string]domain.MemberRecord),
		invasions: make(map[string]domain.Invasion),
		stats:     make(map[string][]domain.MonthlyMemberStat),
	}
}

func (m *memRepository) ListMembers(ctx context.Context) ([]domain.MemberRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.MemberRecord, 0, len(m.members))
	for _, rec := range m.members {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Player < out[j].Player })
	return out, nil
}

func (m *memRepository) UpsertMember(ctx context.Context, rec domain.MemberRecord) error {
	m.mu.Lock()
	m.members[rec.Player] = rec
	m.mu.Unlock()
	return nil
}

func (m *memRepository) DeleteMember(ctx context.Context, player string) error {
	m.mu.Lock()
	delete(m.members, player)
	m.mu.Unlock()
	return nil
}

func (m *memRepository) ListInvasions(ctx context.Context, month string) ([]domain.Invasion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Invasion
	for _, inv := range m.invasions {
		if inv.Month() == strings.TrimSpace(month) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *memRepository) UpsertInvasion(ctx context.Context, inv domain.Invasion) error {
	m.mu.Lock()
	m.invasions[inv.Name] = inv
	m.mu.Unlock()
	return nil
}

func (m *memRepository) ReplaceMonthlyStats(ctx context.Context, month string, rows []domain.MonthlyMemberStat) error {
	m.mu.Lock()
	m.stats[month] = append([]domain.MonthlyMemberStat(nil), rows...)
	m.mu.Unlock()
	return nil
}

func (m *memRepository) MonthlyStats(ctx context.Context, month string) ([]domain.MonthlyMemberStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.MonthlyMemberStat(nil), m.stats[month]...), nil
}
