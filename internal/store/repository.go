package store

import (
	"context"

	"github.com/veskur/warboard-bot/internal/domain"
)

// Repository persists the member directory, the invasion registry and the
// generated monthly rollups.
type Repository interface {
	ListMembers(ctx context.Context) ([]domain.MemberRecord, error)
	UpsertMember(ctx context.Context, m domain.MemberRecord) error
	DeleteMember(ctx context.Context, player string) error

	ListInvasions(ctx context.Context, month string) ([]domain.Invasion, error)
	UpsertInvasion(ctx context.Context, inv domain.Invasion) error

	// ReplaceMonthlyStats discards every stored row for the month and writes
	// the new set atomically. Rollups are full recomputes, never merges.
	ReplaceMonthlyStats(ctx context.Context, month string, rows []domain.MonthlyMemberStat) error
	MonthlyStats(ctx context.Context, month string) ([]domain.MonthlyMemberStat, error)
}
