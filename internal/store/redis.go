// Package store persists ladders, members, invasions and monthly stats. The
// engine packages never import it; aggregates cross this boundary as plain
// values.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/veskur/warboard-bot/internal/domain"
	"github.com/veskur/warboard-bot/internal/ladder"
)

// LadderStore keeps one JSON blob per invasion ladder in redis, with a
// per-month index set so reports can enumerate what was uploaded.
type LadderStore struct {
	rdb *redis.Client
}

func NewLadderStore(rdb *redis.Client) *LadderStore {
	return &LadderStore{rdb: rdb}
}

// OpenLadderStore dials redis from a redis:// URL.
func OpenLadderStore(url string) (*LadderStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewLadderStore(redis.NewClient(opt)), nil
}

func (s *LadderStore) Close() error {
	return s.rdb.Close()
}

func (s *LadderStore) keyLadder(invasion string) string { return "wb:ladder:" + strings.TrimSpace(invasion) }
func (s *LadderStore) keyMonth(month string) string     { return "wb:ladders:" + strings.TrimSpace(month) }

// monthOf derives the YYYYMM index key from a YYYYMMDD-settlement name.
func monthOf(invasion string) string {
	if len(invasion) >= 6 {
		return invasion[:6]
	}
	return invasion
}

// Save writes the ladder blob and registers it in its month index.
func (s *LadderStore) Save(ctx context.Context, l *ladder.Ladder) error {
	if l == nil || strings.TrimSpace(l.InvasionName) == "" {
		return fmt.Errorf("ladder with invasion name is required")
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal ladder: %w", err)
	}
	if err := s.rdb.Set(ctx, s.keyLadder(l.InvasionName), raw, 0).Err(); err != nil {
		return fmt.Errorf("save ladder %s: %w", l.InvasionName, err)
	}
	return s.rdb.SAdd(ctx, s.keyMonth(monthOf(l.InvasionName)), l.InvasionName).Err()
}

// Load returns the ladder for an invasion, or nil when none was uploaded.
func (s *LadderStore) Load(ctx context.Context, invasion string) (*ladder.Ladder, error) {
	raw, err := s.rdb.Get(ctx, s.keyLadder(invasion)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ladder %s: %w", invasion, err)
	}
	var l ladder.Ladder
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("unmarshal ladder %s: %w", invasion, err)
	}
	if l.Entries == nil {
		l.Entries = make(map[int]domain.LadderRank)
	}
	return &l, nil
}

// Delete removes a ladder and its index entry.
func (s *LadderStore) Delete(ctx context.Context, invasion string) error {
	if err := s.rdb.Del(ctx, s.keyLadder(invasion)).Err(); err != nil {
		return err
	}
	return s.rdb.SRem(ctx, s.keyMonth(monthOf(invasion)), invasion).Err()
}

// ListMonth returns the invasion names with uploaded ladders for a month,
// sorted for stable display order.
func (s *LadderStore) ListMonth(ctx context.Context, month string) ([]string, error) {
	names, err := s.rdb.SMembers(ctx, s.keyMonth(month)).Result()
	if err != nil {
		return nil, fmt.Errorf("list ladders %s: %w", month, err)
	}
	sort.Strings(names)
	return names, nil
}

// LoadMonth fetches every uploaded ladder for a month keyed by invasion name.
func (s *LadderStore) LoadMonth(ctx context.Context, month string) (map[string]*ladder.Ladder, error) {
	names, err := s.ListMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*ladder.Ladder, len(names))
	for _, name := range names {
		l, err := s.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		if l != nil {
			out[name] = l
		}
	}
	return out, nil
}
