package store

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/veskur/warboard-bot/internal/domain"
	"github.com/veskur/warboard-bot/internal/ladder"
)

func newTestLadderStore(t *testing.T) *LadderStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	s, err := OpenLadderStore(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("OpenLadderStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLadderStoreRoundTrip(t *testing.T) {
	s := newTestLadderStore(t)
	ctx := context.Background()

	l := ladder.New("20260815-everfall")
	l.Put(domain.LadderRank{Rank: 1, Player: "Shen Yi", Score: 157248, Member: true, Ladder: true})
	l.Put(domain.LadderRank{Rank: 2, Player: "Stuggy", Score: 500, Member: true, Ladder: true})

	if err := s.Save(ctx, l); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx, "20260815-everfall")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.Count() != 2 {
		t.Fatalf("loaded = %+v", got)
	}
	r, ok := got.Get(1)
	if !ok || r.Player != "Shen Yi" || r.Score != 157248 || !r.Ladder {
		t.Fatalf("entry = %+v", r)
	}

	missing, err := s.Load(ctx, "20260816-windsward")
	if err != nil || missing != nil {
		t.Fatalf("missing ladder: %v, %v", missing, err)
	}
}

func TestLadderStoreMonthIndex(t *testing.T) {
	s := newTestLadderStore(t)
	ctx := context.Background()

	for _, name := range []string{"20260815-everfall", "20260802-windsward", "20260901-reekwater"} {
		l := ladder.New(name)
		l.Put(domain.LadderRank{Rank: 1, Player: "p", Ladder: true})
		if err := s.Save(ctx, l); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
	}

	names, err := s.ListMonth(ctx, "202608")
	if err != nil {
		t.Fatalf("ListMonth: %v", err)
	}
	if len(names) != 2 || names[0] != "20260802-windsward" || names[1] != "20260815-everfall" {
		t.Fatalf("names = %v", names)
	}

	ladders, err := s.LoadMonth(ctx, "202608")
	if err != nil || len(ladders) != 2 {
		t.Fatalf("LoadMonth = %v, %v", ladders, err)
	}

	if err := s.Delete(ctx, "20260815-everfall"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	names, _ = s.ListMonth(ctx, "202608")
	if len(names) != 1 {
		t.Fatalf("after delete = %v", names)
	}
}
