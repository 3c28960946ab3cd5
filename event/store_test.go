package event

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/shoprec/core"
)

// runEventStoreSuite 是三个后端共用的一致性测试套件。
func runEventStoreSuite(t *testing.T, newStore func(t *testing.T) core.EventStore) {
	ctx := context.Background()

	t.Run("interactions are grouped counts", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		for i := 0; i < 3; i++ {
			if err := s.RecordInteraction(ctx, "C1", "P1", core.InteractionClick); err != nil {
				t.Fatal(err)
			}
		}
		if err := s.RecordInteraction(ctx, "C1", "P1", core.InteractionView); err != nil {
			t.Fatal(err)
		}
		if err := s.RecordInteraction(ctx, "C2", "P1", core.InteractionClick); err != nil {
			t.Fatal(err)
		}

		got, err := s.Interactions(ctx, "C1")
		if err != nil {
			t.Fatal(err)
		}
		counts := make(map[core.InteractionKind]int64)
		for _, ic := range got {
			if ic.ProductID != "P1" {
				t.Errorf("unexpected product %q", ic.ProductID)
			}
			counts[ic.Kind] = ic.Count
		}
		if counts[core.InteractionClick] != 3 || counts[core.InteractionView] != 1 {
			t.Errorf("counts = %v, want click=3 view=1", counts)
		}

		other, err := s.Interactions(ctx, "C3")
		if err != nil {
			t.Fatal(err)
		}
		if len(other) != 0 {
			t.Errorf("Interactions(C3) = %v, want empty", other)
		}
	})

	t.Run("preference bumps accumulate", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		for i := 0; i < 3; i++ {
			if err := s.BumpPreference(ctx, "C1", "Sportswear", "Shoes", 0.1); err != nil {
				t.Fatal(err)
			}
		}
		if err := s.BumpPreference(ctx, "C1", "Electronics", "Audio", 0.1); err != nil {
			t.Fatal(err)
		}

		prefs, err := s.Preferences(ctx, "C1")
		if err != nil {
			t.Fatal(err)
		}
		if len(prefs) != 2 {
			t.Fatalf("len(prefs) = %d, want 2", len(prefs))
		}
		// 分数降序
		if prefs[0].Category != "Sportswear" || math.Abs(prefs[0].Score-0.3) > 1e-9 {
			t.Errorf("prefs[0] = %+v, want Sportswear 0.3", prefs[0])
		}
		if prefs[1].Category != "Electronics" || math.Abs(prefs[1].Score-0.1) > 1e-9 {
			t.Errorf("prefs[1] = %+v, want Electronics 0.1", prefs[1])
		}
	})

	t.Run("popularity counters and ranking", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		bump := func(id string, kind core.InteractionKind, n int) {
			t.Helper()
			for i := 0; i < n; i++ {
				if err := s.BumpPopularity(ctx, id, kind); err != nil {
					t.Fatal(err)
				}
			}
		}
		bump("P1", core.InteractionClick, 5)
		bump("P1", core.InteractionView, 1)
		bump("P2", core.InteractionView, 3)
		bump("P3", core.InteractionClick, 1)

		all, err := s.PopularityAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got := all["P1"]; got.Clicks != 5 || got.Views != 1 {
			t.Errorf("P1 popularity = %+v, want clicks=5 views=1", got)
		}

		top, err := s.TopPopular(ctx, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(top) != 2 {
			t.Fatalf("len(top) = %d, want 2", len(top))
		}
		if top[0].ProductID != "P1" || top[1].ProductID != "P2" {
			t.Errorf("top = %v, %v, want P1, P2", top[0].ProductID, top[1].ProductID)
		}

		// n <= 0 约定为空结果
		for _, n := range []int{0, -1} {
			if got, err := s.TopPopular(ctx, n); err != nil || len(got) != 0 {
				t.Errorf("TopPopular(%d) = %v, %v, want empty, nil", n, got, err)
			}
		}
	})

	t.Run("empty reads", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		if prefs, err := s.Preferences(ctx, "nobody"); err != nil || len(prefs) != 0 {
			t.Errorf("Preferences = %v, %v, want empty, nil", prefs, err)
		}
		if all, err := s.PopularityAll(ctx); err != nil || len(all) != 0 {
			t.Errorf("PopularityAll = %v, %v, want empty, nil", all, err)
		}
		if top, err := s.TopPopular(ctx, 5); err != nil || len(top) != 0 {
			t.Errorf("TopPopular = %v, %v, want empty, nil", top, err)
		}
	})
}
