package event

import (
	"context"
	"sync"
	"testing"

	"github.com/rushteam/shoprec/core"
)

func TestMemoryStore_Suite(t *testing.T) {
	runEventStoreSuite(t, func(t *testing.T) core.EventStore {
		return NewMemoryStore()
	})
}

func TestMemoryStore_ConcurrentBumps(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	const workers, perWorker = 8, 100
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_ = s.BumpPreference(ctx, "C1", "Sportswear", "Shoes", 0.1)
				_ = s.BumpPopularity(ctx, "P1", core.InteractionClick)
			}
		}()
	}
	wg.Wait()

	prefs, err := s.Preferences(ctx, "C1")
	if err != nil {
		t.Fatal(err)
	}
	want := 0.1 * workers * perWorker
	if len(prefs) != 1 || prefs[0].Score < want-1e-6 || prefs[0].Score > want+1e-6 {
		t.Errorf("prefs = %+v, want single entry with score %v", prefs, want)
	}

	all, err := s.PopularityAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if all["P1"].Clicks != workers*perWorker {
		t.Errorf("clicks = %d, want %d", all["P1"].Clicks, workers*perWorker)
	}
}
