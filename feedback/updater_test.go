package feedback

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/event"
)

type staticCatalog struct {
	products map[string]core.Product
}

func (c *staticCatalog) Products() []core.Product { return nil }
func (c *staticCatalog) ProductByID(id string) (core.Product, bool) {
	p, ok := c.products[id]
	return p, ok
}
func (c *staticCatalog) ProductVector(string) (core.Vector, bool)   { return core.Vector{}, false }
func (c *staticCatalog) GroupMean(string, string) (core.Vector, bool) {
	return core.Vector{}, false
}
func (c *staticCatalog) CustomerPrior(string) (core.Vector, bool) { return core.Vector{}, false }

func testUpdater(t *testing.T, opts ...Option) (*Updater, *event.MemoryStore) {
	t.Helper()
	catalog := &staticCatalog{products: map[string]core.Product{
		"P1": {ID: "P1", Category: "Sportswear", Subcategory: "Shoes"},
	}}
	store := event.NewMemoryStore()
	u := NewUpdater(func() core.Catalog { return catalog }, store, opts...)
	return u, store
}

func TestUpdater_OnClick(t *testing.T) {
	ctx := context.Background()
	u, store := testUpdater(t)

	for i := 0; i < 3; i++ {
		if err := u.OnClick(ctx, "C1", "P1"); err != nil {
			t.Fatal(err)
		}
	}

	ints, err := store.Interactions(ctx, "C1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ints) != 1 || ints[0].Kind != core.InteractionClick || ints[0].Count != 3 {
		t.Errorf("interactions = %+v, want 3 clicks on P1", ints)
	}

	prefs, err := store.Preferences(ctx, "C1")
	if err != nil {
		t.Fatal(err)
	}
	if len(prefs) != 1 || prefs[0].Category != "Sportswear" {
		t.Fatalf("prefs = %+v, want single Sportswear entry", prefs)
	}
	want := 3 * core.DefaultPreferenceStep
	if prefs[0].Score < want-1e-9 || prefs[0].Score > want+1e-9 {
		t.Errorf("preference score = %v, want %v", prefs[0].Score, want)
	}

	all, err := store.PopularityAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if all["P1"].Clicks != 3 {
		t.Errorf("clicks = %d, want 3", all["P1"].Clicks)
	}
}

func TestUpdater_OnClick_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	u, store := testUpdater(t)

	err := u.OnClick(ctx, "C1", "P404")
	if err == nil {
		t.Fatal("OnClick(P404) = nil, want NOT_FOUND")
	}
	if !core.IsNotFound(err) {
		t.Errorf("OnClick(P404) = %v, want NOT_FOUND", err)
	}

	// 未知商品不留任何痕迹
	if prefs, _ := store.Preferences(ctx, "C1"); len(prefs) != 0 {
		t.Errorf("prefs = %+v, want empty", prefs)
	}
}

func TestUpdater_OnClick_CustomStep(t *testing.T) {
	ctx := context.Background()
	u, store := testUpdater(t, WithStep(0.25))

	if err := u.OnClick(ctx, "C1", "P1"); err != nil {
		t.Fatal(err)
	}
	prefs, _ := store.Preferences(ctx, "C1")
	if len(prefs) != 1 || prefs[0].Score != 0.25 {
		t.Errorf("prefs = %+v, want score 0.25", prefs)
	}
}

func TestUpdater_OnView(t *testing.T) {
	ctx := context.Background()
	u, store := testUpdater(t)

	u.OnView(ctx, "P1")
	u.OnView(ctx, "P1")

	all, err := store.PopularityAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if all["P1"].Views != 2 {
		t.Errorf("views = %d, want 2", all["P1"].Views)
	}
}

func TestUpdater_NotReadyCatalog(t *testing.T) {
	store := event.NewMemoryStore()
	u := NewUpdater(func() core.Catalog { return nil }, store)

	if err := u.OnClick(context.Background(), "C1", "P1"); !core.IsUnavailable(err) {
		t.Errorf("OnClick before catalog load = %v, want UNAVAILABLE", err)
	}
}
