package event

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rushteam/shoprec/core"
)

func newTestSQLiteStore(t *testing.T) core.EventStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSQLiteStore_Suite(t *testing.T) {
	runEventStoreSuite(t, newTestSQLiteStore)
}

func TestSQLiteStore_PreferenceTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)
	defer s.Close()

	if err := s.BumpPreference(ctx, "C1", "Sportswear", "Shoes", 0.1); err != nil {
		t.Fatal(err)
	}
	prefs, err := s.Preferences(ctx, "C1")
	if err != nil {
		t.Fatal(err)
	}
	if len(prefs) != 1 {
		t.Fatalf("len(prefs) = %d, want 1", len(prefs))
	}
	if prefs[0].UpdatedAt.IsZero() {
		t.Error("UpdatedAt is zero, want server timestamp")
	}
}

func TestParseSQLiteTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-08-31T20:01:05Z", time.Date(2026, 8, 31, 20, 1, 5, 0, time.UTC)},
		{"2026-08-31T20:01:05.123456789Z", time.Date(2026, 8, 31, 20, 1, 5, 123456789, time.UTC)},
		{"2026-08-31 20:01:05", time.Date(2026, 8, 31, 20, 1, 5, 0, time.UTC)},
		{"not-a-time", time.Time{}},
		{"", time.Time{}},
	}
	for _, c := range cases {
		if got := parseSQLiteTime(c.in); !got.Equal(c.want) {
			t.Errorf("parseSQLiteTime(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RecordInteraction(ctx, "C1", "P1", core.InteractionClick); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, err := s.Interactions(ctx, "C1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Count != 1 {
		t.Errorf("Interactions after reopen = %v, want single click", got)
	}
}
