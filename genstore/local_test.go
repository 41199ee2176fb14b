package genstore

import (
	"context"
	"testing"
	"time"
)

func TestLocalSnapshotManyIncludesAllAndZeroForMissing(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(LocalOptions{})
	t.Cleanup(func() { _ = s.Close(ctx) })

	names := []string{"sprites/tree", "units/orc", "ui/title"}
	// bump units/orc twice -> gen=2
	if _, err := s.Bump(ctx, "units/orc"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Bump(ctx, "units/orc"); err != nil {
		t.Fatal(err)
	}

	got, err := s.SnapshotMany(ctx, names)
	if err != nil {
		t.Fatal(err)
	}

	if got["sprites/tree"] != 0 || got["units/orc"] != 2 || got["ui/title"] != 0 {
		t.Fatalf("got=%v want sprites/tree=0,units/orc=2,ui/title=0", got)
	}
}

func TestLocalSnapshotManyDoesNotMutateInput(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(LocalOptions{})
	t.Cleanup(func() { _ = s.Close(ctx) })

	in := []string{"ui/title", "ui/title.fr-fr"}
	cp := append([]string(nil), in...)
	if _, err := s.SnapshotMany(ctx, in); err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if in[i] != cp[i] {
			t.Fatalf("input mutated at %d: %q -> %q", i, cp[i], in[i])
		}
	}
}

func TestLocalCleanupPrunesOld(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(LocalOptions{Retention: time.Second})
	t.Cleanup(func() { _ = s.Close(ctx) })

	if _, err := s.Bump(ctx, "sprites/old"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(1200 * time.Millisecond)
	s.Cleanup(time.Second)

	g, err := s.Snapshot(ctx, "sprites/old")
	if err != nil {
		t.Fatal(err)
	}
	if g != 0 {
		t.Fatalf("expected pruned -> 0, got %d", g)
	}
	if s.Len() != 0 || s.Pruned() != 1 {
		t.Fatalf("len=%d pruned=%d", s.Len(), s.Pruned())
	}
}

func TestLocalCleanupSkipsNamesInUse(t *testing.T) {
	ctx := context.Background()
	cached := map[string]bool{"sprites/tree": true}
	s := NewLocal(LocalOptions{InUse: func(name string) bool { return cached[name] }})
	t.Cleanup(func() { _ = s.Close(ctx) })

	for _, n := range []string{"sprites/tree", "sprites/rock"} {
		if _, err := s.Bump(ctx, n); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(20 * time.Millisecond)
	s.Cleanup(10 * time.Millisecond)

	if g, _ := s.Snapshot(ctx, "sprites/tree"); g != 1 {
		t.Fatalf("cached name pruned: gen=%d", g)
	}
	if g, _ := s.Snapshot(ctx, "sprites/rock"); g != 0 {
		t.Fatalf("idle name kept: gen=%d", g)
	}
}

func TestLocalSweepLoopPrunes(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(LocalOptions{CleanupInterval: 5 * time.Millisecond, Retention: time.Millisecond})
	t.Cleanup(func() { _ = s.Close(ctx) })

	if _, err := s.Bump(ctx, "ui/title"); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for s.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("sweep never pruned ui/title")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLocalCleanupKeepsRecent(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(LocalOptions{Retention: time.Hour})
	t.Cleanup(func() { _ = s.Close(ctx) })

	if _, err := s.Bump(ctx, "units/orc"); err != nil {
		t.Fatal(err)
	}
	s.Cleanup(time.Hour)
	if g, _ := s.Snapshot(ctx, "units/orc"); g != 1 {
		t.Fatalf("recent generation pruned: %d", g)
	}
}

func TestLocalCloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(LocalOptions{CleanupInterval: 10 * time.Millisecond, Retention: time.Hour})
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	// still usable for reads after the loop stopped
	if g, err := s.Snapshot(ctx, "units/orc"); err != nil || g != 0 {
		t.Fatalf("Snapshot after Close: %d %v", g, err)
	}
}
