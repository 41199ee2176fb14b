package ristretto

import (
	"bytes"
	"context"
	"testing"
)

func TestRistrettoRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := New(Config{NumCounters: 1e4, MaxCost: 1 << 20, BufferItems: 64, Metrics: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close(ctx)

	blob := []byte("framed-asset")
	if ok, err := s.Set(ctx, "asset:sprites/tree", blob, int64(len(blob)), 0); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	s.Wait()

	got, ok, err := s.Get(ctx, "asset:sprites/tree")
	if err != nil || !ok || !bytes.Equal(got, blob) {
		t.Fatalf("Get: %q ok=%v err=%v", got, ok, err)
	}
	if err := s.Del(ctx, "asset:sprites/tree"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	s.Wait()
	if _, ok, _ := s.Get(ctx, "asset:sprites/tree"); ok {
		t.Fatalf("expected miss after Del")
	}
	if s.Metrics() == nil {
		t.Fatalf("metrics requested but nil")
	}
}

func TestRistrettoInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for zero config")
	}
}
