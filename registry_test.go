package assetcache

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegisterValidatesOwner(t *testing.T) {
	r := NewRegistry()
	for _, owner := range []string{"", ".mod", "mod a", "mod/a", strings.Repeat("a", 256)} {
		if _, err := r.AddProvider(owner, nil, constProvider("x", nil)); !errors.Is(err, ErrInvalidOwner) {
			t.Fatalf("owner %q: expected ErrInvalidOwner, got %v", owner, err)
		}
	}
	for _, owner := range []string{"mod", "Mod.A-b_c", "9lives", strings.Repeat("a", 255)} {
		if _, err := r.AddProvider(owner, nil, constProvider("x", nil)); err != nil {
			t.Fatalf("owner %q: %v", owner, err)
		}
	}
}

func TestRegisterRejectsNilHandlers(t *testing.T) {
	r := NewRegistry()
	if _, err := r.AddProvider("mod", nil, nil); err == nil {
		t.Fatalf("expected error for nil provider")
	}
	if _, err := r.AddEditor("mod", nil, nil); err == nil {
		t.Fatalf("expected error for nil editor")
	}
}

func TestRegistrationsOrderAndKinds(t *testing.T) {
	r := NewRegistry()
	e1, _ := r.AddEditor("mod.a", nil, appendEditor("a"))
	p1, _ := r.AddProvider("mod.b", nil, constProvider("x", nil))
	e2, _ := r.Register("mod.c", nil, EditorFunc(appendEditor("c")))

	got := r.Registrations()
	if len(got) != 3 || got[0] != p1 || got[1] != e1 || got[2] != e2 {
		t.Fatalf("unexpected registrations %+v", got)
	}
	if p1.Kind != KindProvider || e1.Kind != KindEditor || KindEditor.String() != "editor" {
		t.Fatalf("unexpected kinds")
	}
	if e1.ID >= p1.ID || p1.ID >= e2.ID {
		t.Fatalf("ids not increasing: %d %d %d", e1.ID, p1.ID, e2.ID)
	}
}

func TestUnregisterOwnership(t *testing.T) {
	r := NewRegistry()
	reg, _ := r.AddEditor("mod.a", nil, appendEditor("a"))
	if err := r.Unregister("mod.b", reg.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := r.Unregister("mod.a", reg.ID); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if err := r.Unregister("mod.a", reg.ID); !errors.Is(err, ErrUnknownRegistration) {
		t.Fatalf("expected ErrUnknownRegistration, got %v", err)
	}
	if len(r.Registrations()) != 0 {
		t.Fatalf("expected empty registry")
	}
}

// TestRegistryChangeDuringResolution verifies a registration made by an
// interceptor does not affect the resolution already in progress.
func TestRegistryChangeDuringResolution(t *testing.T) {
	c := newTestCoordinator(t, newFakeSource(map[string]any{"a": "", "b": ""}), nil)
	reg := c.Interceptors()
	if _, err := reg.AddEditor("mod.a", nil, func(_ context.Context, _ AssetInfo, v any) (any, error) {
		if _, err := reg.AddEditor("mod.late", nil, appendEditor("L")); err != nil {
			return nil, err
		}
		return v.(string) + "a", nil
	}); err != nil {
		t.Fatal(err)
	}
	v := mustView(t, c, "w")
	if got := mustLoad[string](t, v, "a"); got != "a" {
		t.Fatalf("late editor applied to in-flight load: %q", got)
	}
	if got := mustLoad[string](t, v, "b"); got != "aL" {
		t.Fatalf("late editor should apply to later loads: %q", got)
	}
}
