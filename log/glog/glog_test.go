package glog

import (
	"errors"
	"testing"

	"github.com/unkn0wn-root/assetcache"
)

func TestLineSortsFields(t *testing.T) {
	got := line("provider faulted", assetcache.Fields{"owner": "mod.a", "key": "units/orc", "err": errors.New("boom")})
	want := "provider faulted err=boom key=units/orc owner=mod.a"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got := line("plain", nil); got != "plain" {
		t.Fatalf("got %q", got)
	}
}
