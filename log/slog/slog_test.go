package slog

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"testing"

	"github.com/unkn0wn-root/assetcache"
)

func TestLoggerGroupsFields(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})
	l := New(stdslog.New(h))

	l.Debug("dropped", assetcache.Fields{"key": "x"})
	l.Warn("stale entry", assetcache.Fields{"key": "units/orc", "gen": 2})

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected exactly one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "stale entry" || rec["level"] != "WARN" {
		t.Fatalf("unexpected record %v", rec)
	}
	grp, ok := rec["assetcache"].(map[string]any)
	if !ok || grp["key"] != "units/orc" || grp["gen"] != float64(2) {
		t.Fatalf("unexpected group %v", rec["assetcache"])
	}
}
