// Package zap adapts go.uber.org/zap to assetcache.Logger.
package zap

import (
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/assetcache"
)

var _ assetcache.Logger = Logger{}

// Logger writes through L. Fields are emitted in key order; an "err" field
// holding an error becomes a zap.Error.
type Logger struct{ L *zap.Logger }

// New names the logger "assetcache" so its lines are easy to filter.
func New(l *zap.Logger) Logger { return Logger{L: l.Named("assetcache")} }

func (z Logger) Debug(msg string, f assetcache.Fields) { z.L.Debug(msg, zf(f)...) }
func (z Logger) Info(msg string, f assetcache.Fields)  { z.L.Info(msg, zf(f)...) }
func (z Logger) Warn(msg string, f assetcache.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z Logger) Error(msg string, f assetcache.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f assetcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for _, k := range slices.Sorted(maps.Keys(f)) {
		v := f[k]
		if err, ok := v.(error); ok && k == "err" {
			out = append(out, zap.Error(err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
