// Package glog adapts github.com/golang/glog to assetcache.Logger. Debug
// lines are emitted at verbosity 1 (-v=1).
package glog

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/golang/glog"

	"github.com/unkn0wn-root/assetcache"
)

var _ assetcache.Logger = Logger{}

// Logger writes through the global glog sinks.
type Logger struct{}

func (Logger) Debug(msg string, f assetcache.Fields) {
	if glog.V(1) {
		glog.InfoDepth(1, line(msg, f))
	}
}
func (Logger) Info(msg string, f assetcache.Fields)  { glog.InfoDepth(1, line(msg, f)) }
func (Logger) Warn(msg string, f assetcache.Fields)  { glog.WarningDepth(1, line(msg, f)) }
func (Logger) Error(msg string, f assetcache.Fields) { glog.ErrorDepth(1, line(msg, f)) }

// line renders msg followed by k=v pairs in key order.
func line(msg string, f assetcache.Fields) string {
	if len(f) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for _, k := range slices.Sorted(maps.Keys(f)) {
		fmt.Fprintf(&b, " %s=%v", k, f[k])
	}
	return b.String()
}
