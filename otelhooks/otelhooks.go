// Package otelhooks turns assetcache events into OpenTelemetry metrics.
//
//	h, err := otelhooks.New(otel.Meter("assetcache"))
//	coord, _ := assetcache.New(assetcache.Options{Source: src, Hooks: h})
package otelhooks

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/unkn0wn-root/assetcache"
)

// Metric names.
const (
	ProviderConflicts = "assetcache.provider.conflicts"
	ProviderFaults    = "assetcache.provider.faults"
	EditorFaults      = "assetcache.editor.faults"
	EditRejections    = "assetcache.edit.rejections"
	ReentrancyBreaks  = "assetcache.reentrancy.breaks"
	ReloadFailures    = "assetcache.reload.failures"
	StaleEntries      = "assetcache.stale.entries"
	ProduceDuration   = "assetcache.produce.duration_ms"
)

// Hooks records counters per event. Asset keys are not used as attributes;
// owners, reasons and origins are bounded sets.
type Hooks struct {
	conflicts metric.Int64Counter
	pfaults   metric.Int64Counter
	efaults   metric.Int64Counter
	rejects   metric.Int64Counter
	reentry   metric.Int64Counter
	reloads   metric.Int64Counter
	stale     metric.Int64Counter
	produce   metric.Float64Histogram
}

var _ assetcache.Hooks = (*Hooks)(nil)

func New(meter metric.Meter) (*Hooks, error) {
	h := &Hooks{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&h.conflicts, ProviderConflicts, "Assets claimed by more than one provider"},
		{&h.pfaults, ProviderFaults, "Provider failures recovered by falling through"},
		{&h.efaults, EditorFaults, "Editor failures rolled back"},
		{&h.rejects, EditRejections, "Editor results rejected by validation"},
		{&h.reentry, ReentrancyBreaks, "Load chains that requested a key they were producing"},
		{&h.reloads, ReloadFailures, "Reload hooks that reported failure"},
		{&h.stale, StaleEntries, "Cached entries dropped for a moved generation"},
	}
	for _, c := range counters {
		ctr, err := meter.Int64Counter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			return nil, err
		}
		*c.dst = ctr
	}

	hist, err := meter.Float64Histogram(ProduceDuration,
		metric.WithDescription("Time spent producing an asset on a miss"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	h.produce = hist
	return h, nil
}

func (h *Hooks) ProviderConflict(string, []string) {
	h.conflicts.Add(context.Background(), 1)
}

func (h *Hooks) ProviderFaulted(_, owner string, _ error) {
	h.pfaults.Add(context.Background(), 1, metric.WithAttributes(attribute.String("owner", owner)))
}

func (h *Hooks) EditorFaulted(_, owner string, _ error) {
	h.efaults.Add(context.Background(), 1, metric.WithAttributes(attribute.String("owner", owner)))
}

func (h *Hooks) EditRejected(_, owner, reason string) {
	h.rejects.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("owner", owner),
		attribute.String("reason", reason),
	))
}

func (h *Hooks) ReentrancyBroken(_ string, chain []string) {
	h.reentry.Add(context.Background(), 1, metric.WithAttributes(attribute.Int("depth", len(chain))))
}

func (h *Hooks) ReloadFailed(string) { h.reloads.Add(context.Background(), 1) }
func (h *Hooks) StaleEntry(string)   { h.stale.Add(context.Background(), 1) }

func (h *Hooks) AssetProduced(_, origin string, took time.Duration) {
	ms := float64(took) / float64(time.Millisecond)
	h.produce.Record(context.Background(), ms, metric.WithAttributes(attribute.String("origin", origin)))
}
