package goTeam

import (
	"testing"
	"time"

	"github.com/MrEthical07/goTeam/cache"
)

// A cache read emits a hit or miss event, so observeCache sits on every
// query path.
func BenchmarkObserveCacheParallel(b *testing.B) {
	mix := [...]cache.EventKind{
		cache.EventHit, cache.EventHit, cache.EventHit, cache.EventMiss,
		cache.EventFetch, cache.EventInvalidate, cache.EventOptimistic, cache.EventCommit,
	}
	for _, enabled := range []bool{true, false} {
		name := "enabled"
		if !enabled {
			name = "disabled"
		}
		b.Run(name, func(b *testing.B) {
			m := NewMetrics(MetricsConfig{Enabled: enabled})
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				for i := 0; pb.Next(); i++ {
					m.observeCache(cache.Event{Kind: mix[i%len(mix)]})
				}
			})
		})
	}
}

func BenchmarkRequestLatencyParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for i := 0; pb.Next(); i++ {
			m.Observe(MetricRequestLatency, time.Duration(i%600)*time.Millisecond)
			m.Inc(MetricRequestSuccess)
		}
	})
}
