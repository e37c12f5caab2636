package goTeam

import (
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goTeam/cache"
)

func TestMetricsInert(t *testing.T) {
	var nilMetrics *Metrics
	disabled := NewMetrics(MetricsConfig{Enabled: false, EnableLatencyHistograms: true})

	for name, m := range map[string]*Metrics{"nil": nilMetrics, "disabled": disabled} {
		m.Inc(MetricLogout)
		m.Observe(MetricRequestLatency, time.Millisecond)
		m.observeCache(cache.Event{Kind: cache.EventHit})
		if m.Enabled() || m.LatencyEnabled() || m.Value(MetricLogout) != 0 {
			t.Fatalf("%s: metrics should be inert", name)
		}
		snap := m.Snapshot()
		if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
			t.Fatalf("%s: expected empty snapshot, got %+v", name, snap)
		}
	}
}

func TestMetricsCountersFromParallelQueries(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers, perWorker = 16, 2500
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				m.observeCache(cache.Event{Kind: cache.EventHit})
				m.Inc(MetricRequestSuccess)
			}
		}()
	}
	wg.Wait()

	want := uint64(workers * perWorker)
	if m.Value(MetricCacheHit) != want || m.Value(MetricRequestSuccess) != want {
		t.Fatalf("expected %d hits and successes, got %d and %d", want, m.Value(MetricCacheHit), m.Value(MetricRequestSuccess))
	}
}

func TestCacheEventsByDomain(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.observeCache(cache.Event{Kind: cache.EventHit, Key: keyTaskDetail(7)})
	m.observeCache(cache.Event{Kind: cache.EventHit, Key: keyTaskStatuses()})
	m.observeCache(cache.Event{Kind: cache.EventMiss, Key: keyChatDetail("c1")})
	m.observeCache(cache.Event{Kind: cache.EventEvict, Key: cache.NewKey("scratch")})
	m.observeCache(cache.Event{Kind: cache.EventInvalidate})

	want := []CacheEventCount{
		{Domain: "chats", Event: cache.EventMiss, Count: 1},
		{Domain: "tasks", Event: cache.EventHit, Count: 2},
		{Domain: "other", Event: cache.EventInvalidate, Count: 1},
		{Domain: "other", Event: cache.EventEvict, Count: 1},
	}
	got := m.Snapshot().CacheEvents
	if len(got) != len(want) {
		t.Fatalf("cache events = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cache events[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if m.Value(MetricCacheHit) != 2 {
		t.Fatalf("hit counter = %d", m.Value(MetricCacheHit))
	}
}

func TestLatencyBuckets(t *testing.T) {
	tests := []struct {
		d      time.Duration
		bucket int
	}{
		{0, 0},
		{5 * time.Millisecond, 0},
		{5*time.Millisecond + 900*time.Microsecond, 0},
		{6 * time.Millisecond, 1},
		{25 * time.Millisecond, 2},
		{26 * time.Millisecond, 3},
		{100 * time.Millisecond, 4},
		{250 * time.Millisecond, 5},
		{499 * time.Millisecond, 6},
		{501 * time.Millisecond, 7},
		{30 * time.Second, 7},
	}
	for _, tt := range tests {
		if got := bucketIndex(tt.d); got != tt.bucket {
			t.Fatalf("bucketIndex(%v) = %d, want %d", tt.d, got, tt.bucket)
		}
	}
}

func TestLatencyHistogramOnlyForRequests(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricRequestLatency, 3*time.Millisecond)
	m.Observe(MetricRequestLatency, 700*time.Millisecond)
	m.Observe(MetricLoginSuccess, time.Second)
	m.Inc(MetricRequestLatency)

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricRequestLatency]
	if len(buckets) != latencyBucketCount {
		t.Fatalf("expected %d buckets, got %d", latencyBucketCount, len(buckets))
	}
	if buckets[0] != 1 || buckets[latencyBucketCount-1] != 1 {
		t.Fatalf("unexpected buckets %v", buckets)
	}
	if len(snap.Histograms) != 1 {
		t.Fatalf("only request latency has a histogram, got %v", snap.Histograms)
	}
	if _, ok := snap.Counters[MetricRequestLatency]; ok {
		t.Fatal("latency must not appear as a counter")
	}
}

func TestLatencyNeedsItsOwnSwitch(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricRequestLatency, time.Millisecond)
	if _, ok := m.Snapshot().Histograms[MetricRequestLatency]; ok {
		t.Fatal("histogram recorded without EnableLatencyHistograms")
	}
}

func TestMetricsObserveCache(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	for _, kind := range []cache.EventKind{cache.EventHit, cache.EventHit, cache.EventDiscard, cache.EventRollback, cache.EventKind(200)} {
		m.observeCache(cache.Event{Kind: kind})
	}
	if m.Value(MetricCacheHit) != 2 || m.Value(MetricCacheDiscard) != 1 || m.Value(MetricOptimisticRolledBack) != 1 {
		t.Fatalf("unexpected counters %+v", m.Snapshot().Counters)
	}
}
