package prometheus

import (
	"net/http"

	goTeam "github.com/MrEthical07/goTeam"
	"github.com/MrEthical07/goTeam/metrics/export/internaldefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsSource interface {
	MetricsSnapshot() goTeam.MetricsSnapshot
	NotificationsDropped() uint64
}

type counterDesc struct {
	id   goTeam.MetricID
	desc *prometheus.Desc
}

// Exporter is a prometheus.Collector over a client's metrics snapshot.
type Exporter struct {
	source     metricsSource
	counters   []counterDesc
	histograms []counterDesc
	dropped    *prometheus.Desc
	cacheByKey *prometheus.Desc
}

var _ prometheus.Collector = (*Exporter)(nil)

// NewExporter creates an exporter that reads from client.
func NewExporter(client *goTeam.Client) *Exporter {
	return NewExporterFromSource(client)
}

// NewExporterFromSource creates an exporter over any snapshot source.
func NewExporterFromSource(source metricsSource) *Exporter {
	e := &Exporter{
		source:     source,
		counters:   make([]counterDesc, 0, len(internaldefs.CounterDefs)),
		histograms: make([]counterDesc, 0, len(internaldefs.HistogramDefs)),
		dropped: prometheus.NewDesc(internaldefs.NotificationsDroppedName,
			"Notifications dropped because the dispatcher buffer was full.", nil, nil),
		cacheByKey: prometheus.NewDesc("goteam_cache_domain_events_total",
			"Cache events by key domain and kind.", []string{"domain", "event"}, nil),
	}
	for _, def := range internaldefs.CounterDefs {
		e.counters = append(e.counters, counterDesc{id: def.ID, desc: prometheus.NewDesc(def.Name, def.Help, nil, nil)})
	}
	for _, def := range internaldefs.HistogramDefs {
		e.histograms = append(e.histograms, counterDesc{id: def.ID, desc: prometheus.NewDesc(def.Name, def.Help, nil, nil)})
	}
	return e
}

func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range e.counters {
		ch <- c.desc
	}
	for _, h := range e.histograms {
		ch <- h.desc
	}
	ch <- e.dropped
	ch <- e.cacheByKey
}

// Collect emits nothing while the client's metrics are disabled.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	if e == nil || e.source == nil {
		return
	}
	snapshot := e.source.MetricsSnapshot()
	dropped := e.source.NotificationsDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return
	}

	for _, c := range e.counters {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.CounterValue, float64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramUpperBounds))
		for i, le := range internaldefs.HistogramUpperBounds {
			buckets[le] = cumulative[i]
		}
		// The client keeps bucket counts only, so the sum is always 0.
		ch <- prometheus.MustNewConstHistogram(h.desc, cumulative[len(cumulative)-1], 0, buckets)
	}
	ch <- prometheus.MustNewConstMetric(e.dropped, prometheus.CounterValue, float64(dropped))
	for _, ev := range snapshot.CacheEvents {
		ch <- prometheus.MustNewConstMetric(e.cacheByKey, prometheus.CounterValue, float64(ev.Count), ev.Domain, ev.Event.String())
	}
}

// Handler serves the exporter from a private registry, so nothing is
// registered globally.
func (e *Exporter) Handler() http.Handler {
	reg := prometheus.NewPedanticRegistry()
	reg.MustRegister(e)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
