package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goTeam "github.com/MrEthical07/goTeam"
	"github.com/MrEthical07/goTeam/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goTeam.MetricsSnapshot
	NotificationsDropped() uint64
	NotificationsCollapsed() uint64
	CacheEntries() int
}

// outcome maps one client counter onto an attribute value of a shared
// instrument.
type outcome struct {
	id    goTeam.MetricID
	attrs metric.ObserveOption
}

func outcomes(key string, pairs map[goTeam.MetricID]string) []outcome {
	out := make([]outcome, 0, len(pairs))
	for id, v := range pairs {
		out = append(out, outcome{id: id, attrs: metric.WithAttributes(attribute.String(key, v))})
	}
	return out
}

// Exporter publishes client metrics through a handful of observable OTel
// instruments that split by attribute rather than by name.
type Exporter struct {
	source       metricsSource
	registration metric.Registration

	session       metric.Int64ObservableCounter
	sessionEvents []outcome
	requests      metric.Int64ObservableCounter
	requestKinds  []outcome
	optimistic    metric.Int64ObservableCounter
	txOutcomes    []outcome
	cacheEvents   metric.Int64ObservableCounter
	cacheEntries  metric.Int64ObservableGauge
	notifications metric.Int64ObservableCounter
	latency       metric.Int64ObservableGauge
	latencyBounds []metric.ObserveOption
}

func NewExporter(meter metric.Meter, client *goTeam.Client) (*Exporter, error) {
	if client == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, client)
}

// NewExporterFromSource registers one callback on meter that reads a
// snapshot per collection cycle.
func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{
		source: source,
		sessionEvents: outcomes("event", map[goTeam.MetricID]string{
			goTeam.MetricLoginSuccess: "login",
			goTeam.MetricLoginFailure: "login_failure",
			goTeam.MetricLogout:       "logout",
			goTeam.MetricUnauthorized: "unauthorized",
		}),
		requestKinds: outcomes("outcome", map[goTeam.MetricID]string{
			goTeam.MetricRequestSuccess: "success",
			goTeam.MetricRequestFailure: "failure",
			goTeam.MetricRateLimited:    "rate_limited",
		}),
		txOutcomes: outcomes("outcome", map[goTeam.MetricID]string{
			goTeam.MetricOptimisticApplied:    "applied",
			goTeam.MetricOptimisticCommitted:  "committed",
			goTeam.MetricOptimisticRolledBack: "rolled_back",
		}),
	}

	var err error
	counter := func(name, help string) metric.Int64ObservableCounter {
		if err != nil {
			return nil
		}
		var ins metric.Int64ObservableCounter
		if ins, err = meter.Int64ObservableCounter(name, metric.WithDescription(help)); err != nil {
			err = fmt.Errorf("create %s: %w", name, err)
		}
		return ins
	}
	gauge := func(name, help string) metric.Int64ObservableGauge {
		if err != nil {
			return nil
		}
		var ins metric.Int64ObservableGauge
		if ins, err = meter.Int64ObservableGauge(name, metric.WithDescription(help)); err != nil {
			err = fmt.Errorf("create %s: %w", name, err)
		}
		return ins
	}

	e.session = counter("goteam.session.events", "Session transitions by event.")
	e.requests = counter("goteam.requests", "API calls by outcome.")
	e.optimistic = counter("goteam.optimistic.transactions", "Optimistic cache writes by outcome.")
	e.cacheEvents = counter("goteam.cache.events", "Cache events by key domain and kind.")
	e.cacheEntries = gauge("goteam.cache.entries", "Keys currently held by the cache.")
	e.notifications = counter("goteam.notifications", "User notifications by outcome.")
	e.latency = gauge("goteam.request.latency.buckets", "Cumulative API call count at or below the le bound, in seconds.")
	if err != nil {
		return nil, err
	}

	for _, b := range internaldefs.HistogramUpperBounds {
		e.latencyBounds = append(e.latencyBounds, metric.WithAttributes(attribute.String("le", strconv.FormatFloat(b, 'f', -1, 64))))
	}
	e.latencyBounds = append(e.latencyBounds, metric.WithAttributes(attribute.String("le", "+Inf")))

	reg, err := meter.RegisterCallback(e.observe,
		e.session, e.requests, e.optimistic, e.cacheEvents, e.cacheEntries, e.notifications, e.latency)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	observeAll := func(ins metric.Int64ObservableCounter, set []outcome) {
		for _, oc := range set {
			if v, ok := snapshot.Counters[oc.id]; ok {
				o.ObserveInt64(ins, int64(v), oc.attrs)
			}
		}
	}
	observeAll(e.session, e.sessionEvents)
	observeAll(e.requests, e.requestKinds)
	observeAll(e.optimistic, e.txOutcomes)

	for _, ev := range snapshot.CacheEvents {
		o.ObserveInt64(e.cacheEvents, int64(ev.Count), metric.WithAttributes(
			attribute.String("domain", ev.Domain),
			attribute.String("event", ev.Event.String()),
		))
	}
	o.ObserveInt64(e.cacheEntries, int64(e.source.CacheEntries()))

	if sent, ok := snapshot.Counters[goTeam.MetricNotificationSent]; ok {
		o.ObserveInt64(e.notifications, int64(sent), metric.WithAttributes(attribute.String("outcome", "sent")))
	}
	o.ObserveInt64(e.notifications, int64(e.source.NotificationsDropped()), metric.WithAttributes(attribute.String("outcome", "dropped")))
	o.ObserveInt64(e.notifications, int64(e.source.NotificationsCollapsed()), metric.WithAttributes(attribute.String("outcome", "collapsed")))

	if raw, ok := snapshot.Histograms[goTeam.MetricRequestLatency]; ok {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, v := range cumulative {
			o.ObserveInt64(e.latency, int64(v), e.latencyBounds[i])
		}
	}
	return nil
}

// Close unregisters the callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
