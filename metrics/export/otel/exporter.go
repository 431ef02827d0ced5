package otel

import (
	"context"
	"errors"
	"fmt"

	sessiongate "github.com/sessiongate/sessiongate"
	"github.com/sessiongate/sessiongate/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() sessiongate.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         sessiongate.MetricID
	instrument metric.Int64ObservableCounter
}

// OTelExporter publishes the engine's counters, the single AttemptLogin
// latency histogram, and the audit drop count as observable instruments.
// The engine keeps no OTel state; everything is read from
// [sessiongate.Engine.MetricsSnapshot] on each collection cycle.
type OTelExporter struct {
	source         metricsSource
	registration   metric.Registration
	counters       []observedCounter
	latencyBuckets [internaldefs.BucketCount]metric.Int64ObservableGauge
	latencyCount   metric.Int64ObservableGauge
	auditDropped   metric.Int64ObservableCounter
}

func NewOTelExporter(meter metric.Meter, engine *sessiongate.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:   source,
		counters: make([]observedCounter, 0, len(internaldefs.CounterDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(exporter.latencyBuckets)+2)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	latency := internaldefs.AttemptLatency
	for i := range exporter.latencyBuckets {
		name := latency.Name + "_bucket_le_" + internaldefs.HistogramBoundSuffix[i]
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription(latency.Help+" Cumulative bucket count."))
		if err != nil {
			return nil, fmt.Errorf("create latency bucket gauge %s: %w", name, err)
		}
		exporter.latencyBuckets[i] = ins
		observables = append(observables, ins)
	}
	latencyCount, err := meter.Int64ObservableGauge(latency.Name+"_count", metric.WithDescription(latency.Help+" Total sample count."))
	if err != nil {
		return nil, fmt.Errorf("create latency count gauge: %w", err)
	}
	exporter.latencyCount = latencyCount
	observables = append(observables, latencyCount)

	auditDropped, err := meter.Int64ObservableCounter(
		"sessiongate_audit_dropped_total",
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.MetricsSnapshot()

		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
		}

		cumulative := internaldefs.CumulativeBuckets(
			internaldefs.NormalizeBuckets(snapshot.Histograms[latency.ID]))
		for i := range exporter.latencyBuckets {
			observer.ObserveInt64(exporter.latencyBuckets[i], int64(cumulative[i]))
		}
		observer.ObserveInt64(exporter.latencyCount, int64(cumulative[len(cumulative)-1]))

		observer.ObserveInt64(exporter.auditDropped, int64(exporter.source.AuditDropped()))
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
