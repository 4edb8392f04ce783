package prometheus

import (
	"net/http"

	"github.com/MrEthical07/emailauth"
	"github.com/MrEthical07/emailauth/metrics/export/internaldefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsSource interface {
	MetricsSnapshot() emailauth.MetricsSnapshot
	NotifyDropped() uint64
}

type counterDesc struct {
	id   emailauth.MetricID
	desc *prometheus.Desc
}

type histogramDesc struct {
	id   emailauth.MetricID
	desc *prometheus.Desc
}

// Exporter is a prometheus.Collector over an emailauth metrics snapshot.
//
// Every Collect takes one snapshot, so counters and histograms in a scrape
// are consistent with each other.
type Exporter struct {
	source        metricsSource
	counters      []counterDesc
	histograms    []histogramDesc
	notifyDropped *prometheus.Desc
	registry      *prometheus.Registry
}

// NewPrometheusExporter returns an exporter for engine.
func NewPrometheusExporter(engine *emailauth.Engine) *Exporter {
	return NewPrometheusExporterFromSource(engine)
}

// NewPrometheusExporterFromSource returns an exporter reading from source.
// The exporter registers itself in a private registry served by Handler.
func NewPrometheusExporterFromSource(source metricsSource) *Exporter {
	e := &Exporter{
		source:     source,
		counters:   make([]counterDesc, 0, len(internaldefs.CounterDefs)),
		histograms: make([]histogramDesc, 0, len(internaldefs.HistogramDefs)),
		notifyDropped: prometheus.NewDesc(
			internaldefs.NotifyDroppedName, internaldefs.NotifyDroppedHelp, nil, nil,
		),
	}
	for _, def := range internaldefs.CounterDefs {
		e.counters = append(e.counters, counterDesc{
			id:   def.ID,
			desc: prometheus.NewDesc(def.Name, def.Help, nil, nil),
		})
	}
	for _, def := range internaldefs.HistogramDefs {
		e.histograms = append(e.histograms, histogramDesc{
			id:   def.ID,
			desc: prometheus.NewDesc(def.Name, def.Help, nil, nil),
		})
	}

	e.registry = prometheus.NewRegistry()
	e.registry.MustRegister(e)
	return e
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range e.counters {
		ch <- c.desc
	}
	for _, h := range e.histograms {
		ch <- h.desc
	}
	ch <- e.notifyDropped
}

// Collect implements prometheus.Collector. Disabled metrics produce no
// counters or histograms; the dropped notification counter is always
// reported.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	snapshot := e.source.MetricsSnapshot()

	for _, c := range e.counters {
		v, ok := snapshot.Counters[c.id]
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.CounterValue, float64(v))
	}

	for _, h := range e.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramUpperBounds))
		for i, bound := range internaldefs.HistogramUpperBounds {
			buckets[bound] = cumulative[i]
		}
		// The engine does not track the latency sum.
		ch <- prometheus.MustNewConstHistogram(h.desc, cumulative[len(cumulative)-1], 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(e.notifyDropped, prometheus.CounterValue, float64(e.source.NotifyDropped()))
}

// Registry returns the private registry holding the exporter, for callers
// that want to add their own collectors next to it.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
