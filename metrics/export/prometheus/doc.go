// Package prometheus exposes emailauth metrics through client_golang.
//
// [NewPrometheusExporter] wraps an [emailauth.Engine] in a
// prometheus.Collector registered in a private registry. Counters are named
// emailauth_*_total and the two latency histograms are
// emailauth_authenticate_latency_seconds and emailauth_login_latency_seconds.
//
// The global default registry is never touched; callers mount Handler or
// register the exporter wherever they need it.
package prometheus
