// Package internaldefs holds the metric names, help strings and bucket
// bounds shared by the emailauth exporters.
//
// Both the Prometheus and OTel exporters read these definitions, so a
// rename here changes every exporter at once.
package internaldefs
