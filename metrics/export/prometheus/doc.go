// Package prometheus renders authkit counters in Prometheus text exposition
// format without depending on the Prometheus client library. The counter set
// is small and fixed, so hand-writing the format keeps the exporter
// dependency-free.
//
// # What this package must NOT do
//
//   - Start or own an HTTP server — callers mount [PrometheusExporter.Handler].
//   - Mutate engine state.
package prometheus
