// Package internaldefs holds the stable metric name definitions shared by
// exporter implementations.
//
// Counter definitions live here so that the Prometheus and OTel exporters
// publish identical metric names. Changing a definition here changes every
// exporter at once.
//
// # What this package must NOT do
//
//   - Import authkit or any exporter package beyond the MetricID type.
//   - Perform I/O.
package internaldefs
