// Package metrics records benchmark observations.
//
// Components receive a Recorder and default to NoopRecorder, so nothing needs
// a nil check. PrometheusRecorder keeps the observations in a registry that
// WriteTextfile can export for the node_exporter textfile collector, which is
// how scheduled benchmark runs feed a dashboard.
package metrics
