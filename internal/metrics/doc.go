// Package metrics records compile and dev server metrics.
//
// Components take a Recorder and default to NoopRecorder, so metrics cost
// nothing unless enabled. When the dev server runs with metrics enabled it
// injects a PrometheusRecorder and serves the registry at Path.
package metrics
