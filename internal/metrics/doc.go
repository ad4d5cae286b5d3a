// Package metrics provides build observability for docsite.
//
// Components receive a Recorder through injection and default to NoopRecorder,
// so no call site needs a nil check. PrometheusRecorder registers the build
// metrics on a registry; for one-shot CLI builds the registry is flushed to a
// node-exporter textfile with WriteTextfile after the build.
package metrics
