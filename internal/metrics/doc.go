// Package metrics provides an observability framework for docfs file layer and cache metrics.
//
// # Design Philosophy
//
// This package implements the Null Object pattern to enable metrics collection
// without requiring explicit nil checks throughout the codebase. By default,
// all components use NoopRecorder which implements the Recorder interface with
// no-op methods.
//
// # Usage Pattern
//
// Components receive a Recorder through their builder or a With method:
//
//	layer := buildfs.Default.
//	    ReadFromRealFileSystem(in, nil).
//	    WriteToRealFileSystem(out).
//	    WithRecorder(metrics.NewPrometheusRecorder(reg)).
//	    Create()
//
// The CLI gathers the registry once at the end of a run and logs a summary.
package metrics
