// Package metrics provides the observability hooks of the timer engine.
//
// Components receive a Recorder through dependency injection and default to NoopRecorder,
// so no call site needs a nil check:
//
//	type Presenter struct {
//	    recorder metrics.Recorder
//	}
//
// When metrics are enabled the daemon builds a PrometheusRecorder on its own registry and
// serves it with HTTPHandler.
package metrics
