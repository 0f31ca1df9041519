// Package metrics provides custom Prometheus metrics for the Nutritive application.
package metrics

// Recorder defines a minimal interface for recording metrics.
// Components depend on it rather than on concrete metric implementations.
type Recorder interface {
	// RecordOperation records an operation with its status ("success" or "error").
	RecordOperation(operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordError records an error occurrence with its type.
	RecordError(operation, errorType string)
}
