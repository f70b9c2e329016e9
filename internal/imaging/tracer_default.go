//go:build !gocv

package imaging

// DefaultTracer returns the pure Go tracer.
func DefaultTracer() Tracer {
	return pureTracer{}
}
