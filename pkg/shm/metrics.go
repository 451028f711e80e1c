package shm

import (
	"sync/atomic"

	"github.com/marmos91/dittoshm/pkg/metrics"
)

// activeMetrics is the process-wide metrics sink for the lifecycle
// engine. It defaults to metrics.NullMetrics(), which every Metrics
// method treats as a no-op, so SetMetrics is optional.
var activeMetrics = metrics.NullMetrics()

var liveSegments int64

// SetMetrics installs the Prometheus metrics sink that CreationBuilder.Create,
// Builder.OpenExisting/TryOpenExisting, and Remove report to. Call this
// once during process startup; it is not safe to call concurrently with
// lifecycle operations.
func SetMetrics(m *metrics.Metrics) {
	activeMetrics = m
}

func recordSegmentOpened(delta int64) {
	n := atomic.AddInt64(&liveSegments, delta)
	activeMetrics.SetSegmentsLive(int(n))
}

// errorResultLabel reduces err to a low-cardinality Prometheus label:
// "ok" on success, otherwise the CreationErrorCode name, falling back to
// "error" for anything not shaped like a CreationError.
func errorResultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var ce *CreationError
	if asCreationError(err, &ce) {
		return ce.Code.String()
	}
	return "error"
}
