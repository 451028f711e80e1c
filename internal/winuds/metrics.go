package winuds

import "github.com/marmos91/dittoshm/pkg/metrics"

var activeMetrics = metrics.NullMetrics()

// SetMetrics installs m as the sink for directory lookup metrics. Passing
// nil (or metrics.NullMetrics()) restores the zero-overhead no-op sink.
func SetMetrics(m *metrics.Metrics) {
	activeMetrics = m
}
