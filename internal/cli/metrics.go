package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/criteria/internal/metrics"
)

// commandMetrics collects repository metrics for a single command run on a
// private registry.
type commandMetrics struct {
	*metrics.Metrics
	registry *prometheus.Registry
}

func newCommandMetrics() *commandMetrics {
	reg := prometheus.NewRegistry()
	return &commandMetrics{Metrics: metrics.New(reg), registry: reg}
}

// report writes every collected series in the Prometheus text format to
// the diagnostic writer. It prints nothing without --verbose.
func (m *commandMetrics) report(formatter *OutputFormatter) {
	if !formatter.Verbose {
		return
	}
	families, err := m.registry.Gather()
	if err != nil {
		formatter.VerboseLog("gather metrics: %v", err)
		return
	}
	w := formatter.GetErrWriter()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			formatter.VerboseLog("write metrics: %v", err)
			return
		}
	}
}
