package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes run metrics in the Prometheus text format, suitable for
// the node exporter textfile collector. Every metric becomes one sample of
// the fuelcycle_run_metric gauge labelled by name, alongside the calibration
// summary gauges.
func WriteTextfile(path, scenario string, values map[string]float64, summary Summary) error {
	reg := prometheus.NewRegistry()

	metric := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fuelcycle",
		Name:      "run_metric",
		Help:      "Per-run inventory metric.",
	}, []string{"scenario", "metric"})

	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		metric.WithLabelValues(scenario, n).Set(values[n])
	}

	labels := prometheus.Labels{"scenario": scenario}
	gauges := []struct {
		name, help string
		value      float64
	}{
		{"tbr", "Accepted tritium breeding ratio.", summary.TBR},
		{"startup_inventory", "Accepted startup inventory.", summary.IStartup},
		{"doubling_time_years", "Doubling time of the fueling inventory.", summary.DoublingTime},
		{"attempts", "Calibration attempts used.", float64(summary.Attempts)},
		{"converged", "1 when calibration met both targets.", boolGauge(summary.Converged)},
	}

	reg.MustRegister(metric)
	for _, g := range gauges {
		v := g.value
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "fuelcycle",
			Name:        g.name,
			Help:        g.help,
			ConstLabels: labels,
		}, func() float64 { return v }))
	}

	return prometheus.WriteToTextfile(path, reg)
}

// Summary is the calibration outcome exported next to the metrics.
type Summary struct {
	TBR          float64
	IStartup     float64
	DoublingTime float64
	Attempts     int
	Converged    bool
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
