package grid

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var quarantinedNetworks = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "energynet",
		Subsystem: "grid",
		Name:      "quarantined_networks",
		Help:      "Networks skipped after a singular Jacobian.",
	},
)
