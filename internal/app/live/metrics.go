package live

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	subscriptionsOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "kesher",
		Subsystem: "live",
		Name:      "subscriptions_open",
		Help:      "Open live subscriptions per collection.",
	}, []string{"collection"})

	snapshotsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kesher",
		Subsystem: "live",
		Name:      "snapshots_published_total",
		Help:      "Snapshots published to subscribers per collection.",
	}, []string{"collection"})

	seedWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kesher",
		Subsystem: "live",
		Name:      "seed_writes_total",
		Help:      "Default records written into empty collections.",
	}, []string{"collection"})
)
