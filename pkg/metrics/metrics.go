package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesDispatched counts persisted messages
	MessagesDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chat",
		Name:      "messages_dispatched_total",
		Help:      "Messages persisted by the dispatcher.",
	})

	// FanoutDeliveries counts per-connection pushes by result (ok, failed)
	FanoutDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chat",
		Name:      "fanout_deliveries_total",
		Help:      "Live event pushes per connection.",
	}, []string{"event", "result"})

	// NotifyPublished counts delivery events handed to the notification channel
	NotifyPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chat",
		Name:      "notify_published_total",
		Help:      "Delivery events published to the notification channel.",
	}, []string{"driver", "result"})

	// LiveConnections current registered live connections
	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "chat",
		Name:      "live_connections",
		Help:      "Open live connections on this instance.",
	})

	// ReadMarked counts recipient rows flipped to read by trigger (fetch, bulk)
	ReadMarked = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chat",
		Name:      "read_marked_total",
		Help:      "Message recipient rows marked read.",
	}, []string{"trigger"})
)
