package notify

import "expvar"

var (
	metricNotified      = expvar.NewInt("notify_events_total")
	metricDropped       = expvar.NewInt("notify_dropped_total")
	metricSubscribers   = expvar.NewInt("notify_subscribers_active")
	metricPublishErrors = expvar.NewInt("notify_redis_publish_errors_total")
)
