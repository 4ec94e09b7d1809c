package httptransport

import "expvar"

var (
	metricSessionCreateTotal  = expvar.NewInt("http_session_create_total")
	metricSessionCreateErrors = expvar.NewInt("http_session_create_errors_total")

	metricActionSubmitTotal  = expvar.NewInt("http_action_submit_total")
	metricActionSubmitErrors = expvar.NewInt("http_action_submit_errors_total")

	metricSSEConnectionsTotal  = expvar.NewInt("http_sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("http_sse_connections_active")
)
