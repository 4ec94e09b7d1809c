package ws

import "expvar"

var (
	metricConnectionsTotal  = expvar.NewInt("ws_connections_total")
	metricConnectionsActive = expvar.NewInt("ws_connections_active")
	metricActionsTotal      = expvar.NewInt("ws_actions_total")
	metricActionErrors      = expvar.NewInt("ws_action_errors_total")
	metricSendDropped       = expvar.NewInt("ws_send_dropped_total")
)
