package supervisor

import "expvar"

var (
	metricTicks           = expvar.NewInt("supervisor_ticks_total")
	metricTickErrors      = expvar.NewInt("supervisor_tick_errors_total")
	metricSessionErrors   = expvar.NewInt("supervisor_session_errors_total")
	metricTurnSkips       = expvar.NewInt("supervisor_turn_skips_total")
	metricBotReplacements = expvar.NewInt("supervisor_bot_replacements_total")
	metricPurged          = expvar.NewInt("supervisor_purged_sessions_total")
)
