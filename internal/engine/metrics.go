package engine

import "expvar"

var (
	metricDiceRolls          = expvar.NewInt("engine_dice_rolls_total")
	metricMoves              = expvar.NewInt("engine_moves_total")
	metricCaptures           = expvar.NewInt("engine_captures_total")
	metricActionErrors       = expvar.NewInt("engine_action_errors_total")
	metricGamesFinished      = expvar.NewInt("engine_games_finished_total")
	metricSettlementFailures = expvar.NewInt("engine_settlement_failures_total")

	metricBotTurnsStarted = expvar.NewInt("engine_bot_turns_started_total")
	metricBotTurnsActive  = expvar.NewInt("engine_bot_turns_active")
	metricBotPasses       = expvar.NewInt("engine_bot_passes_total")
)
