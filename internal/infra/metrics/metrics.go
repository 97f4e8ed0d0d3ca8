package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Turnos de conversación procesados, etiquetados por estado de entrada.
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chilobot_turns_total",
		Help: "Processed conversation turns by dialog state.",
	}, []string{"state"})

	TurnFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chilobot_turn_failures_total",
		Help: "Turns that ended in the generic apology path.",
	})

	BroadcastSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chilobot_broadcast_sent_total",
		Help: "Broadcast messages delivered to guardians.",
	})

	WorkbookRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chilobot_workbook_refreshes_total",
		Help: "Workbook cache refresh attempts by result.",
	}, []string{"result"})
)
