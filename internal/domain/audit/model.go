package audit

import "time"

type Kind string

const (
	KindMensaje     Kind = "mensaje"
	KindRegistro    Kind = "registro"
	KindEliminacion Kind = "eliminacion"
)

// Event es una entrada del registro de auditoría, solo-agregar.
type Event struct {
	Kind    Kind      `json:"tipo"`
	At      time.Time `json:"fecha"`
	UserID  string    `json:"usuario"`
	Detalle string    `json:"detalle"`
}

// Period agrupa las estadísticas por día, semana ISO o mes.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod normaliza el query param; cualquier valor desconocido
// cae en "day", igual que el panel siempre lo hizo.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodWeek, PeriodMonth:
		return Period(s)
	default:
		return PeriodDay
	}
}
