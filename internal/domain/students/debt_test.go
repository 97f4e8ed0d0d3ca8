package students

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(v float64) *float64 { return &v }

func newStudent(plan int, cuota float64, pagados ...string) *Student {
	s := &Student{
		ID:           "0801199900011",
		Nombre:       "ANA LOPEZ",
		Grado:        "7MO",
		PlanDePago:   plan,
		CuotaMensual: cuota,
		Meses:        map[string]*float64{},
	}
	for _, mes := range MesesOrdenados {
		s.Meses[mes] = nil
	}
	for _, mes := range pagados {
		s.Meses[mes] = amount(cuota)
	}
	return s
}

func TestComputeDebtVentanaDePlan(t *testing.T) {
	asOf := time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		plan       int
		pendientes []string
	}{
		{name: "plan normal arranca en enero", plan: 12, pendientes: []string{"ENERO", "FEBRERO", "MARZO"}},
		{name: "plan de diez cuotas arranca en febrero", plan: 10, pendientes: []string{"FEBRERO", "MARZO"}},
		{name: "plan cero se trata como normal", plan: 0, pendientes: []string{"ENERO", "FEBRERO", "MARZO"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ComputeDebt(newStudent(tt.plan, 1000), asOf)
			assert.Equal(t, tt.pendientes, d.MesesPendientes)
			assert.False(t, d.AlDia)
			assert.Equal(t, 1000*float64(len(tt.pendientes)), d.DeudaMensualidad)
		})
	}
}

func TestComputeDebtMora(t *testing.T) {
	// enero vence el 11 de febrero; febrero vence el 11 de marzo
	tests := []struct {
		name string
		asOf time.Time
		mora float64
	}{
		{
			name: "antes del vencimiento no hay mora",
			asOf: time.Date(2025, time.February, 10, 23, 0, 0, 0, time.UTC),
			mora: 0,
		},
		{
			name: "pasado el vencimiento acumula 5% por mes vencido",
			asOf: time.Date(2025, time.February, 12, 0, 0, 1, 0, time.UTC),
			mora: 50,
		},
		{
			name: "dos meses vencidos, uno dentro de plazo",
			asOf: time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC),
			mora: 100, // enero y febrero vencidos; marzo aún en plazo
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ComputeDebt(newStudent(12, 1000), tt.asOf)
			assert.InDelta(t, tt.mora, d.DeudaMora, 1e-9)
			assert.InDelta(t, d.DeudaMensualidad+tt.mora, d.TotalDeuda, 1e-9)
		})
	}
}

func TestComputeDebtAlDia(t *testing.T) {
	asOf := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	s := newStudent(12, 1000, "enero", "febrero", "marzo")

	d := ComputeDebt(s, asOf)
	require.True(t, d.AlDia)
	assert.Empty(t, d.MesesPendientes)
	assert.Zero(t, d.TotalDeuda)
	assert.Zero(t, d.DeudaMora)
}

func TestComputeDebtPagoDeCeroCuentaComoPagado(t *testing.T) {
	// un monto de 0 registrado es distinto de una celda vacía
	asOf := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)
	s := newStudent(12, 1000)
	s.Meses["enero"] = amount(0)

	d := ComputeDebt(s, asOf)
	assert.True(t, d.AlDia)
}

func TestComputeDebtEsDeterminista(t *testing.T) {
	asOf := time.Date(2025, time.July, 14, 8, 30, 0, 0, time.UTC)
	s := newStudent(10, 1250.50, "febrero", "abril")

	first := ComputeDebt(s, asOf)
	second := ComputeDebt(s, asOf)
	assert.Equal(t, first, second)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1250.00", FormatAmount(1250))
	assert.Equal(t, "62.50", FormatAmount(62.5))
	assert.Equal(t, "0.00", FormatAmount(0))
}
