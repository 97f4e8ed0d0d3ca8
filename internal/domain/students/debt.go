package students

import (
	"fmt"
	"strings"
	"time"
)

const moraRate = 0.05

// ComputeDebt calcula la deuda de un estudiante a una fecha dada.
// Es una función pura: mismos insumos, mismo resultado.
//
// El mes de inicio de cobro es enero, o febrero si el plan de pago es
// de diez cuotas. Un mes pendiente vence el día 11 del mes siguiente;
// pasado el vencimiento acumula una mora del 5% de la cuota mensual.
func ComputeDebt(s *Student, asOf time.Time) Debt {
	mesActual := int(asOf.Month())

	inicio := 1
	if s.PlanDePago == planDiezCuotas {
		inicio = 2
	}

	var pendientes []int
	for num := inicio; num <= mesActual; num++ {
		if s.Meses[MesesOrdenados[num-1]] == nil {
			pendientes = append(pendientes, num)
		}
	}

	var mora float64
	for _, num := range pendientes {
		anio := asOf.Year()
		// diciembre pendiente consultado en enero pertenece al año anterior
		if num == 12 && mesActual == 1 {
			anio--
		}
		vencimiento := time.Date(anio, time.Month(num)+1, 11, 0, 0, 0, 0, asOf.Location())
		if asOf.After(vencimiento) {
			mora += s.CuotaMensual * moraRate
		}
	}

	nombres := make([]string, len(pendientes))
	for i, num := range pendientes {
		nombres[i] = strings.ToUpper(MesesOrdenados[num-1])
	}

	mensualidad := s.CuotaMensual * float64(len(pendientes))
	return Debt{
		MesesPendientes:  nombres,
		CuotaMensual:     s.CuotaMensual,
		DeudaMensualidad: mensualidad,
		DeudaMora:        mora,
		TotalDeuda:       mensualidad + mora,
		AlDia:            len(pendientes) == 0,
	}
}

// FormatAmount es el formato monetario del contrato externo: dos
// decimales, sin símbolo.
func FormatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
