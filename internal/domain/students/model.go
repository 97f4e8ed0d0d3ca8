package students

// MesesOrdenados fija las doce claves de meses en orden calendario;
// el resto del paquete depende de este orden.
var MesesOrdenados = [12]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Columnas de la hoja de matrícula. Las filas 1 y 2 son encabezados.
const (
	colNombre     = 1  // A
	colGrado      = 2  // B
	colID         = 6  // F
	colPlanDePago = 8  // H
	colCuota      = 14 // N
	colMesInicio  = 23 // W = enero; los doce meses son contiguos hasta AH
	filaInicio    = 3
)

// planDiezCuotas corre el inicio de cobro de enero a febrero.
const planDiezCuotas = 10

type Student struct {
	ID         string
	Nombre     string
	Grado      string
	PlanDePago int
	// Monto pagado por mes; nil significa sin pago registrado
	// (distinto de un pago de 0).
	Meses        map[string]*float64
	CuotaMensual float64
	// Texto original de la celda de cuota, para diagnóstico cuando
	// el valor extraído es sospechosamente bajo.
	CuotaOriginal string
}

// Debt es el estado de deuda derivado de un estudiante y una fecha.
// No se persiste; se recalcula en cada consulta.
type Debt struct {
	MesesPendientes  []string
	CuotaMensual     float64
	DeudaMensualidad float64
	DeudaMora        float64
	TotalDeuda       float64
	AlDia            bool
}
