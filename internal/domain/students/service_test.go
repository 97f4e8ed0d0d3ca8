package students

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type staticWorkbook struct{ f *excelize.File }

func (s staticWorkbook) Workbook(context.Context) (*excelize.File, error) { return s.f, nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// matrícula de prueba: dos filas de encabezado, datos desde la fila 3
func buildWorkbook(t *testing.T, sheet string) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))

	set := func(axis string, v any) {
		require.NoError(t, f.SetCellValue(sheet, axis, v))
	}
	set("A1", "INSTITUTO")
	set("A2", "NOMBRE")

	set("A3", "ANA LOPEZ")
	set("B3", "7MO")
	set("F3", "0801199900011")
	set("H3", 10)
	set("N3", "L. 1,250.00")
	set("W3", 1250)     // enero pagado
	set("X3", "L.1250") // febrero pagado, celda con formato de moneda

	set("A4", "BRUNO DIAZ")
	set("B4", "8VO")
	set("F4", "0801200000022")
	set("H4", 12)
	set("N4", 900)

	return f
}

func TestServiceFind(t *testing.T) {
	f := buildWorkbook(t, "MATRICULA 2025")
	svc := NewService(testLogger(), staticWorkbook{f}, "MATRICULA 2025")

	st, err := svc.Find(context.Background(), "0801199900011")
	require.NoError(t, err)
	assert.Equal(t, "ANA LOPEZ", st.Nombre)
	assert.Equal(t, "7MO", st.Grado)
	assert.Equal(t, 10, st.PlanDePago)
	assert.InDelta(t, 1250, st.CuotaMensual, 1e-9)

	require.NotNil(t, st.Meses["enero"])
	assert.InDelta(t, 1250, *st.Meses["enero"], 1e-9)
	require.NotNil(t, st.Meses["febrero"])
	assert.InDelta(t, 1250, *st.Meses["febrero"], 1e-9)
	assert.Nil(t, st.Meses["marzo"])
}

func TestServiceFindNoExiste(t *testing.T) {
	f := buildWorkbook(t, "MATRICULA 2025")
	svc := NewService(testLogger(), staticWorkbook{f}, "MATRICULA 2025")

	st, err := svc.Find(context.Background(), "9999999999999")
	assert.Nil(t, st)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceFindHojaPorDefecto(t *testing.T) {
	// si la hoja configurada no existe se usa la primera
	f := buildWorkbook(t, "OTRA HOJA")
	svc := NewService(testLogger(), staticWorkbook{f}, "MATRICULA 2025")

	st, err := svc.Find(context.Background(), "0801200000022")
	require.NoError(t, err)
	assert.Equal(t, "BRUNO DIAZ", st.Nombre)
	assert.Equal(t, 12, st.PlanDePago)
	assert.InDelta(t, 900, st.CuotaMensual, 1e-9)
}

func TestServiceAll(t *testing.T) {
	f := buildWorkbook(t, "MATRICULA 2025")
	svc := NewService(testLogger(), staticWorkbook{f}, "MATRICULA 2025")

	list, err := svc.All(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, Summary{ID: "0801199900011", Nombre: "ANA LOPEZ", Grado: "7MO"}, list[0])
	assert.Equal(t, Summary{ID: "0801200000022", Nombre: "BRUNO DIAZ", Grado: "8VO"}, list[1])
}
