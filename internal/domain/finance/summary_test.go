package finance

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

func TestSheetRows(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Total a Pagar"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "EDITORIAL"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "L. 1,500.00"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "SANTILLANA"))

	rows := SheetRows(f, "Sheet1")
	require.Len(t, rows, 1)
	assert.Equal(t, "L. 1,500.00", rows[0]["TOTALAPAGAR"])
	assert.Equal(t, "SANTILLANA", rows[0]["EDITORIAL"])

	assert.Nil(t, SheetRows(f, "NO EXISTE"))
}

func TestCalcMatriculas(t *testing.T) {
	rows := []map[string]string{
		{"ENERO": "1000", "FEBRERO": "1000", "TOTALAPAGAR": "12000", "MATRETRASADA": "500"},
		{"ENERO": "900", "TOTALAPAGAR": "10800"},
	}
	b := calcMatriculas(rows)
	assert.InDelta(t, 23300, b.Total, 1e-9)
	assert.InDelta(t, 2900, b.Pagado, 1e-9)
	assert.InDelta(t, 20400, b.Pendiente, 1e-9)
	assert.InDelta(t, 1900, b.PorMes["ENERO"], 1e-9)
	assert.InDelta(t, 1000, b.PorMes["FEBRERO"], 1e-9)
	assert.Zero(t, b.PorMes["MARZO"])
}

func TestCalcLibros(t *testing.T) {
	rows := []map[string]string{
		{"TOTALAPAGAR": "800", "ESTADO": "PAGADO", "EDITORIAL": "SANTILLANA"},
		{"TOTALAPAGAR": "600", "ESTADO": "PENDIENTE", "EDITORIAL": "NORMA"},
		{"TOTALAPAGAR": "400", "ESTADO": "PAGADO"},
		{"TOTALAPAGAR": "0"},
	}
	l := calcLibros(rows)
	assert.InDelta(t, 1800, l.Total, 1e-9)
	assert.InDelta(t, 1200, l.Pagado, 1e-9)
	assert.InDelta(t, 600, l.Pendiente, 1e-9)
	assert.InDelta(t, 800, l.Editoriales["SANTILLANA"], 1e-9)
	assert.InDelta(t, 400, l.Editoriales["SIN EDITORIAL"], 1e-9)
}

func TestCalcTransporte(t *testing.T) {
	rows := []map[string]string{
		{"SUMAAPORT": "2400", "MARZO": "300", "SEPT": "300"},
	}
	b := calcTransporte(rows)
	assert.InDelta(t, 2400, b.Total, 1e-9)
	assert.InDelta(t, 300, b.PorMes["MARZO"], 1e-9)
	// las columnas abreviadas se publican con el nombre completo
	assert.InDelta(t, 300, b.PorMes["SEPTIEMBRE"], 1e-9)
}

func TestSummaryDistribucion(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", SheetMatricula))
	require.NoError(t, f.SetCellValue(SheetMatricula, "A1", "TOTAL A PAGAR"))
	require.NoError(t, f.SetCellValue(SheetMatricula, "A2", "1000"))

	svc := NewService(testLogger(), staticWorkbook{f})
	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 1000, sum.ResumenGeneral.TotalGeneral, 1e-9)
	assert.Equal(t, "100.00", sum.Distribucion.Matriculas)
	assert.Equal(t, "0.00", sum.Distribucion.Libros)
	assert.Equal(t, 1, sum.Metadata.TotalRegistros["matriculas"])
}

func TestDashboardData(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", SheetMatricula))
	headers := []string{"NOMBRE", "GRADO", "IDENTIDAD", "NIVEL", "CICLO", "SEXO", "DEUDA", "DIAS ATRASO", "BECA"}
	for i, h := range headers {
		axis, _ := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, f.SetCellValue(SheetMatricula, axis, h))
	}
	data := [][]any{
		{"ANA", "7MO", "0801199900011", "MEDIA", "2025", "F", 2500, 45, "SI"},
		{"BRUNO", "8VO", "0801200000022", "MEDIA", "2025", "M", 0, 0, "NO"},
		{"CARLA", "9NO", "0801200100033", "BASICA", "2025", "F", 5000, 70, ""},
	}
	for r, row := range data {
		for c, v := range row {
			axis, _ := excelize.CoordinatesToCellName(c+1, r+2)
			require.NoError(t, f.SetCellValue(SheetMatricula, axis, v))
		}
	}

	svc := NewService(testLogger(), staticWorkbook{f})
	d, err := svc.DashboardData(context.Background())
	require.NoError(t, err)

	a := d.Analysis
	assert.Equal(t, 3, a.TotalStudents)
	assert.Equal(t, 2, a.StudentsWithDebt)
	assert.InDelta(t, 7500, a.TotalDebt, 1e-9)
	assert.InDelta(t, 3750, a.AverageDebt, 1e-9)
	assert.InDelta(t, 2500, a.MinDebt, 1e-9)
	assert.InDelta(t, 5000, a.MaxDebt, 1e-9)
	require.Len(t, a.TopDebtors, 2)
	assert.Equal(t, "CARLA", a.TopDebtors[0].Nombre)
	assert.Equal(t, 2, a.Distribution.Level["MEDIA"])
	assert.Equal(t, 1, a.Segmentation.Morosos31a60)
	assert.Equal(t, 1, a.Segmentation.Morosos60Mas)
	assert.Equal(t, 1, a.Segmentation.AlDia)
	assert.Equal(t, 1, a.Segmentation.ConBeca)
	assert.InDelta(t, 66.666, a.MorosityRate, 0.01)
}
