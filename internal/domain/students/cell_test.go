package students

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellValueAmount(t *testing.T) {
	tests := []struct {
		name string
		cell CellValue
		want *float64
	}{
		{name: "celda vacía", cell: CellValue{}, want: nil},
		{name: "número crudo", cell: CellValue{Kind: CellNumber, Text: "1250"}, want: amount(1250)},
		{name: "número decimal", cell: CellValue{Kind: CellNumber, Text: "1250.5"}, want: amount(1250.5)},
		{name: "texto con moneda", cell: CellValue{Kind: CellText, Text: "L.500.00"}, want: amount(500)},
		{name: "texto con miles", cell: CellValue{Kind: CellText, Text: "L. 1,250.00"}, want: amount(1250)},
		{name: "texto sin número", cell: CellValue{Kind: CellText, Text: "BECADO"}, want: nil},
		{name: "resultado de fórmula", cell: CellValue{Kind: CellFormula, Text: "750", Formula: "SUM(A1:A3)"}, want: amount(750)},
		{name: "fórmula con resultado formateado", cell: CellValue{Kind: CellFormula, Text: "L. 2,500.00", Formula: "N3*2"}, want: amount(2500)},
		{name: "negativo", cell: CellValue{Kind: CellText, Text: "-75.25"}, want: amount(-75.25)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cell.Amount()
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}
