package students

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
	CellFormula
)

// CellValue es la unión de los tres tipos de celda que aparecen en el
// workbook: número crudo, texto con formato de moneda, o fórmula con
// resultado calculado.
type CellValue struct {
	Kind CellKind
	// Texto crudo de la celda (o resultado cacheado si es fórmula).
	Text string
	// Fórmula original cuando Kind == CellFormula.
	Formula string
}

func readCell(f *excelize.File, sheet string, col, row int) CellValue {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return CellValue{}
	}
	val, _ := f.GetCellValue(sheet, axis)
	if strings.TrimSpace(val) == "" {
		return CellValue{}
	}

	if formula, _ := f.GetCellFormula(sheet, axis); formula != "" {
		return CellValue{Kind: CellFormula, Text: val, Formula: formula}
	}
	if ct, _ := f.GetCellType(sheet, axis); ct == excelize.CellTypeNumber || ct == excelize.CellTypeUnset {
		// excelize reporta las celdas numéricas sin estilo como Unset
		return CellValue{Kind: CellNumber, Text: val}
	}
	return CellValue{Kind: CellText, Text: val}
}

var numberPattern = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// Amount normaliza la celda a un monto. Acepta números crudos, texto
// con símbolo de moneda y separador de miles ("L. 1,250.00") y
// resultados de fórmula. nil equivale a "sin pago registrado".
func (v CellValue) Amount() *float64 {
	switch v.Kind {
	case CellEmpty:
		return nil
	case CellNumber, CellFormula:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64); err == nil {
			return &n
		}
		return cleanAmount(v.Text)
	default:
		return cleanAmount(v.Text)
	}
}

func cleanAmount(s string) *float64 {
	m := numberPattern.FindString(s)
	if m == "" {
		return nil
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &n
}
