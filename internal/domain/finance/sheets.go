package finance

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var keyClean = regexp.MustCompile(`[^A-Z0-9]`)

// SheetRows lee una hoja como lista de mapas usando la fila 1 como
// encabezado. Las claves se normalizan a mayúsculas alfanuméricas
// ("TOTAL A PAGAR" -> "TOTALAPAGAR"). Una hoja inexistente devuelve
// lista vacía, no error: los tableros toleran pestañas faltantes.
func SheetRows(f *excelize.File, sheet string) []map[string]string {
	rows, err := f.GetRows(sheet)
	if err != nil || len(rows) < 2 {
		return nil
	}

	keys := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		keys[i] = keyClean.ReplaceAllString(strings.ToUpper(strings.TrimSpace(h)), "")
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := map[string]string{}
		empty := true
		for i, cell := range row {
			if i >= len(keys) || keys[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				empty = false
			}
			m[keys[i]] = cell
		}
		if !empty {
			out = append(out, m)
		}
	}
	return out
}

// num parsea un monto tolerando símbolos de moneda y separadores de
// miles; lo ilegible vale 0, como siempre lo trató el panel.
func num(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	m := numberPattern.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0
	}
	return n
}

var numberPattern = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

func intOf(s string) int { return int(num(s)) }
