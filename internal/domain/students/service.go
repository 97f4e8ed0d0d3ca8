package students

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrNotFound = errors.New("students: estudiante no encontrado")

// WorkbookProvider entrega el workbook de cuentas vigente.
type WorkbookProvider interface {
	Workbook(ctx context.Context) (*excelize.File, error)
}

type Service struct {
	log   *slog.Logger
	cache WorkbookProvider
	sheet string
}

func NewService(log *slog.Logger, cache WorkbookProvider, sheet string) *Service {
	return &Service{log: log, cache: cache, sheet: sheet}
}

// dataSheet devuelve la hoja de matrícula, o la primera del workbook
// si la hoja configurada no existe.
func (s *Service) dataSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook sin hojas")
	}
	for _, name := range sheets {
		if name == s.sheet {
			return name, nil
		}
	}
	s.log.Warn("hoja no encontrada por nombre, usando la primera", "hoja", s.sheet, "usando", sheets[0])
	return sheets[0], nil
}

// Find busca un estudiante por número de identidad, comparación exacta
// sobre la columna de identidad.
func (s *Service) Find(ctx context.Context, id string) (*Student, error) {
	f, err := s.cache.Workbook(ctx)
	if err != nil {
		return nil, err
	}
	sheet, err := s.dataSheet(f)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("leer hoja %s: %w", sheet, err)
	}

	for i := filaInicio - 1; i < len(rows); i++ {
		if cellAt(rows[i], colID) != id {
			continue
		}
		return s.buildStudent(f, sheet, i+1, id), nil
	}
	return nil, ErrNotFound
}

func (s *Service) buildStudent(f *excelize.File, sheet string, row int, id string) *Student {
	cuotaCell := readCell(f, sheet, colCuota, row)
	cuota := 0.0
	if v := cuotaCell.Amount(); v != nil {
		cuota = *v
	}

	st := &Student{
		ID:            id,
		Nombre:        cellText(f, sheet, colNombre, row),
		Grado:         cellText(f, sheet, colGrado, row),
		PlanDePago:    cellInt(f, sheet, colPlanDePago, row),
		Meses:         make(map[string]*float64, len(MesesOrdenados)),
		CuotaMensual:  cuota,
		CuotaOriginal: cuotaCell.Text,
	}
	for i, mes := range MesesOrdenados {
		st.Meses[mes] = readCell(f, sheet, colMesInicio+i, row).Amount()
	}
	return st
}

// Summary es la fila mínima que usa el panel administrativo.
type Summary struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Grado  string `json:"grado"`
}

// All recorre la hoja completa; filas sin identidad se omiten.
func (s *Service) All(ctx context.Context) ([]Summary, error) {
	f, err := s.cache.Workbook(ctx)
	if err != nil {
		return nil, err
	}
	sheet, err := s.dataSheet(f)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("leer hoja %s: %w", sheet, err)
	}

	var out []Summary
	for i := filaInicio - 1; i < len(rows); i++ {
		id := cellAt(rows[i], colID)
		if id == "" {
			continue
		}
		out = append(out, Summary{
			ID:     id,
			Nombre: cellAt(rows[i], colNombre),
			Grado:  cellAt(rows[i], colGrado),
		})
	}
	return out, nil
}

func cellAt(row []string, col int) string {
	if col-1 >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col-1])
}

func cellText(f *excelize.File, sheet string, col, row int) string {
	return strings.TrimSpace(readCell(f, sheet, col, row).Text)
}

func cellInt(f *excelize.File, sheet string, col, row int) int {
	txt := cellText(f, sheet, col, row)
	if n, err := strconv.Atoi(txt); err == nil {
		return n
	}
	if fl, err := strconv.ParseFloat(txt, 64); err == nil {
		return int(fl)
	}
	return 0
}
