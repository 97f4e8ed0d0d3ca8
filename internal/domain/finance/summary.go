package finance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
)

// Pestañas del workbook que alimentan el resumen financiero.
const (
	SheetMatricula   = "MATRICULA 2025"
	SheetEditoriales = "EDITORIALES 2025"
	SheetTransporte  = "INGRESO TES 2025"
)

var mesesMayus = [12]string{
	"ENERO", "FEBRERO", "MARZO", "ABRIL", "MAYO", "JUNIO",
	"JULIO", "AGOSTO", "SEPTIEMBRE", "OCTUBRE", "NOVIEMBRE", "DICIEMBRE",
}

// La hoja de transporte abrevia los últimos meses.
var mesesTransporte = map[string]string{
	"MARZO": "MARZO", "ABRIL": "ABRIL", "MAYO": "MAYO", "JUNIO": "JUNIO",
	"JULIO": "JULIO", "AGOSTO": "AGOSTO",
	"SEPT": "SEPTIEMBRE", "OCT": "OCTUBRE", "NOV": "NOVIEMBRE", "DIC": "DICIEMBRE",
}

type Bucket struct {
	Total     float64            `json:"total"`
	Pagado    float64            `json:"pagado"`
	Pendiente float64            `json:"pendiente"`
	PorMes    map[string]float64 `json:"porMes,omitempty"`
}

type Libros struct {
	Total       float64            `json:"total"`
	Pagado      float64            `json:"pagado"`
	Pendiente   float64            `json:"pendiente"`
	Editoriales map[string]float64 `json:"editoriales"`
}

type Summary struct {
	ResumenGeneral struct {
		Matriculas   Bucket  `json:"matriculas"`
		Libros       Libros  `json:"libros"`
		Transporte   Bucket  `json:"transporte"`
		TotalGeneral float64 `json:"totalGeneral"`
	} `json:"resumenGeneral"`
	Distribucion struct {
		Matriculas string `json:"matriculas"`
		Libros     string `json:"libros"`
		Transporte string `json:"transporte"`
	} `json:"distribucion"`
	SeriesTemporales struct {
		Matriculas map[string]float64 `json:"matriculas"`
		Transporte map[string]float64 `json:"transporte"`
	} `json:"seriesTemporales"`
	DetalleEditoriales map[string]float64 `json:"detalleEditoriales"`
	Metadata           Metadata           `json:"metadata"`
}

type Metadata struct {
	UltimaActualizacion time.Time      `json:"ultimaActualizacion"`
	TotalRegistros      map[string]int `json:"totalRegistros"`
}

// WorkbookProvider entrega el workbook de cuentas vigente.
type WorkbookProvider interface {
	Workbook(ctx context.Context) (*excelize.File, error)
}

type Service struct {
	log   *slog.Logger
	cache WorkbookProvider
}

func NewService(log *slog.Logger, cache WorkbookProvider) *Service {
	return &Service{log: log, cache: cache}
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	f, err := s.cache.Workbook(ctx)
	if err != nil {
		return nil, err
	}

	matRows := SheetRows(f, SheetMatricula)
	libRows := SheetRows(f, SheetEditoriales)
	traRows := SheetRows(f, SheetTransporte)

	var out Summary
	out.ResumenGeneral.Matriculas = calcMatriculas(matRows)
	out.ResumenGeneral.Libros = calcLibros(libRows)
	out.ResumenGeneral.Transporte = calcTransporte(traRows)
	out.ResumenGeneral.TotalGeneral = out.ResumenGeneral.Matriculas.Total +
		out.ResumenGeneral.Libros.Total + out.ResumenGeneral.Transporte.Total

	total := out.ResumenGeneral.TotalGeneral
	pct := func(v float64) string {
		if total == 0 {
			return "0.00"
		}
		return fmt.Sprintf("%.2f", v/total*100)
	}
	out.Distribucion.Matriculas = pct(out.ResumenGeneral.Matriculas.Total)
	out.Distribucion.Libros = pct(out.ResumenGeneral.Libros.Total)
	out.Distribucion.Transporte = pct(out.ResumenGeneral.Transporte.Total)

	out.SeriesTemporales.Matriculas = out.ResumenGeneral.Matriculas.PorMes
	out.SeriesTemporales.Transporte = out.ResumenGeneral.Transporte.PorMes
	out.DetalleEditoriales = out.ResumenGeneral.Libros.Editoriales

	out.Metadata = Metadata{
		UltimaActualizacion: time.Now(),
		TotalRegistros: map[string]int{
			"matriculas": len(matRows),
			"libros":     len(libRows),
			"transporte": len(traRows),
		},
	}
	return &out, nil
}

func calcMatriculas(rows []map[string]string) Bucket {
	b := Bucket{PorMes: map[string]float64{}}
	for _, mes := range mesesMayus {
		b.PorMes[mes] = 0
	}
	for _, row := range rows {
		for _, mes := range mesesMayus {
			v := num(row[mes])
			b.Pagado += v
			b.PorMes[mes] += v
		}
		b.Total += num(row["MATRETRASADA"]) + num(row["TOTALAPAGAR"])
	}
	b.Pendiente = b.Total - b.Pagado
	return b
}

func calcLibros(rows []map[string]string) Libros {
	l := Libros{Editoriales: map[string]float64{}}
	for _, row := range rows {
		total := num(row["TOTALAPAGAR"])
		if total <= 0 {
			continue
		}
		editorial := row["EDITORIAL"]
		if editorial == "" {
			editorial = "SIN EDITORIAL"
		}
		l.Total += total
		if row["ESTADO"] == "PAGADO" {
			l.Pagado += total
			l.Editoriales[editorial] += total
		} else {
			l.Pendiente += total
		}
	}
	return l
}

func calcTransporte(rows []map[string]string) Bucket {
	b := Bucket{PorMes: map[string]float64{}}
	for _, row := range rows {
		aporte := num(row["SUMAAPORT"])
		b.Total += aporte
		b.Pagado += aporte
		for col, mes := range mesesTransporte {
			b.PorMes[mes] += num(row[col])
		}
	}
	b.Pendiente = b.Total - b.Pagado
	return b
}
