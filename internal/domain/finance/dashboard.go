package finance

import (
	"context"
	"sort"
	"strings"
	"time"
)

type Dashboard struct {
	Metadata struct {
		LastUpdated  time.Time      `json:"lastUpdated"`
		RecordCounts map[string]int `json:"recordCounts"`
	} `json:"metadata"`
	Analysis Analysis `json:"analysis"`
}

type Analysis struct {
	TotalStudents    int            `json:"totalStudents"`
	Distribution     Distribution   `json:"distribution"`
	TotalDebt        float64        `json:"totalDebt"`
	StudentsWithDebt int            `json:"studentsWithDebt"`
	AverageDebt      float64        `json:"averageDebt"`
	MinDebt          float64        `json:"minDebt"`
	MaxDebt          float64        `json:"maxDebt"`
	TopDebtors       []Debtor       `json:"topDebtors"`
	MorosityRate     float64        `json:"morosityRate"`
	OverdueHistogram map[string]int `json:"daysOverdueHistogram"`
	Segmentation     Segmentation   `json:"segmentation"`
}

type Distribution struct {
	Level  map[string]int `json:"level"`
	Year   map[string]int `json:"year"`
	Gender map[string]int `json:"gender"`
}

type Debtor struct {
	ID     string  `json:"id"`
	Nombre string  `json:"nombre"`
	Grado  string  `json:"grado"`
	Deuda  float64 `json:"deuda"`
}

type Segmentation struct {
	AlDia        int `json:"alDia"`
	Morosos1a30  int `json:"morosos_1_30"`
	Morosos31a60 int `json:"morosos_31_60"`
	Morosos60Mas int `json:"morosos_60mas"`
	ConBeca      int `json:"conBeca"`
}

// DashboardData arma el tablero administrativo a partir de la hoja de
// matrícula: distribución de alumnos, morosidad y top de deudores.
func (s *Service) DashboardData(ctx context.Context) (*Dashboard, error) {
	f, err := s.cache.Workbook(ctx)
	if err != nil {
		return nil, err
	}
	rows := SheetRows(f, SheetMatricula)

	var d Dashboard
	d.Metadata.LastUpdated = time.Now()
	d.Metadata.RecordCounts = map[string]int{SheetMatricula: len(rows)}

	a := &d.Analysis
	a.TotalStudents = len(rows)
	a.Distribution = Distribution{
		Level:  map[string]int{},
		Year:   map[string]int{},
		Gender: map[string]int{},
	}
	a.OverdueHistogram = map[string]int{}

	orDesconocido := func(v string) string {
		if v == "" {
			return "Desconocido"
		}
		return v
	}

	var debts []float64
	for _, row := range rows {
		a.Distribution.Level[orDesconocido(row["NIVEL"])]++
		a.Distribution.Year[orDesconocido(row["CICLO"])]++
		a.Distribution.Gender[orDesconocido(row["SEXO"])]++

		debt := num(row["DEUDA"])
		a.TotalDebt += debt
		if debt > 0 {
			a.StudentsWithDebt++
			debts = append(debts, debt)
			a.TopDebtors = append(a.TopDebtors, Debtor{
				ID:     row["IDENTIDAD"],
				Nombre: row["NOMBRE"],
				Grado:  row["GRADO"],
				Deuda:  debt,
			})
		}

		days := intOf(row["DIASATRASO"])
		switch {
		case days > 60:
			a.OverdueHistogram["+60"]++
			a.Segmentation.Morosos60Mas++
		case days > 30:
			a.OverdueHistogram["31-60"]++
			a.Segmentation.Morosos31a60++
		case days > 0:
			a.OverdueHistogram["1-30"]++
			a.Segmentation.Morosos1a30++
		default:
			a.OverdueHistogram["0"]++
			a.Segmentation.AlDia++
		}

		if strings.EqualFold(row["BECA"], "si") {
			a.Segmentation.ConBeca++
		}
	}

	if a.StudentsWithDebt > 0 {
		a.AverageDebt = a.TotalDebt / float64(a.StudentsWithDebt)
		a.MinDebt = debts[0]
		a.MaxDebt = debts[0]
		for _, v := range debts[1:] {
			if v < a.MinDebt {
				a.MinDebt = v
			}
			if v > a.MaxDebt {
				a.MaxDebt = v
			}
		}
	}
	if a.TotalStudents > 0 {
		a.MorosityRate = float64(a.StudentsWithDebt) / float64(a.TotalStudents) * 100
	}

	sort.Slice(a.TopDebtors, func(i, j int) bool { return a.TopDebtors[i].Deuda > a.TopDebtors[j].Deuda })
	if len(a.TopDebtors) > 10 {
		a.TopDebtors = a.TopDebtors[:10]
	}
	return &d, nil
}
