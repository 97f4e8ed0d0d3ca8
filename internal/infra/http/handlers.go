package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ijcv/chilo-bot/internal/domain/audit"
	"github.com/ijcv/chilo-bot/internal/domain/students"
)

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// listUsers devuelve los encargados del registro con filtros opcionales
// por nombre de alumno vinculado, id y actividad.
func (s *Server) listUsers(c echo.Context) error {
	ctx := c.Request().Context()

	all, err := s.deps.Guardians.All(ctx)
	if err != nil {
		s.log.Error("listar encargados falló", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Error listing users"})
	}

	nombre := strings.ToLower(c.QueryParam("nombre"))
	id := c.QueryParam("id")
	activo := c.QueryParam("activo")

	out := make([]guardianRow, 0, len(all))
	for _, g := range all {
		if id != "" && !strings.Contains(g.ID, id) {
			continue
		}
		if activo != "" && g.Activo != (activo == "true") {
			continue
		}
		// el registro no guarda nombres de encargados: el filtro por
		// nombre se resuelve contra los alumnos vinculados
		if nombre != "" && !s.anyStudentNamed(c, g.Alumnos, nombre) {
			continue
		}
		out = append(out, guardianRow{ID: g.ID, Activo: g.Activo, Alumnos: g.Alumnos})
	}
	return c.JSON(http.StatusOK, out)
}

type guardianRow struct {
	ID      string   `json:"id"`
	Activo  bool     `json:"activo"`
	Alumnos []string `json:"alumnos"`
}

func (s *Server) anyStudentNamed(c echo.Context, alumnos []string, nombreLower string) bool {
	ctx := c.Request().Context()
	for _, id := range alumnos {
		st, err := s.deps.Students.Find(ctx, id)
		if err != nil || st == nil {
			continue
		}
		if strings.Contains(strings.ToLower(st.Nombre), nombreLower) {
			return true
		}
	}
	return false
}

// listStudents lista el padrón con filtros por nombre, id y estado de
// pago. Un único mes pendiente igual al mes en curso cuenta como
// pagado en el panel.
func (s *Server) listStudents(c echo.Context) error {
	ctx := c.Request().Context()

	all, err := s.deps.Students.All(ctx)
	if err != nil {
		s.log.Error("listar estudiantes falló", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Error listing students"})
	}

	nombre := strings.ToLower(c.QueryParam("nombre"))
	id := c.QueryParam("id")
	estadoPago := strings.ToLower(c.QueryParam("estadoPago"))

	out := make([]students.Summary, 0, len(all))
	for _, st := range all {
		if nombre != "" && !strings.Contains(strings.ToLower(st.Nombre), nombre) {
			continue
		}
		if id != "" && !strings.Contains(st.ID, id) {
			continue
		}
		if estadoPago != "" {
			alDia, ok := s.isUpToDate(c, st.ID)
			if !ok {
				continue
			}
			if (estadoPago == "pagado") != alDia {
				continue
			}
		}
		out = append(out, st)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) isUpToDate(c echo.Context, id string) (alDia, ok bool) {
	st, err := s.deps.Students.Find(c.Request().Context(), id)
	if err != nil || st == nil {
		return false, false
	}

	now := s.now().In(s.loc)
	deuda := students.ComputeDebt(st, now)
	alDia = deuda.AlDia

	// deber solo el mes corriente no cuenta como mora en el panel
	if len(deuda.MesesPendientes) == 1 {
		mesActual := students.MesesOrdenados[int(now.Month())-1]
		if strings.EqualFold(deuda.MesesPendientes[0], mesActual) {
			alDia = true
		}
	}
	return alDia, true
}

func (s *Server) userHistory(c echo.Context) error {
	history, err := s.deps.Audits.HistoryOf(c.Request().Context(), c.Param("id"))
	if err != nil {
		s.log.Error("historial falló", "id", c.Param("id"), "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Error getting user history"})
	}
	if history == nil {
		history = []audit.Event{}
	}
	return c.JSON(http.StatusOK, history)
}

type studentPayload struct {
	ID           string              `json:"id"`
	Nombre       string              `json:"nombre"`
	Grado        string              `json:"grado"`
	PlanDePago   int                 `json:"planDePago"`
	Meses        map[string]*float64 `json:"meses"`
	CuotaMensual float64             `json:"cuotaMensual"`
}

type debtPayload struct {
	MesesPendientes  []string `json:"mesesPendientes"`
	CuotaMensual     float64  `json:"cuotaMensual"`
	DeudaMensualidad float64  `json:"deudaMensualidad"`
	DeudaMora        float64  `json:"deudaMora"`
	TotalDeuda       float64  `json:"totalDeuda"`
	AlDia            bool     `json:"alDia"`
}

func (s *Server) studentDebt(c echo.Context) error {
	st, err := s.deps.Students.Find(c.Request().Context(), c.Param("id"))
	if errors.Is(err, students.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "Estudiante no encontrado"})
	}
	if err != nil {
		s.log.Error("deuda de estudiante falló", "id", c.Param("id"), "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Error getting student debt"})
	}

	deuda := students.ComputeDebt(st, s.now().In(s.loc))
	pendientes := deuda.MesesPendientes
	if pendientes == nil {
		pendientes = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"estudiante": studentPayload{
			ID:           st.ID,
			Nombre:       st.Nombre,
			Grado:        st.Grado,
			PlanDePago:   st.PlanDePago,
			Meses:        st.Meses,
			CuotaMensual: st.CuotaMensual,
		},
		"deuda": debtPayload{
			MesesPendientes:  pendientes,
			CuotaMensual:     deuda.CuotaMensual,
			DeudaMensualidad: deuda.DeudaMensualidad,
			DeudaMora:        deuda.DeudaMora,
			TotalDeuda:       deuda.TotalDeuda,
			AlDia:            deuda.AlDia,
		},
	})
}

func (s *Server) statsMessages(c echo.Context) error {
	p := audit.ParsePeriod(c.QueryParam("period"))
	counts, err := s.deps.Audits.CountByPeriod(c.Request().Context(), audit.KindMensaje, p)
	if err != nil {
		s.log.Error("estadística de mensajes falló", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Error getting stats"})
	}
	return c.JSON(http.StatusOK, counts)
}

func (s *Server) statsUsers(c echo.Context) error {
	p := audit.ParsePeriod(c.QueryParam("period"))
	counts, err := s.deps.Audits.DistinctUsersByPeriod(c.Request().Context(), p)
	if err != nil {
		s.log.Error("estadística de usuarios falló", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Error getting stats"})
	}
	return c.JSON(http.StatusOK, counts)
}

func (s *Server) statsRegistrations(c echo.Context) error {
	ctx := c.Request().Context()
	p := audit.ParsePeriod(c.QueryParam("period"))

	registros, err := s.deps.Audits.CountByPeriod(ctx, audit.KindRegistro, p)
	if err != nil {
		s.log.Error("estadística de registros falló", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Error getting stats"})
	}
	bajas, err := s.deps.Audits.CountByPeriod(ctx, audit.KindEliminacion, p)
	if err != nil {
		s.log.Error("estadística de bajas falló", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Error getting stats"})
	}
	return c.JSON(http.StatusOK, map[string]map[string]int{
		"registrations": registros,
		"deletions":     bajas,
	})
}

func (s *Server) statsMessagesTotal(c echo.Context) error {
	total, err := s.deps.Audits.TotalMessages(c.Request().Context())
	if err != nil {
		s.log.Error("total de mensajes falló", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Error getting stats"})
	}
	return c.JSON(http.StatusOK, map[string]int{"total": total})
}

func (s *Server) financialSummary(c echo.Context) error {
	summary, err := s.deps.Finance.Summary(c.Request().Context())
	if err != nil {
		s.log.Error("resumen financiero falló", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Error fetching financial summary"})
	}
	return c.JSON(http.StatusOK, summary)
}

func (s *Server) dashboard(c echo.Context) error {
	d, err := s.deps.Finance.DashboardData(c.Request().Context())
	if err != nil {
		s.log.Error("dashboard falló", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "Error fetching dashboard"})
	}
	return c.JSON(http.StatusOK, d)
}

func (s *Server) uploadRelaciones(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Success: false, Message: "No file uploaded"})
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
		return c.JSON(http.StatusBadRequest, statusResponse{Success: false, Message: "Only .xlsx files are allowed"})
	}

	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, statusResponse{Success: false, Message: "Failed to read file"})
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, statusResponse{Success: false, Message: "Failed to read file"})
	}

	if err := s.deps.Relaciones.Replace(data); err != nil {
		s.log.Error("reemplazo de relaciones falló", "err", err)
		return c.JSON(http.StatusInternalServerError, statusResponse{Success: false, Message: "Failed to save file"})
	}
	return c.JSON(http.StatusOK, statusResponse{Success: true, Message: "File uploaded successfully"})
}

func (s *Server) updateExcelURL(c echo.Context) error {
	var body struct {
		NewURL string `json:"newUrl"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.NewURL) == "" {
		return c.JSON(http.StatusBadRequest, statusResponse{Success: false, Message: "Invalid or missing newUrl in request body"})
	}
	if err := s.deps.Source.SetSourceURL(body.NewURL); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Success: false, Message: err.Error()})
	}
	return c.JSON(http.StatusOK, statusResponse{Success: true, Message: "Excel URL updated successfully"})
}
