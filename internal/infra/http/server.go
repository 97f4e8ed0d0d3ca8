package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ijcv/chilo-bot/internal/domain/audit"
	"github.com/ijcv/chilo-bot/internal/domain/finance"
	"github.com/ijcv/chilo-bot/internal/domain/guardians"
	"github.com/ijcv/chilo-bot/internal/domain/students"
)

// Superficies que consume el panel administrativo. Las implementaciones
// reales son los repos y servicios del dominio; los tests usan fakes.
type (
	StudentDirectory interface {
		Find(ctx context.Context, id string) (*students.Student, error)
		All(ctx context.Context) ([]students.Summary, error)
	}

	GuardianRegistry interface {
		All(ctx context.Context) ([]guardians.Guardian, error)
	}

	AuditQueries interface {
		HistoryOf(ctx context.Context, id string) ([]audit.Event, error)
		CountByPeriod(ctx context.Context, kind audit.Kind, p audit.Period) (map[string]int, error)
		DistinctUsersByPeriod(ctx context.Context, p audit.Period) (map[string]int, error)
		TotalMessages(ctx context.Context) (int, error)
	}

	FinanceReports interface {
		Summary(ctx context.Context) (*finance.Summary, error)
		DashboardData(ctx context.Context) (*finance.Dashboard, error)
	}

	// RelacionesStore reemplaza el archivo de PINes de forma atómica.
	RelacionesStore interface {
		Replace(data []byte) error
	}

	// SourceConfigurer cambia la URL del workbook de cuentas en caliente.
	SourceConfigurer interface {
		SetSourceURL(url string) error
	}
)

type Deps struct {
	Students   StudentDirectory
	Guardians  GuardianRegistry
	Audits     AuditQueries
	Finance    FinanceReports
	Relaciones RelacionesStore
	Source     SourceConfigurer
}

type Server struct {
	log  *slog.Logger
	echo *echo.Echo
	addr string
	deps Deps
	loc  *time.Location

	now func() time.Time
}

func NewServer(log *slog.Logger, addr string, metricsEnabled bool, deps Deps, loc *time.Location) *Server {
	s := &Server{
		log:  log,
		echo: echo.New(),
		addr: addr,
		deps: deps,
		loc:  loc,
		now:  time.Now,
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("http", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	s.routes(metricsEnabled)
	return s
}

func (s *Server) routes(metricsEnabled bool) {
	e := s.echo
	e.GET("/health", s.health)
	if metricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	admin := e.Group("/admin")
	admin.GET("/users", s.listUsers)
	admin.GET("/students", s.listStudents)
	admin.GET("/users/:id/history", s.userHistory)
	admin.GET("/students/:id/debt", s.studentDebt)
	admin.GET("/stats/messages", s.statsMessages)
	admin.GET("/stats/users", s.statsUsers)
	admin.GET("/stats/registrations", s.statsRegistrations)
	admin.GET("/stats/messages/total", s.statsMessagesTotal)
	admin.GET("/stats/financial-summary", s.financialSummary)
	admin.GET("/dashboard", s.dashboard)

	e.POST("/upload-relaciones", s.uploadRelaciones)
	e.POST("/update-excel-url", s.updateExcelURL)
}

// Mount registra un handler http plano, como el webhook de WhatsApp,
// bajo la misma superficie HTTP.
func (s *Server) Mount(path string, h http.Handler) {
	s.echo.Any(path, echo.WrapHandler(h))
}

func (s *Server) Start() error {
	s.log.Info("servidor HTTP escuchando", "addr", s.addr)
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
