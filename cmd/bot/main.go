package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/ijcv/chilo-bot/internal/bot"
	"github.com/ijcv/chilo-bot/internal/config"
	"github.com/ijcv/chilo-bot/internal/dialog"
	"github.com/ijcv/chilo-bot/internal/domain/audit"
	"github.com/ijcv/chilo-bot/internal/domain/finance"
	"github.com/ijcv/chilo-bot/internal/domain/guardians"
	"github.com/ijcv/chilo-bot/internal/domain/students"
	"github.com/ijcv/chilo-bot/internal/infra/db"
	"github.com/ijcv/chilo-bot/internal/infra/excel"
	httpx "github.com/ijcv/chilo-bot/internal/infra/http"
	"github.com/ijcv/chilo-bot/internal/infra/logger"
	"github.com/ijcv/chilo-bot/internal/infra/pin"
	"github.com/ijcv/chilo-bot/internal/transport/whatsapp"
)

func runMigrations(dsn string, log *slog.Logger) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Warn("zona horaria inválida, se usa UTC", "tz", cfg.App.Timezone, "err", err)
		loc = time.UTC
	}

	if err := runMigrations(cfg.Postgres.DSN, log); err != nil {
		log.Error("migraciones fallaron", "err", err)
		return
	}
	log.Info("migraciones aplicadas")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("conexión a la base falló", "err", err)
		return
	}
	defer pool.Close()
	log.Info("base de datos conectada")

	cache := excel.NewCache(log, cfg.Excel.URL, cfg.Excel.CacheTTL)
	studentSvc := students.NewService(log, cache, cfg.Excel.SheetName)
	financeSvc := finance.NewService(log, cache)
	pins := pin.NewValidator(log, cfg.Excel.RelacionesPath)
	guardianRepo := guardians.NewRepo(pool)
	auditRepo := audit.NewRepo(pool)
	stateRepo := dialog.NewRepo(pool)

	sender := whatsapp.NewClient(log, cfg.WhatsApp.Token, cfg.WhatsApp.PhoneID)
	webhook := whatsapp.NewWebhook(log, cfg.WhatsApp.VerifyToken)

	b := bot.New(log, sender, stateRepo, studentSvc, guardianRepo, pins, auditRepo, cfg, loc)

	srv := httpx.NewServer(log, cfg.HTTP.Addr, cfg.Metrics.Enabled, httpx.Deps{
		Students:   studentSvc,
		Guardians:  guardianRepo,
		Audits:     auditRepo,
		Finance:    financeSvc,
		Relaciones: pins,
		Source:     cache,
	}, loc)
	srv.Mount("/webhook", webhook)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("servidor HTTP falló", "err", err)
			stop()
		}
	}()
	log.Info("servidor HTTP iniciado", "addr", cfg.HTTP.Addr)

	go func() {
		if err := b.Run(ctx, webhook.Inbound()); err != nil && ctx.Err() == nil {
			log.Error("loop del bot terminó", "err", err)
		}
	}()
	log.Info("bot escuchando mensajes")

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("apagado ordenado completo")
}
