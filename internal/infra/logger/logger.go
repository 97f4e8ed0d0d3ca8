package logger

import (
	"log/slog"
	"os"
)

// New construye el logger del proceso. En dev se baja el nivel a Debug
// y se usa salida de texto para leer los turnos de conversación a mano.
func New(env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
