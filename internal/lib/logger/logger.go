package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/linemk/shop-api/internal/lib/logger/handlers/slogpretty"
)

const (
	EnvLocal       = "local"
	EnvDevelopment = "development"
	EnvDev         = "dev"
	EnvProd        = "prod"
)

const serviceName = "shop-api"

// SetupLogger: local и development пишут цветной текст, dev и prod пишут JSON
func SetupLogger(env string) *slog.Logger {
	return newLogger(env, os.Stdout)
}

func newLogger(env string, out io.Writer) *slog.Logger {
	switch env {
	case EnvLocal, EnvDevelopment:
		return setupPrettySlog(out)
	case EnvDev:
		return jsonLogger(out, env, slog.LevelDebug)
	default:
		return jsonLogger(out, env, slog.LevelInfo)
	}
}

// jsonLogger добавляет к каждой записи имя сервиса и окружение для агрегатора логов
func jsonLogger(out io.Writer, env string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(h).With(
		slog.String("service", serviceName),
		slog.String("env", env),
	)
}

func setupPrettySlog(out io.Writer) *slog.Logger {
	color.NoColor = false

	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	return slog.New(opts.NewPrettyHandler(out))
}
