package logger

import (
	"os"
	"valorant-companion/internal/config"

	"github.com/rs/zerolog"
)

func New() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()

	logger = logger.Level(zerolog.DebugLevel)

	return logger
}

func SetLevel(level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()

	logger = logger.Level(level)

	return logger
}

// Configured builds the application logger at the configured level from the
// bootstrap logger used while configuration is loading. Unknown levels keep
// the bootstrap logger.
func Configured(bootstrap zerolog.Logger, cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		bootstrap.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping debug")
		return bootstrap
	}
	return SetLevel(level)
}
