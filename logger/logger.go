package logger

import (
	"github.com/skif48/speakup-progress/app_config"
	"go.uber.org/fx/fxevent"
	"io"
	"log/slog"
	"os"
)

func InitLogger(ac *app_config.AppConfig) *slog.Logger {
	logger, err := New(os.Stdout, ac.LogLevel)
	if err != nil {
		panic(err)
	}
	slog.SetDefault(logger)
	return logger
}

func New(w io.Writer, levelName string) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, err
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})), nil
}

// FxLogger routes container lifecycle events through the service logger.
func FxLogger(l *slog.Logger) fxevent.Logger {
	return &fxevent.SlogLogger{Logger: l.With("component", "fx")}
}
