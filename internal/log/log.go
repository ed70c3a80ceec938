package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout, "json")
)

func newLogger(w io.Writer, format string) zerolog.Logger {
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).With().Timestamp().Str("service", "stockfinder").Logger()
}

// Init replaces the sink and the minimum level.
func Init(w io.Writer, format, level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	mu.Lock()
	logger = newLogger(w, format)
	mu.Unlock()
	SetLevel(level)
}

// SetOutput swaps the sink keeping JSON encoding. Tests use it to capture events.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger = newLogger(w, "json")
	mu.Unlock()
}

func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func write(level zerolog.Level, kind string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	mu.RLock()
	l := logger
	mu.RUnlock()

	ev := l.WithLevel(level).Str("kind", kind).Str("action", action)
	if c != nil {
		ev = ev.Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ev = ev.Str("req_id", rid)
		}
	}
	if err != nil {
		ev = ev.Str("err", err.Error())
	}
	if len(fields) > 0 {
		ev = ev.Interface("fields", fields)
	}
	ev.Send()
}

func Debug(c *fiber.Ctx, action string, fields map[string]any) {
	write(zerolog.DebugLevel, "debug", c, action, nil, fields)
}
func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(zerolog.InfoLevel, "info", c, action, nil, fields)
}
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(zerolog.InfoLevel, "audit", c, action, nil, fields)
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(zerolog.WarnLevel, "security", c, action, nil, fields)
}
func Warn(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(zerolog.WarnLevel, "warn", c, action, err, fields)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(zerolog.ErrorLevel, "error", c, action, err, fields)
}
