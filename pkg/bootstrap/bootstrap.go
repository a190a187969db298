// Package bootstrap wires process-level concerns for the analysis tools:
// environment configuration and structured logging.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Config holds standard configuration for the analysis tooling, read from
// the environment. The engine itself takes no ambient configuration; these
// values only feed the adapters around it.
type Config struct {
	GeminiAPIKey string
	SentryDSN    string
	Environment  string
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() *Config {
	env := os.Getenv("RUNSTREAM_ENV")
	if env == "" {
		env = "development"
	}
	return &Config{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		SentryDSN:    os.Getenv("SENTRY_DSN"),
		Environment:  env,
	}
}

// GetSlogHandlerOptions returns standard handler options
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the message
type ComponentHandler struct {
	slog.Handler
	component string
}

// WithGroup implements slog.Handler
func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{
		Handler:   h.Handler.WithGroup(name),
		component: h.component,
	}
}

// WithAttrs implements slog.Handler
func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newComp := h.component
	for _, a := range attrs {
		if a.Key == "component" {
			newComp = a.Value.String()
		}
	}
	return &ComponentHandler{
		Handler:   h.Handler.WithAttrs(attrs),
		component: newComp,
	}
}

// Handle implements slog.Handler
func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	comp := h.component

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			comp = a.Value.String()
			return false // stop
		}
		return true
	})

	if comp != "" {
		newMsg := fmt.Sprintf("[%s] %s", comp, r.Message)
		newRecord := slog.NewRecord(r.Time, r.Level, newMsg, r.PC)
		r.Attrs(func(a slog.Attr) bool {
			newRecord.AddAttrs(a)
			return true
		})
		r = newRecord
	}

	return h.Handler.Handle(ctx, r)
}

// NewLogger creates a configured logger instance. LOG_LEVEL selects the
// minimum level, defaulting to info.
func NewLogger(component string) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := GetSlogHandlerOptions(level)
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(&ComponentHandler{Handler: handler, component: component})
}
