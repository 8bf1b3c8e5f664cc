package admin

import (
	"log/slog"

	"github.com/go-chi/httplog/v2"
)

// NewHTTPLogger builds the httplog.Logger the admin router's request
// middleware writes through, separate from internal/logger.Logger since
// httplog owns its own slog.Handler construction.
func NewHTTPLogger(debug bool) *httplog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return httplog.NewLogger("scenewatcher-admin", httplog.Options{
		JSON:     true,
		LogLevel: level,
	})
}
