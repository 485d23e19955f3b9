package middleware

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

const accessLogFormat = "${time} ${status} ${method} ${path} ${latency} cid=${locals:correlation_id}\n"

// Config customises the middleware registration pipeline.
type Config struct {
	Logger *zerolog.Logger
	// AllowOrigins is a comma separated origin list; empty allows any origin.
	AllowOrigins string
	// AccessLog writes one plain line per request; nil disables it.
	AccessLog io.Writer
}

// Register installs the middleware chain shared by every route.
func Register(app *fiber.App, cfg Config) {
	base := zerolog.New(io.Discard)
	if cfg.Logger != nil {
		base = *cfg.Logger
	}

	app.Use(CorrelationID())
	if cfg.AccessLog != nil {
		app.Use(logger.New(logger.Config{
			Format: accessLogFormat,
			Output: cfg.AccessLog,
		}))
	}
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log := RequestLogger(base, c)
			log.Error().
				Str("panic", fmt.Sprint(e)).
				Str("path", c.Path()).
				Bytes("stack", debug.Stack()).
				Msg("recovered from panic")
		},
	}))
	app.Use(Observability(base))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins(cfg.AllowOrigins),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		ExposeHeaders: "X-Correlation-ID, Retry-After",
	}))
}

// allowedOrigins drops blanks and trailing slashes so SITE_URL can be pasted as-is.
func allowedOrigins(raw string) string {
	origins := make([]string, 0, 2)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ",")
}
