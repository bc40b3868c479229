package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// AccessLogMiddleware logs every request once it has been handled
func AccessLogMiddleware(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		level := zerolog.InfoLevel
		switch {
		case err != nil || status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		}

		reqID, _ := c.Locals("requestid").(string)
		log.WithLevel(level).
			Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes_out", len(c.Response().Body())).
			Str("request_id", reqID).
			Msg("request")
		return err
	}
}
