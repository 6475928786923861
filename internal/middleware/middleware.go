package middleware

import (
	"time"

	"video-service/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Logger logs every request with method, path, status and duration.
func Logger(log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Infow("request",
			"method", c.Method(),
			"path", c.OriginalURL(),
			"status", c.Response().StatusCode(),
			"ip", c.IP(),
			"duration", time.Since(start),
		)
		return err
	}
}

// Recovery is the outermost boundary: panics become a generic 500
// envelope, with the stack kept in the logs. Panic detail reaches the
// client only in dev mode.
func Recovery(log *zap.SugaredLogger, dev bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("panic recovered", "panic", r, "path", c.OriginalURL())
				msg := "internal server error"
				if dev {
					msg = "panic: " + stringify(r)
				}
				_ = utils.JSONError(c, fiber.StatusInternalServerError, msg)
			}
		}()
		return c.Next()
	}
}

func stringify(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	if s, ok := r.(string); ok {
		return s
	}
	return "unexpected error"
}
