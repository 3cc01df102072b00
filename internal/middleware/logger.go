package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Neeraj110/task-manager-app/internal/apperr"
)

func RequestLogger(logger *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)
		if err != nil {
			logger.Errorw("http request error",
				"method", c.Method(),
				"path", c.Path(),
				"ip", c.IP(),
				"status", apperr.HTTPStatus(err),
				"latency", latency,
				"error", err,
			)
			return err
		}
		logger.Infow("http request",
			"method", c.Method(),
			"path", c.Path(),
			"ip", c.IP(),
			"status", c.Response().StatusCode(),
			"latency", latency,
		)
		return nil
	}
}
