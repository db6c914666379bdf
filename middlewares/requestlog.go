package middlewares

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDLocal = "requestID"

// RequestLogger tags each request with an id (reusing X-Request-ID when the
// caller sent a sane one) and logs it once the handler chain is done.
func RequestLogger(log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Locals(requestIDLocal, id)
		c.Set(fiber.HeaderXRequestID, id)

		start := time.Now()
		if chainErr := c.Next(); chainErr != nil {
			// Render the error now so the logged status is the one sent.
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		requestLogger(c, log).WithFields(logrus.Fields{
			"method":   c.Method(),
			"path":     c.Path(),
			"status":   c.Response().StatusCode(),
			"duration": time.Since(start).String(),
		}).Info("request")
		return nil
	}
}

// RequestID returns the id assigned by RequestLogger, if any.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocal).(string)
	return id
}

func requestLogger(c *fiber.Ctx, log logrus.FieldLogger) logrus.FieldLogger {
	if id := RequestID(c); id != "" {
		return log.WithField("request_id", id)
	}
	return log
}
