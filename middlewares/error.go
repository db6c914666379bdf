package middlewares

import (
	"errors"

	"apidocs-admin/apierrors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ErrorHandler returns fiber's global error handler. Every failure leaves
// with a machine-readable "error" field and, when known, the cause.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			ve  *apierrors.ValidationError
			fde *apierrors.ForbiddenDomainError
			se  *apierrors.StoreError
			ue  *apierrors.UpstreamError
			vfe validator.ValidationErrors
			fe  *fiber.Error
		)

		switch {
		case errors.As(err, &ve):
			body := fiber.Map{"error": ve.Message}
			if ve.Details != "" {
				body["details"] = ve.Details
			}
			return c.Status(fiber.StatusBadRequest).JSON(body)

		case errors.As(err, &vfe):
			out := make(map[string]string, len(vfe))
			for _, f := range vfe {
				out[f.Field()] = f.Tag()
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Missing required fields",
				"details": out,
			})

		case errors.As(err, &fde):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Domain not allowed",
				"details": fde.Error(),
			})

		case errors.As(err, &se):
			requestLogger(c, log).WithError(se.Err).Error(se.Message)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   se.Message,
				"details": se.Err.Error(),
			})

		case errors.As(err, &ue):
			requestLogger(c, log).WithError(ue.Err).WithField("target", ue.TargetURL).Error("proxy request failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":     "Proxy request failed",
				"message":   ue.Err.Error(),
				"targetUrl": ue.TargetURL,
			})

		case errors.As(err, &fe):
			msg := fe.Message
			if fe.Code == fiber.StatusMethodNotAllowed {
				msg = "Method not allowed"
			}
			return c.Status(fe.Code).JSON(fiber.Map{"error": msg})
		}

		requestLogger(c, log).WithError(err).Error("internal error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}
