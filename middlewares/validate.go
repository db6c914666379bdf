package middlewares

import (
	"apidocs-admin/apierrors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// BindAndValidate parses the JSON request body into dst and validates it.
// Parse failures become a ValidationError; rule failures come back as
// validator.ValidationErrors for the error handler to report.
func BindAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return &apierrors.ValidationError{Message: "Invalid request body", Details: err.Error()}
	}
	return validate.Struct(dst)
}
