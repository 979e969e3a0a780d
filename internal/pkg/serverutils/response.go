package serverutils

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Error writes the API's error shape: {"error": "..."} with the status.
func Error(ctx *fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(fiber.Map{"error": message})
}

// ParseAndValidate fills req from the JSON body and runs struct validation.
// Callers translate a failure into their route's user-facing message.
func ParseAndValidate(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return err
	}
	return validate.Struct(req)
}

// ErrorHandlerMiddleware recovers panics and turns stray errors into the
// API's error shape so clients never see a fiber default page.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				_ = Error(ctx, fiber.StatusInternalServerError, "서버 오류가 발생했습니다.")
			}
		}()
		if err := ctx.Next(); err != nil {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return Error(ctx, code, "서버 오류가 발생했습니다.")
		}
		return nil
	}
}
