package handlers

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"telcodash/internal/dto"
	"telcodash/pkg/apperror"
	"telcodash/pkg/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind parses the JSON body into req and runs its validate tags.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperror.Invalid("body", "invalid request body")
	}
	return validateStruct(req)
}

func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return apperror.Invalid("body", err.Error())
	}
	fields := make(map[string]string, len(vErrs))
	for _, fe := range vErrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &apperror.ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "e164":
		return "must be an E.164 phone number"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of " + fe.Param()
	case "datetime":
		return "must match " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	}
	return "failed " + fe.Tag()
}

// respondError writes err with the status of its kind. Unexpected errors are
// logged and hidden behind message.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error, message string) error {
	status := apperror.HTTPStatus(err)

	var vErr *apperror.ValidationError
	if errors.As(err, &vErr) {
		return c.Status(status).JSON(dto.ErrorResponse{Error: "Validation failed", Fields: vErr.Fields})
	}

	if status == fiber.StatusInternalServerError {
		logger.Error(message,
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("kind", apperror.Kind(err)),
		)
		return c.Status(status).JSON(dto.ErrorResponse{Error: message})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: err.Error()})
}

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, err := uuid.Parse(middleware.UserID(c))
	if err != nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return userID, nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Unauthorized"})
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Invalid(name, "must be a valid UUID")
	}
	return id, nil
}

func queryInt(c *fiber.Ctx, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return value
}

// queryBool returns nil when the parameter is absent or unparsable.
func queryBool(c *fiber.Ctx, name string) *bool {
	value, err := strconv.ParseBool(c.Query(name))
	if err != nil {
		return nil
	}
	return &value
}
