// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/amirphl/dti-portal/app/dto"
	"github.com/amirphl/dti-portal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

var phMobilePattern = regexp.MustCompile(`^09\d{9}$`)

// newValidator returns a validator with the portal's custom tags registered
func newValidator() *validator.Validate {
	v := validator.New()

	// Philippine mobile format: 09xxxxxxxxx
	_ = v.RegisterValidation("ph_mobile", func(fl validator.FieldLevel) bool {
		return phMobilePattern.MatchString(fl.Field().String())
	})

	return v
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "alphanum":
		return err.Field() + " must contain only letters and numbers"
	case "ph_mobile":
		return "Mobile number must be in format 09xxxxxxxxx"
	case "numeric":
		return err.Field() + " must contain only numbers"
	case "uuid4":
		return err.Field() + " must be a valid UUID"
	case "datetime":
		return fmt.Sprintf("%s must be a date in format %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

func errorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func successResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// validateRequest runs the struct validator and writes a 400 response on failure.
// The returned bool is false when a response was already written.
func validateRequest(c fiber.Ctx, v *validator.Validate, req any) (bool, error) {
	if err := v.Struct(req); err != nil {
		var validationErrors []string
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrors {
				validationErrors = append(validationErrors, getValidationErrorMessage(fe))
			}
		} else {
			validationErrors = append(validationErrors, err.Error())
		}
		return false, errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}
	return true, nil
}

// accountIDFromLocals reads the authenticated account id set by the auth middleware
func accountIDFromLocals(c fiber.Ctx) (uint, bool) {
	accountID, ok := c.Locals("account_id").(uint)
	return accountID, ok && accountID != 0
}

func createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
