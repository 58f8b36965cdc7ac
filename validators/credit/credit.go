package creditValidator

import (
	"net/url"
	"strings"
	"time"

	"educredit/middleware"
	creditModels "educredit/models/credit"
	creditService "educredit/services/credit"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// CreateRequestBody is the payload for initiating a credit request.
type CreateRequestBody struct {
	Username  string `json:"username" validate:"required"`
	CourseKey string `json:"course_key" validate:"required"`
}

// CallbackBody is the payload providers post back after deciding a request.
type CallbackBody struct {
	RequestUUID string `json:"request_uuid" validate:"required,len=32,hexadecimal"`
	Status      string `json:"status" validate:"required"`
	Timestamp   string `json:"timestamp" validate:"required"`
	Signature   string `json:"signature" validate:"required"`
}

// SetRequirementsBody carries a course's full requirement sync payload.
type SetRequirementsBody struct {
	Requirements []creditService.RequirementSpec `json:"requirements" validate:"required,dive"`
}

// CreateCreditRequest validates the credit request body and course key.
func CreateCreditRequest() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateRequestBody)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				errors[strings.ToLower(fieldErr.Field())] = "This field is required!"
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		if _, err := creditModels.ParseCourseKey(reqData.CourseKey); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course key!", nil)
		}

		c.Locals("validatedCreditRequest", reqData)
		return c.Next()
	}
}

// ProviderCallback validates the provider callback body, including the
// timestamp format. Signature and status checks belong to the controller,
// which has the provider's secret at hand.
func ProviderCallback() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CallbackBody)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				errors[strings.ToLower(fieldErr.Field())] = "Invalid or missing value!"
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		timestamp, err := time.Parse(time.RFC3339, reqData.Timestamp)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid timestamp!", nil)
		}

		c.Locals("validatedCallback", reqData)
		c.Locals("callbackTimestamp", timestamp)
		return c.Next()
	}
}

// SetRequirements validates the requirement sync payload and course key
// path parameter.
func SetRequirements() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseKey, err := courseKeyParam(c)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course key!", nil)
		}

		reqData := new(SetRequirementsBody)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Requirements list is required!", nil)
		}

		c.Locals("validatedCourseKey", courseKey)
		c.Locals("validatedRequirements", reqData.Requirements)
		return c.Next()
	}
}

// CourseKeyParam validates the course key path parameter only.
func CourseKeyParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseKey, err := courseKeyParam(c)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course key!", nil)
		}
		c.Locals("validatedCourseKey", courseKey)
		return c.Next()
	}
}

func courseKeyParam(c *fiber.Ctx) (string, error) {
	raw, err := url.PathUnescape(strings.TrimSpace(c.Params("courseKey")))
	if err != nil {
		return "", err
	}
	if _, err := creditModels.ParseCourseKey(raw); err != nil {
		return "", err
	}
	return raw, nil
}
