package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/inkpost/internal/account/domain"
	authdomain "github.com/smallbiznis/inkpost/internal/auth/domain"
	billingcustomerdomain "github.com/smallbiznis/inkpost/internal/billingcustomer/domain"
	postdomain "github.com/smallbiznis/inkpost/internal/post/domain"
	"github.com/smallbiznis/inkpost/internal/providers/payment"
	"github.com/smallbiznis/inkpost/internal/ratelimit"
	subscriptiondomain "github.com/smallbiznis/inkpost/internal/subscription/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrRateLimited        = ratelimit.ErrRateLimited
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	// Provider messages go back verbatim so clients see the decline reason.
	var providerErr *payment.ProviderError
	if errors.As(err, &providerErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "provider_error",
			Message: providerErr.Error(),
		}
	}

	switch {
	case errors.Is(err, accountdomain.ErrInvalidCredentials):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_credentials",
			Message: "no active account found with the given credentials",
		}
	case errors.Is(err, accountdomain.ErrEmailExists):
		return http.StatusBadRequest, errorPayload{
			Type:    "already_exists",
			Message: "an account with this email already exists",
		}
	case errors.Is(err, billingcustomerdomain.ErrAlreadyExists):
		return http.StatusBadRequest, errorPayload{
			Type:    "already_exists",
			Message: "customer already exists",
		}
	case errors.Is(err, accountdomain.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_token",
			Message: "invalid or expired token",
		}
	case errors.Is(err, subscriptiondomain.ErrInvalidState):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_state",
			Message: "subscription is not canceled",
		}
	case errors.Is(err, subscriptiondomain.ErrInvalidItems):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_items",
			Message: "subscription has no items",
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidToken):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, postdomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: notFoundMessage(err),
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, payment.ErrNotConfigured):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog reports the payload type and a stable code for the
// request logger.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	code := payload.Type
	if payload.Type == "validation_error" && len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	var providerErr *payment.ProviderError
	if errors.As(err, &providerErr) && providerErr.Code != "" {
		code = providerErr.Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, accountdomain.ErrInvalidEmail),
		errors.Is(err, accountdomain.ErrInvalidPassword),
		errors.Is(err, accountdomain.ErrInvalidName),
		errors.Is(err, postdomain.ErrInvalidTitle),
		errors.Is(err, postdomain.ErrInvalidBody),
		errors.Is(err, postdomain.ErrInvalidSlug),
		errors.Is(err, postdomain.ErrInvalidStatus),
		errors.Is(err, postdomain.ErrInvalidAuthor),
		errors.Is(err, postdomain.ErrInvalidID),
		errors.Is(err, subscriptiondomain.ErrInvalidPlan),
		errors.Is(err, subscriptiondomain.ErrInvalidSubscriptionID):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, accountdomain.ErrNotFound),
		errors.Is(err, postdomain.ErrNotFound),
		errors.Is(err, postdomain.ErrAuthorNotFound),
		errors.Is(err, billingcustomerdomain.ErrNotFound),
		errors.Is(err, subscriptiondomain.ErrCustomerNotFound),
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound),
		errors.Is(err, subscriptiondomain.ErrNoSubscriptions),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, subscriptiondomain.ErrCustomerNotFound),
		errors.Is(err, billingcustomerdomain.ErrNotFound):
		return "customer not found"
	case errors.Is(err, subscriptiondomain.ErrNoSubscriptions):
		return "no subscriptions found for this customer"
	case errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound):
		return "subscription not found"
	case errors.Is(err, postdomain.ErrAuthorNotFound):
		return "author not found"
	default:
		return "not found"
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_password":
		return "password must be at least 8 characters"
	case "invalid_plan":
		return "plan_id is required"
	default:
		return "invalid value"
	}
}
