package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/newsmaker-api/internal/api/shared"
	"github.com/phrazzld/newsmaker-api/internal/domain"
	"github.com/phrazzld/newsmaker-api/internal/orchestrator"
	"github.com/phrazzld/newsmaker-api/internal/platform/postgres"
	"github.com/phrazzld/newsmaker-api/internal/retrieval"
	"github.com/phrazzld/newsmaker-api/internal/task"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, task.ErrAdmissionDenied):
		return http.StatusTooManyRequests

	case errors.Is(err, task.ErrTaskNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, task.ErrEmptyTenant),
		errors.Is(err, orchestrator.ErrEmptyContent),
		errors.Is(err, retrieval.ErrEmptyID),
		errors.Is(err, retrieval.ErrEmptyText),
		errors.Is(err, retrieval.ErrEmptyTenant),
		errors.Is(err, shared.ErrEmptyBody),
		errors.Is(err, postgres.ErrInvalidDestination),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. Internal
// details never reach the client.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, task.ErrAdmissionDenied):
		return "Too many active tasks, try again later"
	case errors.Is(err, task.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(validationErrs)
	case errors.Is(err, domain.ErrUnknownPlatform):
		return "Unknown platform"
	case errors.Is(err, domain.ErrInvalidMode):
		return "Invalid mode"
	case errors.Is(err, domain.ErrMissingBrand):
		return "Brand profile is required for monitoring"
	case errors.Is(err, orchestrator.ErrEmptyContent):
		return "Content is required"
	case errors.Is(err, retrieval.ErrEmptyID):
		return "Case id is required"
	case errors.Is(err, retrieval.ErrEmptyText):
		return "Case text is required"
	case errors.Is(err, task.ErrEmptyTenant), errors.Is(err, retrieval.ErrEmptyTenant):
		return "Tenant is required"
	case errors.Is(err, postgres.ErrInvalidDestination):
		return "Invalid destination"
	case errors.Is(err, domain.ErrValidation):
		return "Invalid request"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError renders validator errors by json field and rule
// only, without the offending values.
func SanitizeValidationError(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation failed"
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fmt.Sprintf("%s %s", fe.Field(), getValidationTagMessage(fe.Tag(), fe.Param())))
	}
	return "Invalid request: " + strings.Join(parts, "; ")
}

func getValidationTagMessage(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + param + " characters"
	case "min":
		return "must be at least " + param + " characters"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + param
	default:
		return "is invalid"
	}
}

// HandleAPIError writes the status and sanitized message for err and logs
// the cause.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
