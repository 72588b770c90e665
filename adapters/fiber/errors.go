package fiber

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/lborres/abaccess/core"
)

// Error codes for failures that are not auth outcomes.
const (
	CodeInvalidRequest = "invalid_request"
	CodeMissingToken   = "missing_token"
	CodeInvalidToken   = "invalid_token"
	CodeSessionExpired = "session_expired"
	CodeUnavailable    = "unavailable"
	CodeInternal       = "internal"
)

func errorBody(code, message string) core.ErrorResponse {
	return core.ErrorResponse{Error: core.APIError{Code: code, Message: message}}
}

// outcomeStatus maps a failed auth outcome to its HTTP status.
func outcomeStatus(o core.Outcome) int {
	switch o {
	case core.OutcomeOK:
		return http.StatusOK
	case core.OutcomeAccountNotFound:
		return http.StatusNotFound
	case core.OutcomeWrongPin:
		return http.StatusUnauthorized
	case core.OutcomePhoneTaken:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeOutcome(c fiber.Ctx, o core.Outcome) error {
	return c.Status(outcomeStatus(o)).JSON(errorBody(o.String(), o.Message()))
}

func writeBadRequest(c fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(errorBody(CodeInvalidRequest, "invalid request body"))
}

// mapError maps errors to a status and an error code. Infrastructure
// faults never expose their cause.
func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, core.ErrMissingAuthHeader):
		return http.StatusUnauthorized, CodeMissingToken, err.Error()
	case errors.Is(err, core.ErrSessionExpired):
		return http.StatusUnauthorized, CodeSessionExpired, err.Error()
	case errors.Is(err, core.ErrInvalidToken),
		errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrInvalidAuthHeader):
		return http.StatusUnauthorized, CodeInvalidToken, core.ErrInvalidToken.Error()
	case core.IsInfrastructure(err):
		return http.StatusServiceUnavailable, CodeUnavailable, core.UnavailableMessage
	default:
		return http.StatusInternalServerError, CodeInternal, "internal server error"
	}
}

func (a *Adapter) writeError(c fiber.Ctx, err error) error {
	status, code, message := mapError(err)
	if status >= http.StatusInternalServerError {
		a.access.Logger.Error("auth request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return c.Status(status).JSON(errorBody(code, message))
}
