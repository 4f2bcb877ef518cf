package handler

import (
	"errors"
	"net/http"

	"github.com/atelierfoto/session-service/internal/service"
	"github.com/labstack/echo/v4"
)

// httpError translates the service error taxonomy to HTTP. Validation and
// malformed payloads are 400; state-machine and precondition failures are
// 422; contention over resources or money is 409; infrastructure trouble
// is 503 so clients know to retry.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrInvalidPayload):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInsufficientPermission):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrPaymentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSchedulingConflict),
		errors.Is(err, service.ErrUnpaidBalance):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrIllegalTransition),
		errors.Is(err, service.ErrMissingResource),
		errors.Is(err, service.ErrSessionNotEditable):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrRepositoryUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
