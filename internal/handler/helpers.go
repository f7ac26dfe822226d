// Package handler defines the HTTP handlers.  Handlers stay thin: bind
// and validate input, call a service, translate sentinel errors to
// status codes.  All domain decisions live in internal/service.
package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/openclub/attendance/internal/middleware"
	"github.com/openclub/attendance/internal/model"
	"github.com/openclub/attendance/internal/repository"
	"github.com/openclub/attendance/internal/service"
)

// getActor reads the authenticated caller placed in the context by the
// JWT middleware.
func getActor(c echo.Context) (model.Actor, error) {
	uid, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok || uid == 0 {
		return model.Actor{}, errors.New("missing user identity in context")
	}
	role, _ := c.Get(middleware.CtxRole).(string)
	return model.Actor{UserID: uid, Role: role}, nil
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// writeError maps service sentinels onto HTTP responses.  Anything
// unrecognized is a storage or programming failure: logged and reported
// as 500 without leaking detail.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	case errors.Is(err, service.ErrNotParticipant):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not a participant of this program"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, service.ErrInvalidStatus):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	case errors.Is(err, service.ErrSessionAlreadyPast):
		return c.JSON(http.StatusConflict, echo.Map{"error": "session has already started"})
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already checked in"})
	case errors.Is(err, service.ErrDuplicateAbsenceRequest):
		return c.JSON(http.StatusConflict, echo.Map{"error": "absence request already exists"})
	case errors.Is(err, service.ErrRequestNotPending):
		return c.JSON(http.StatusConflict, echo.Map{"error": "request is not pending"})
	case errors.Is(err, service.ErrDepositNotUnpaid):
		return c.JSON(http.StatusConflict, echo.Map{"error": "deposit is not awaiting payment"})
	case errors.Is(err, service.ErrDepositNotPaid):
		return c.JSON(http.StatusConflict, echo.Map{"error": "deposit is not paid"})
	case errors.Is(err, service.ErrAlreadySettled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "deposit already settled"})
	}
	log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
