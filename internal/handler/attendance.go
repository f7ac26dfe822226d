package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openclub/attendance/internal/service"
)

// AttendanceHandler serves the read side: the live session roster and
// per-participant attendance rates.  Clients poll these endpoints; there
// is no push channel.
type AttendanceHandler struct {
	Stats *service.StatsService
	Authz *service.Authorizer
}

func NewAttendanceHandler(stats *service.StatsService, authz *service.Authorizer) *AttendanceHandler {
	if stats == nil || authz == nil {
		panic("nil dependency passed to NewAttendanceHandler")
	}
	return &AttendanceHandler{Stats: stats, Authz: authz}
}

// SessionAttendance handles GET /v1/sessions/:id/attendance.  The roster
// lists every enrolled participant, including those without a record
// yet, so it is restricted to program managers.  Authorization runs
// before the view is built; an unauthorized caller never warms the
// cache.
func (h *AttendanceHandler) SessionAttendance(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	sessionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	programID, err := h.Stats.SessionProgram(c.Request().Context(), sessionID)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Authz.RequireManage(c.Request().Context(), actor, programID); err != nil {
		return writeError(c, err)
	}
	view, err := h.Stats.SessionAttendance(c.Request().Context(), sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// ParticipantRate handles GET /v1/programs/:id/participants/:uid/rate.
// Participants may read their own rate; anyone else's requires the
// manage capability.
func (h *AttendanceHandler) ParticipantRate(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	programID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid program id"})
	}
	userID, err := pathID(c, "uid")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if userID != actor.UserID {
		if err := h.Authz.RequireManage(c.Request().Context(), actor, programID); err != nil {
			return writeError(c, err)
		}
	}
	stats, err := h.Stats.RateFor(c.Request().Context(), programID, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
