// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openclub/attendance/internal/handler"
	"github.com/openclub/attendance/internal/middleware"
	"github.com/openclub/attendance/internal/model"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Health      *handler.HealthHandler
	Tokens      *handler.TokenHandler
	CheckIns    *handler.CheckInHandler
	Absences    *handler.AbsenceHandler
	Attendance  *handler.AttendanceHandler
	Settlements *handler.SettlementHandler
}

// Register mounts all routes.  /healthz and /metrics are unauthenticated;
// everything under /v1 requires a Bearer token carrying one of the known
// platform roles.  rateLimit applies only to the participant-facing
// check-in path, where QR scan bursts land.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rateLimit echo.MiddlewareFunc) {
	e.GET("/healthz", h.Health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole(model.RoleAdmin, model.RoleMember))

	// Participant flow.
	checkins := v1.Group("/checkins")
	if rateLimit != nil {
		checkins.Use(rateLimit)
	}
	checkins.POST("", h.CheckIns.CheckIn)

	v1.POST("/sessions/:id/absences", h.Absences.Submit)
	v1.POST("/absences/:id/cancel", h.Absences.Cancel)
	v1.GET("/programs/:id/participants/:uid/rate", h.Attendance.ParticipantRate)

	// Organizer flow.  Program-level capability is checked in the service
	// layer; routes stay open to any authenticated caller.
	v1.POST("/sessions/:id/token", h.Tokens.Issue)
	v1.POST("/sessions/:id/token/refresh", h.Tokens.Refresh)
	v1.POST("/sessions/:id/manual-checkins", h.CheckIns.ManualCheckIn)
	v1.GET("/sessions/:id/attendance", h.Attendance.SessionAttendance)
	v1.POST("/absences/:id/approve", h.Absences.Approve)
	v1.POST("/absences/:id/reject", h.Absences.Reject)

	// Deposit flow.
	v1.POST("/programs/:id/participants/:uid/deposit/paid", h.Settlements.MarkPaid)
	v1.POST("/programs/:id/participants/:uid/settlement", h.Settlements.Settle)
	v1.POST("/programs/:id/settlements", h.Settlements.SettleAll)
}
