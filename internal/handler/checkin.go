package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openclub/attendance/internal/model"
	"github.com/openclub/attendance/internal/service"
)

// CheckInHandler covers the participant QR flow and organizer manual
// corrections.
type CheckInHandler struct {
	CheckIns *service.CheckInService
}

func NewCheckInHandler(checkins *service.CheckInService) *CheckInHandler {
	if checkins == nil {
		panic("nil service passed to NewCheckInHandler")
	}
	return &CheckInHandler{CheckIns: checkins}
}

type checkInRequest struct {
	Token string `json:"token"`
}

type manualCheckInRequest struct {
	UserID uint64  `json:"user_id"`
	Status string  `json:"status"`
	Note   *string `json:"note"`
}

type attendanceRecordResponse struct {
	ID            uint64  `json:"id"`
	SessionID     uint64  `json:"session_id"`
	ParticipantID uint64  `json:"participant_id"`
	Status        string  `json:"status"`
	Method        string  `json:"method"`
	CheckedAt     *string `json:"checked_at,omitempty"`
	Note          *string `json:"note,omitempty"`
}

func newAttendanceRecordResponse(rec *model.AttendanceRecord) attendanceRecordResponse {
	resp := attendanceRecordResponse{
		ID:            rec.ID,
		SessionID:     rec.SessionID,
		ParticipantID: rec.ParticipantID,
		Status:        rec.Status,
		Method:        rec.Method,
		Note:          rec.Note,
	}
	if rec.CheckedAt != nil {
		s := rec.CheckedAt.UTC().Format(time.RFC3339)
		resp.CheckedAt = &s
	}
	return resp
}

// CheckIn handles POST /v1/checkins.  The body carries the scanned
// token; the participant is the authenticated caller.
func (h *CheckInHandler) CheckIn(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req checkInRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}
	rec, err := h.CheckIns.CheckInViaToken(c.Request().Context(), strings.TrimSpace(req.Token), actor.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, newAttendanceRecordResponse(rec))
}

// ManualCheckIn handles POST /v1/sessions/:id/manual-checkins.  Lets an
// organizer record or correct attendance for any enrolled participant.
func (h *CheckInHandler) ManualCheckIn(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	sessionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var req manualCheckInRequest
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and status are required"})
	}
	rec, err := h.CheckIns.ManualCheckIn(c.Request().Context(), sessionID, req.UserID, strings.ToUpper(strings.TrimSpace(req.Status)), req.Note, actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newAttendanceRecordResponse(rec))
}
